package domain

// ProgressionMap maps a skill to its successor in a fixed curriculum order.
// Crossing the advancement threshold on a skill with a successor emits an
// advance_skill suggestion for review.
type ProgressionMap map[string]string

// Next returns the successor skill and whether one exists.
func (m ProgressionMap) Next(skill string) (string, bool) {
	next, ok := m[skill]
	return next, ok
}

// DefaultSkillOrder is the curriculum order used when a session request names
// no target skills.
func DefaultSkillOrder() []string {
	return []string{
		"counting",
		"addition",
		"subtraction",
		"multiplication",
		"division",
		"fractions",
		"decimals",
		"percentages",
	}
}

// DefaultProgression covers the arithmetic strand used when no curriculum map
// is configured.
func DefaultProgression() ProgressionMap {
	return ProgressionMap{
		"counting":       "addition",
		"addition":       "subtraction",
		"subtraction":    "multiplication",
		"multiplication": "division",
		"division":       "fractions",
		"fractions":      "decimals",
		"decimals":       "percentages",
	}
}
