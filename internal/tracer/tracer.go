// Package tracer implements Bayesian Knowledge Tracing: a two-state hidden
// Markov model of skill mastery updated per observed response. Everything here
// is pure computation; callers own persistence and ordering.
package tracer

// Clamp bounds keep the posterior away from absorbing states so the model can
// always move on new evidence.
const (
	MasteryFloor   = 1e-6
	MasteryCeiling = 1 - 1e-6
)

// Params are the per-student-per-skill BKT parameters, probabilities in [0,1].
type Params struct {
	PInit  float64
	PLearn float64
	PGuess float64
	PSlip  float64
}

// DefaultParams returns the population priors seeded on first exposure to a
// skill, before any personalization.
func DefaultParams() Params {
	return Params{
		PInit:  0.3,
		PLearn: 0.2,
		PGuess: 0.2,
		PSlip:  0.1,
	}
}

// Observation is one graded response. HintUsed discounts the evidence weight
// of a correct answer; it never strengthens an incorrect one.
type Observation struct {
	Correct  bool
	HintUsed bool
}

// Update applies one BKT step: Bayes evidence update conditioned on observed
// correctness, then the fixed-probability learning transition. The result is
// clamped to [MasteryFloor, MasteryCeiling].
func Update(prior float64, p Params, obs Observation) float64 {
	prior = clamp01(prior)

	var likelihoodKnown, likelihoodUnknown float64
	if obs.Correct {
		likelihoodKnown = 1 - p.PSlip
		likelihoodUnknown = p.PGuess
	} else {
		likelihoodKnown = p.PSlip
		likelihoodUnknown = 1 - p.PGuess
	}

	denom := prior*likelihoodKnown + (1-prior)*likelihoodUnknown
	posterior := prior
	if denom > 0 {
		posterior = prior * likelihoodKnown / denom
	}

	if obs.Correct && obs.HintUsed {
		// A hinted success is weaker evidence: blend halfway back to the prior.
		posterior = prior + (posterior-prior)*0.5
	}

	updated := posterior + (1-posterior)*p.PLearn
	return clampMastery(updated)
}

// Mastered reports whether the belief has crossed the given threshold.
func Mastered(mastery, threshold float64) bool {
	return mastery >= threshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampMastery(v float64) float64 {
	if v < MasteryFloor {
		return MasteryFloor
	}
	if v > MasteryCeiling {
		return MasteryCeiling
	}
	return v
}
