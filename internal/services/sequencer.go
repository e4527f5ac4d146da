package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/lucavoss/adeptly-backend/internal/app"
	types "github.com/lucavoss/adeptly-backend/internal/domain"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

const (
	ActionContinue  = "continue"
	ActionScaffold  = "scaffold"
	ActionChallenge = "challenge"
)

// SequencerDecision is the in-session verdict after one graded response.
type SequencerDecision struct {
	Action     string
	Difficulty float64
}

// Sequencer decides, after every graded response, whether the session
// continues down its queue or splices in an easier or harder task.
type Sequencer struct {
	cfg         app.Config
	progression types.ProgressionMap
	log         *logger.Logger
}

func NewSequencer(cfg app.Config, progression types.ProgressionMap, baseLog *logger.Logger) *Sequencer {
	if progression == nil {
		progression = types.DefaultProgression()
	}
	return &Sequencer{
		cfg:         cfg,
		progression: progression,
		log:         baseLog.With("service", "Sequencer"),
	}
}

// Decide applies the policy: incorrect plus low posterior wants a scaffold,
// correct plus high posterior plus a recent streak wants a challenge,
// everything else continues.
func (s *Sequencer) Decide(correct bool, posterior, currentDifficulty float64, recentCorrect []bool) SequencerDecision {
	wantScaffold := !correct && posterior < s.cfg.StrugglingThreshold
	wantChallenge := correct &&
		posterior >= s.cfg.MasteryThreshold &&
		s.hasChallengeStreak(recentCorrect)
	return s.resolve(wantScaffold, wantChallenge, currentDifficulty)
}

// resolve turns the two condition flags into a decision. Scaffold wins when
// both fire: easing off is always safer than piling on.
func (s *Sequencer) resolve(wantScaffold, wantChallenge bool, currentDifficulty float64) SequencerDecision {
	switch {
	case wantScaffold:
		d := currentDifficulty - s.cfg.DifficultyStep
		if d < s.cfg.MinDifficulty {
			d = s.cfg.MinDifficulty
		}
		return SequencerDecision{Action: ActionScaffold, Difficulty: d}
	case wantChallenge:
		d := currentDifficulty + s.cfg.DifficultyStep
		if d > s.cfg.MaxDifficulty {
			d = s.cfg.MaxDifficulty
		}
		return SequencerDecision{Action: ActionChallenge, Difficulty: d}
	default:
		return SequencerDecision{Action: ActionContinue, Difficulty: currentDifficulty}
	}
}

func (s *Sequencer) hasChallengeStreak(recentCorrect []bool) bool {
	window := s.cfg.ChallengeWindow
	if window <= 0 {
		window = 3
	}
	if len(recentCorrect) > window {
		recentCorrect = recentCorrect[len(recentCorrect)-window:]
	}
	correct := 0
	for _, ok := range recentCorrect {
		if ok {
			correct++
		}
	}
	return correct >= s.cfg.ChallengeMinCorrect
}

// AdvanceSuggestion emits an advance_skill record when the posterior crosses
// the advancement threshold on a skill with a known successor. This is a
// cross-session signal for the review workflow, never an in-session action.
func (s *Sequencer) AdvanceSuggestion(studentID uuid.UUID, subject, skill string, prior, posterior float64) *types.ModelSuggestion {
	if prior >= s.cfg.AdvanceThreshold || posterior < s.cfg.AdvanceThreshold {
		return nil
	}
	next, ok := s.progression.Next(skill)
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	evidence, _ := jsonStrings([]string{
		"mastery crossed advancement threshold",
		"successor skill available in progression map",
	})
	return &types.ModelSuggestion{
		ID:             uuid.New(),
		StudentID:      studentID,
		Subject:        subject,
		Skill:          skill,
		Type:           types.RecommendationAdvanceSkill,
		CurrentMastery: posterior,
		TargetSkill:    next,
		Confidence:     posterior,
		Reasoning:      "Mastery of " + skill + " crossed the advancement threshold; " + next + " is next in the progression.",
		Evidence:       evidence,
		Priority:       types.PriorityMedium,
		Status:         types.SuggestionStatusPending,
		ExpiresAt:      now.Add(s.cfg.SuggestionTTL),
	}
}

func jsonStrings(items []string) (datatypes.JSON, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
