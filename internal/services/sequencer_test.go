package services

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lucavoss/adeptly-backend/internal/app"
	types "github.com/lucavoss/adeptly-backend/internal/domain"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

func sequencerConfig() app.Config {
	return app.Config{
		StrugglingThreshold: 0.4,
		MasteryThreshold:    0.8,
		AdvanceThreshold:    0.9,
		DifficultyStep:      0.15,
		MinDifficulty:       0.1,
		MaxDifficulty:       1.0,
		ChallengeWindow:     3,
		ChallengeMinCorrect: 2,
		SuggestionTTL:       72 * time.Hour,
	}
}

func closeTo(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func newTestSequencer(t *testing.T) *Sequencer {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewSequencer(sequencerConfig(), nil, log)
}

func TestDecideScaffoldOnStrugglingMiss(t *testing.T) {
	s := newTestSequencer(t)
	d := s.Decide(false, 0.25, 0.5, []bool{false, false})
	if d.Action != ActionScaffold {
		t.Fatalf("expected scaffold, got %s", d.Action)
	}
	if !closeTo(d.Difficulty, 0.35) {
		t.Fatalf("expected difficulty 0.35, got %v", d.Difficulty)
	}
}

func TestDecideScaffoldRespectsFloor(t *testing.T) {
	s := newTestSequencer(t)
	d := s.Decide(false, 0.1, 0.15, nil)
	if d.Action != ActionScaffold || !closeTo(d.Difficulty, 0.1) {
		t.Fatalf("expected scaffold at floor 0.1, got %+v", d)
	}
}

func TestDecideChallengeOnMasteredStreak(t *testing.T) {
	s := newTestSequencer(t)
	d := s.Decide(true, 0.85, 0.6, []bool{true, false, true})
	if d.Action != ActionChallenge {
		t.Fatalf("expected challenge, got %s", d.Action)
	}
	if !closeTo(d.Difficulty, 0.75) {
		t.Fatalf("expected difficulty 0.75, got %v", d.Difficulty)
	}
}

func TestDecideChallengeNeedsStreak(t *testing.T) {
	s := newTestSequencer(t)
	// High posterior but only 1 of last 3 correct.
	d := s.Decide(true, 0.85, 0.6, []bool{false, false, true})
	if d.Action != ActionContinue {
		t.Fatalf("expected continue without streak, got %s", d.Action)
	}
}

func TestDecideContinueInTheMiddle(t *testing.T) {
	s := newTestSequencer(t)
	d := s.Decide(true, 0.6, 0.5, []bool{true, true})
	if d.Action != ActionContinue || !closeTo(d.Difficulty, 0.5) {
		t.Fatalf("expected continue at same difficulty, got %+v", d)
	}
}

func TestResolveScaffoldWinsTies(t *testing.T) {
	s := newTestSequencer(t)
	// Both conditions forced true: the safety bias must pick scaffold.
	d := s.resolve(true, true, 0.5)
	if d.Action != ActionScaffold {
		t.Fatalf("tie-break must choose scaffold, got %s", d.Action)
	}
}

func TestAdvanceSuggestionOnThresholdCrossing(t *testing.T) {
	s := newTestSequencer(t)
	student := uuid.New()

	sug := s.AdvanceSuggestion(student, "math", "addition", 0.85, 0.92)
	if sug == nil {
		t.Fatalf("expected advance suggestion on crossing")
	}
	if sug.Type != types.RecommendationAdvanceSkill || sug.TargetSkill != "subtraction" {
		t.Fatalf("unexpected suggestion: %+v", sug)
	}
	if sug.Status != types.SuggestionStatusPending {
		t.Fatalf("suggestion must start pending, got %s", sug.Status)
	}

	// Already above threshold: no re-emission.
	if again := s.AdvanceSuggestion(student, "math", "addition", 0.92, 0.95); again != nil {
		t.Fatalf("crossing already behind us, got %+v", again)
	}

	// Terminal skill has no successor.
	if terminal := s.AdvanceSuggestion(student, "math", "percentages", 0.85, 0.95); terminal != nil {
		t.Fatalf("terminal skill should not advance, got %+v", terminal)
	}
}
