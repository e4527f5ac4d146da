package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lucavoss/adeptly-backend/internal/domain"
)

func PtrBool(v bool) *bool           { return &v }
func PtrFloat(v float64) *float64    { return &v }
func PtrString(v string) *string     { return &v }
func PtrTime(v time.Time) *time.Time { return &v }

func SeedSkillState(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject, skill string, mastery float64) *types.SkillState {
	tb.Helper()
	row := &types.SkillState{
		ID:        uuid.New(),
		StudentID: studentID,
		Subject:   subject,
		Skill:     skill,
		PInit:     0.3,
		PLearn:    0.2,
		PGuess:    0.2,
		PSlip:     0.1,
		Mastery:   mastery,
		Version:   1,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed skill state: %v", err)
	}
	return row
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject, status string) *types.LearningSession {
	tb.Helper()
	row := &types.LearningSession{
		ID:             uuid.New(),
		StudentID:      studentID,
		Subject:        subject,
		Status:         status,
		PlannedMinutes: 15,
		StartedAt:      time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return row
}

func SeedTask(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, position int, skill string) *types.LearningTask {
	tb.Helper()
	row := &types.LearningTask{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Position:   position,
		Skill:      skill,
		Difficulty: 0.5,
		Kind:       types.TaskKindPlanned,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return row
}

func SeedSuggestion(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID uuid.UUID, suggestionType string, expiresAt time.Time) *types.ModelSuggestion {
	tb.Helper()
	row := &types.ModelSuggestion{
		ID:         uuid.New(),
		StudentID:  studentID,
		Subject:    "math",
		Skill:      "addition",
		Type:       suggestionType,
		Confidence: 0.7,
		Reasoning:  "seed",
		Priority:   types.PriorityMedium,
		Status:     types.SuggestionStatusPending,
		ExpiresAt:  expiresAt,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed suggestion: %v", err)
	}
	return row
}
