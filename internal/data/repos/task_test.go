package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lucavoss/adeptly-backend/internal/data/repos/testutil"
	types "github.com/lucavoss/adeptly-backend/internal/domain"
)

func TestTaskRepoShiftPositionsKeepsRelativeOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewTaskRepo(db, testutil.Logger(t))

	session := testutil.SeedSession(t, ctx, tx, uuid.New(), "math", types.SessionStatusActive)
	t0 := testutil.SeedTask(t, ctx, tx, session.ID, 0, "addition")
	t1 := testutil.SeedTask(t, ctx, tx, session.ID, 1, "addition")
	t2 := testutil.SeedTask(t, ctx, tx, session.ID, 2, "subtraction")

	// Splice a scaffold task at position 1.
	if err := repo.ShiftPositions(ctx, tx, session.ID, 1); err != nil {
		t.Fatalf("ShiftPositions: %v", err)
	}
	scaffold := &types.LearningTask{
		ID:         uuid.New(),
		SessionID:  session.ID,
		Position:   1,
		Skill:      "addition",
		Difficulty: 0.3,
		Kind:       types.TaskKindScaffold,
	}
	if err := repo.Create(ctx, tx, []*types.LearningTask{scaffold}); err != nil {
		t.Fatalf("Create scaffold: %v", err)
	}

	rows, err := repo.ListBySession(ctx, tx, session.ID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	wantOrder := []uuid.UUID{t0.ID, scaffold.ID, t1.ID, t2.ID}
	if len(rows) != len(wantOrder) {
		t.Fatalf("expected %d tasks, got %d", len(wantOrder), len(rows))
	}
	for i, row := range rows {
		if row.ID != wantOrder[i] {
			t.Fatalf("position %d: expected %s got %s", i, wantOrder[i], row.ID)
		}
		if row.Position != i {
			t.Fatalf("positions not dense: index %d has position %d", i, row.Position)
		}
	}
}

func TestTaskRepoGradedStats(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewTaskRepo(db, testutil.Logger(t))

	session := testutil.SeedSession(t, ctx, tx, uuid.New(), "math", types.SessionStatusActive)
	answered := testutil.SeedTask(t, ctx, tx, session.ID, 0, "addition")
	answered.Correct = testutil.PtrBool(true)
	answered.TimeSpentSeconds = testutil.PtrFloat(20)
	answered.AnsweredAt = testutil.PtrTime(time.Now().UTC())
	if err := repo.Update(ctx, tx, answered); err != nil {
		t.Fatalf("Update: %v", err)
	}
	missed := testutil.SeedTask(t, ctx, tx, session.ID, 1, "addition")
	missed.Correct = testutil.PtrBool(false)
	missed.TimeSpentSeconds = testutil.PtrFloat(35)
	if err := repo.Update(ctx, tx, missed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// Unanswered task must not count.
	testutil.SeedTask(t, ctx, tx, session.ID, 2, "subtraction")

	stats, err := repo.GradedStatsBySession(ctx, tx, session.ID)
	if err != nil {
		t.Fatalf("GradedStatsBySession: %v", err)
	}
	if stats.Total != 2 || stats.Correct != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalSeconds != 55 {
		t.Fatalf("expected 55 seconds, got %v", stats.TotalSeconds)
	}
}
