package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lucavoss/adeptly-backend/internal/data/repos/testutil"
	types "github.com/lucavoss/adeptly-backend/internal/domain"
	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
)

func TestSkillStateRepoGetOrCreate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewSkillStateRepo(db, testutil.Logger(t))

	student := uuid.New()
	seed := &types.SkillState{
		StudentID: student,
		Subject:   "math",
		Skill:     "addition",
		PInit:     0.3, PLearn: 0.2, PGuess: 0.2, PSlip: 0.1,
		Mastery: 0.3,
	}
	created, err := repo.GetOrCreate(ctx, tx, seed)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if created.ID == uuid.Nil || created.Version != 1 {
		t.Fatalf("seeded row not initialized: %+v", created)
	}

	again, err := repo.GetOrCreate(ctx, tx, &types.SkillState{StudentID: student, Subject: "math", Skill: "addition"})
	if err != nil {
		t.Fatalf("GetOrCreate second call: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("expected existing row %s, got %s", created.ID, again.ID)
	}
}

func TestSkillStateRepoApplyUpdateVersionConflict(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewSkillStateRepo(db, testutil.Logger(t))

	row := testutil.SeedSkillState(t, ctx, tx, uuid.New(), "math", "fractions", 0.4)

	now := time.Now().UTC()
	row.Mastery = 0.5
	row.TotalAttempts = 1
	row.LastPracticed = testutil.PtrTime(now)
	if err := repo.ApplyUpdate(ctx, tx, row); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	if row.Version != 2 {
		t.Fatalf("version not bumped: %d", row.Version)
	}

	// A writer holding the old version must lose.
	stale := *row
	stale.Version = 1
	stale.Mastery = 0.9
	err := repo.ApplyUpdate(ctx, tx, &stale)
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	fresh, err := repo.Get(ctx, tx, row.StudentID, "math", "fractions")
	if err != nil || fresh == nil {
		t.Fatalf("Get: %v", err)
	}
	if fresh.Mastery != 0.5 {
		t.Fatalf("stale write mutated mastery: %v", fresh.Mastery)
	}
}
