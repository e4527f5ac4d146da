package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucavoss/adeptly-backend/internal/data/repos"
	"github.com/lucavoss/adeptly-backend/internal/data/repos/testutil"
	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
)

func newTestProgress(t *testing.T) (*progressService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	cfg := quietConfig()
	cfg.MasteredCutoff = 0.8
	cfg.StrugglingCutoff = 0.4
	cfg.ProgressLookback = 24 * time.Hour

	svc := NewProgressService(cfg,
		repos.NewSkillStateRepo(tx, log),
		repos.NewTaskRepo(tx, log),
		repos.NewSubjectProgressRepo(tx, log),
		log).(*progressService)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc, tx
}

func TestRecomputeBucketsSkills(t *testing.T) {
	svc, tx := newTestProgress(t)
	ctx := context.Background()
	student := uuid.New()

	testutil.SeedSkillState(t, ctx, tx, student, "math", "counting", 0.95)
	testutil.SeedSkillState(t, ctx, tx, student, "math", "addition", 0.55)
	testutil.SeedSkillState(t, ctx, tx, student, "math", "subtraction", 0.2)
	// Another subject must not bleed in.
	testutil.SeedSkillState(t, ctx, tx, student, "reading", "phonics", 0.9)

	row, err := svc.Recompute(ctx, student, "math")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if row.SkillsMastered != 1 || row.SkillsInProgress != 1 || row.SkillsStruggling != 1 {
		t.Fatalf("unexpected buckets: %+v", row)
	}
	if row.ComputedAt.IsZero() {
		t.Fatalf("computed_at missing")
	}

	stored, err := svc.Get(ctx, student, "math")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.SkillsMastered != 1 {
		t.Fatalf("rollup not persisted: %+v", stored)
	}
}

func TestRecomputeIsIdempotentOverwrite(t *testing.T) {
	svc, tx := newTestProgress(t)
	ctx := context.Background()
	student := uuid.New()

	st := testutil.SeedSkillState(t, ctx, tx, student, "math", "addition", 0.3)
	if _, err := svc.Recompute(ctx, student, "math"); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	// Skill climbs out of the struggling band; the rollup follows.
	st.Mastery = 0.85
	if err := tx.WithContext(ctx).Save(st).Error; err != nil {
		t.Fatalf("update state: %v", err)
	}
	row, err := svc.Recompute(ctx, student, "math")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if row.SkillsMastered != 1 || row.SkillsStruggling != 0 {
		t.Fatalf("rollup must track the latest states: %+v", row)
	}
}

func TestRecomputeValidation(t *testing.T) {
	svc, _ := newTestProgress(t)
	if _, err := svc.Recompute(context.Background(), uuid.Nil, "math"); !pkgerrors.Is(err, pkgerrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecomputeRecentTouchesOnlyRecentPairs(t *testing.T) {
	svc, tx := newTestProgress(t)
	ctx := context.Background()
	recent := uuid.New()
	stale := uuid.New()

	now := svc.now()
	st := testutil.SeedSkillState(t, ctx, tx, recent, "math", "addition", 0.5)
	st.LastPracticed = testutil.PtrTime(now.Add(-time.Hour))
	if err := tx.WithContext(ctx).Save(st).Error; err != nil {
		t.Fatalf("update state: %v", err)
	}
	old := testutil.SeedSkillState(t, ctx, tx, stale, "math", "addition", 0.5)
	old.LastPracticed = testutil.PtrTime(now.Add(-48 * time.Hour))
	if err := tx.WithContext(ctx).Save(old).Error; err != nil {
		t.Fatalf("update state: %v", err)
	}

	if err := svc.RecomputeRecent(ctx); err != nil {
		t.Fatalf("recompute recent: %v", err)
	}

	if _, err := svc.Get(ctx, recent, "math"); err != nil {
		t.Fatalf("recent pair must have a rollup: %v", err)
	}
	if _, err := svc.Get(ctx, stale, "math"); !pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("stale pair must be untouched, got %v", err)
	}
}
