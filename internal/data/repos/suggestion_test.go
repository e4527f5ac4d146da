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

func TestSuggestionRepoReviewOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewSuggestionRepo(db, testutil.Logger(t))

	student := uuid.New()
	row := testutil.SeedSuggestion(t, ctx, tx, student, types.RecommendationAdvanceSkill, time.Now().Add(time.Hour))

	reviewed, err := repo.Review(ctx, tx, row.ID, types.SuggestionStatusAccepted, "reviewer-1", nil)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != types.SuggestionStatusAccepted || reviewed.ReviewedAt == nil {
		t.Fatalf("review not recorded: %+v", reviewed)
	}

	// Second review of the same id must not find a pending row.
	if _, err := repo.Review(ctx, tx, row.ID, types.SuggestionStatusRejected, "reviewer-2", nil); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second review, got %v", err)
	}

	pending, err := repo.ListPendingByStudent(ctx, tx, student)
	if err != nil {
		t.Fatalf("ListPendingByStudent: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("reviewed suggestion still listed as pending")
	}
}

func TestSuggestionRepoExpirePending(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewSuggestionRepo(db, testutil.Logger(t))

	student := uuid.New()
	stale := testutil.SeedSuggestion(t, ctx, tx, student, types.RecommendationLevelUp, time.Now().Add(-time.Minute))
	live := testutil.SeedSuggestion(t, ctx, tx, student, types.RecommendationEnrichment, time.Now().Add(time.Hour))

	n, err := repo.ExpirePending(ctx, tx, time.Now().UTC())
	if err != nil {
		t.Fatalf("ExpirePending: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired row, got %d", n)
	}

	got, err := repo.GetByID(ctx, tx, stale.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID stale: %v", err)
	}
	if got.Status != types.SuggestionStatusExpired {
		t.Fatalf("stale suggestion status = %s", got.Status)
	}

	// Expired suggestions are no longer actionable.
	if _, err := repo.Review(ctx, tx, stale.ID, types.SuggestionStatusAccepted, "reviewer", nil); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound reviewing expired suggestion, got %v", err)
	}

	// The live one is untouched and repeated sweeps are idempotent.
	if n, err := repo.ExpirePending(ctx, tx, time.Now().UTC()); err != nil || n != 0 {
		t.Fatalf("second sweep: n=%d err=%v", n, err)
	}
	gotLive, err := repo.GetByID(ctx, tx, live.ID)
	if err != nil || gotLive == nil || gotLive.Status != types.SuggestionStatusPending {
		t.Fatalf("live suggestion mutated: %+v err=%v", gotLive, err)
	}
}
