package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucavoss/adeptly-backend/internal/data/repos"
	"github.com/lucavoss/adeptly-backend/internal/data/repos/testutil"
	types "github.com/lucavoss/adeptly-backend/internal/domain"
	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
)

func newTestReview(t *testing.T) (*reviewService, *gorm.DB, *fakeClock) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	repo := repos.NewSuggestionRepo(tx, log)
	clock := &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := NewReviewService(quietConfig(), repo, log).(*reviewService)
	svc.now = clock.Now
	return svc, tx, clock
}

func TestReviewAcceptsExactlyOnce(t *testing.T) {
	svc, tx, clock := newTestReview(t)
	ctx := context.Background()
	student := uuid.New()

	sug := testutil.SeedSuggestion(t, ctx, tx, student, types.RecommendationAdvanceSkill, clock.Now().Add(time.Hour))

	reviewed, err := svc.Review(ctx, ReviewInput{
		SuggestionID: sug.ID,
		Decision:     types.SuggestionStatusAccepted,
		Reviewer:     "teacher-1",
		Notes:        testutil.PtrString("looks right"),
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != types.SuggestionStatusAccepted {
		t.Fatalf("expected accepted, got %s", reviewed.Status)
	}
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != "teacher-1" {
		t.Fatalf("reviewer not recorded: %+v", reviewed.ReviewedBy)
	}

	// A second verdict on the same suggestion is not retryable.
	_, err = svc.Review(ctx, ReviewInput{
		SuggestionID: sug.ID,
		Decision:     types.SuggestionStatusRejected,
		Reviewer:     "teacher-2",
	})
	if !pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("second review must fail with ErrNotFound, got %v", err)
	}
}

func TestReviewValidatesInput(t *testing.T) {
	svc, _, _ := newTestReview(t)
	ctx := context.Background()

	cases := []ReviewInput{
		{Decision: types.SuggestionStatusAccepted, Reviewer: "t"},
		{SuggestionID: uuid.New(), Reviewer: "t", Decision: "maybe"},
		{SuggestionID: uuid.New(), Decision: types.SuggestionStatusAccepted},
	}
	for _, in := range cases {
		if _, err := svc.Review(ctx, in); !pkgerrors.Is(err, pkgerrors.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
}

func TestExpireStaleClosesOverdueSuggestions(t *testing.T) {
	svc, tx, clock := newTestReview(t)
	ctx := context.Background()
	student := uuid.New()

	overdue := testutil.SeedSuggestion(t, ctx, tx, student, types.RecommendationLevelUp, clock.Now().Add(-time.Hour))
	fresh := testutil.SeedSuggestion(t, ctx, tx, student, types.RecommendationEnrichment, clock.Now().Add(time.Hour))

	n, err := svc.ExpireStale(ctx)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}

	// The overdue one is no longer reviewable; the fresh one still is.
	if _, err := svc.Review(ctx, ReviewInput{
		SuggestionID: overdue.ID,
		Decision:     types.SuggestionStatusAccepted,
		Reviewer:     "teacher-1",
	}); !pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expired suggestion must not be reviewable, got %v", err)
	}
	if _, err := svc.Review(ctx, ReviewInput{
		SuggestionID: fresh.ID,
		Decision:     types.SuggestionStatusRejected,
		Reviewer:     "teacher-1",
	}); err != nil {
		t.Fatalf("fresh suggestion review: %v", err)
	}
}
