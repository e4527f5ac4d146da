package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lucavoss/adeptly-backend/internal/app"
	"github.com/lucavoss/adeptly-backend/internal/data/repos"
	types "github.com/lucavoss/adeptly-backend/internal/domain"
	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

type ReviewInput struct {
	SuggestionID uuid.UUID `json:"suggestion_id"`
	Decision     string    `json:"decision"`
	Reviewer     string    `json:"reviewer"`
	Notes        *string   `json:"notes,omitempty"`
}

// ReviewService is the human gate over model suggestions. A suggestion leaves
// pending exactly once; accepting one never rewrites tracer history.
type ReviewService interface {
	ListPending(ctx context.Context, studentID uuid.UUID) ([]*types.ModelSuggestion, error)
	Review(ctx context.Context, in ReviewInput) (*types.ModelSuggestion, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type reviewService struct {
	cfg         app.Config
	suggestions repos.SuggestionRepo
	now         func() time.Time
	log         *logger.Logger
}

func NewReviewService(cfg app.Config, suggestions repos.SuggestionRepo, baseLog *logger.Logger) ReviewService {
	return &reviewService{
		cfg:         cfg,
		suggestions: suggestions,
		now:         time.Now,
		log:         baseLog.With("service", "ReviewService"),
	}
}

func (s *reviewService) ListPending(ctx context.Context, studentID uuid.UUID) ([]*types.ModelSuggestion, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student_id is required", pkgerrors.ErrValidation)
	}
	return s.suggestions.ListPendingByStudent(ctx, nil, studentID)
}

func (s *reviewService) Review(ctx context.Context, in ReviewInput) (*types.ModelSuggestion, error) {
	if in.SuggestionID == uuid.Nil {
		return nil, fmt.Errorf("%w: suggestion_id is required", pkgerrors.ErrValidation)
	}
	if in.Reviewer == "" {
		return nil, fmt.Errorf("%w: reviewer is required", pkgerrors.ErrValidation)
	}
	if in.Decision != types.SuggestionStatusAccepted && in.Decision != types.SuggestionStatusRejected {
		return nil, fmt.Errorf("%w: decision must be accepted or rejected", pkgerrors.ErrValidation)
	}

	reviewed, err := s.suggestions.Review(ctx, nil, in.SuggestionID, in.Decision, in.Reviewer, in.Notes)
	if err != nil {
		return nil, err
	}
	s.log.Info("suggestion reviewed",
		"suggestion_id", in.SuggestionID,
		"decision", in.Decision,
		"reviewer", in.Reviewer)
	return reviewed, nil
}

func (s *reviewService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.suggestions.ExpirePending(ctx, nil, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("suggestions expired", "count", n)
	}
	return n, nil
}
