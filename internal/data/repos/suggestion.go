package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lucavoss/adeptly-backend/internal/domain"
	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

type SuggestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ModelSuggestion) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ModelSuggestion, error)
	ListPendingByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.ModelSuggestion, error)
	HasPending(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, suggestionType, skill string) (bool, error)

	// Review flips a pending suggestion to accepted or rejected exactly once.
	// A suggestion that does not exist, was already reviewed, or has expired
	// yields ErrNotFound — reviews are not retryable.
	Review(ctx context.Context, tx *gorm.DB, id uuid.UUID, decision, reviewer string, notes *string) (*types.ModelSuggestion, error)

	// ExpirePending marks pending suggestions past their TTL as expired and
	// returns how many rows changed. Safe to run repeatedly.
	ExpirePending(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type suggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionRepo {
	return &suggestionRepo{db: db, log: baseLog.With("repo", "SuggestionRepo")}
}

func (r *suggestionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ModelSuggestion) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *suggestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ModelSuggestion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.ModelSuggestion
	if err := t.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *suggestionRepo) ListPendingByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.ModelSuggestion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ModelSuggestion
	if err := t.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, types.SuggestionStatusPending).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *suggestionRepo) HasPending(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, suggestionType, skill string) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).
		Model(&types.ModelSuggestion{}).
		Where("student_id = ? AND type = ? AND skill = ? AND status = ?",
			studentID, suggestionType, skill, types.SuggestionStatusPending).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *suggestionRepo) Review(ctx context.Context, tx *gorm.DB, id uuid.UUID, decision, reviewer string, notes *string) (*types.ModelSuggestion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	res := t.WithContext(ctx).
		Model(&types.ModelSuggestion{}).
		Where("id = ? AND status = ?", id, types.SuggestionStatusPending).
		Updates(map[string]interface{}{
			"status":       decision,
			"reviewed_by":  reviewer,
			"review_notes": notes,
			"reviewed_at":  now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.ErrNotFound
	}
	return r.GetByID(ctx, t, id)
}

func (r *suggestionRepo) ExpirePending(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Model(&types.ModelSuggestion{}).
		Where("status = ? AND expires_at < ?", types.SuggestionStatusPending, now).
		Updates(map[string]interface{}{
			"status":     types.SuggestionStatusExpired,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
