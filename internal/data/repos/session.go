package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lucavoss/adeptly-backend/internal/domain"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.LearningSession) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningSession, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.LearningSession) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) ([]*types.LearningSession, error)

	// ListStaleOpen finds sessions still active or paused whose last write is
	// older than the cutoff; the expiry sweep finalizes them as abandoned.
	ListStaleOpen(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*types.LearningSession, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.LearningSession) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.LearningSession
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

func (r *sessionRepo) Update(ctx context.Context, tx *gorm.DB, row *types.LearningSession) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *sessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.LearningSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *sessionRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) ([]*types.LearningSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).Where("student_id = ?", studentID)
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}
	var out []*types.LearningSession
	if err := q.Order("started_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) ListStaleOpen(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*types.LearningSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.LearningSession
	if err := t.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []string{types.SessionStatusActive, types.SessionStatusPaused}, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
