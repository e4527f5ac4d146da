package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lucavoss/adeptly-backend/internal/domain"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

type SubjectProgressRepo interface {
	Get(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) (*types.SubjectProgress, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.SubjectProgress) error
}

type subjectProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubjectProgressRepo(db *gorm.DB, baseLog *logger.Logger) SubjectProgressRepo {
	return &subjectProgressRepo{db: db, log: baseLog.With("repo", "SubjectProgressRepo")}
}

func (r *subjectProgressRepo) Get(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) (*types.SubjectProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.SubjectProgress
	if err := t.WithContext(ctx).
		Where("student_id = ? AND subject = ?", studentID, subject).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *subjectProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.SubjectProgress) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	existing, err := r.Get(ctx, t, row.StudentID, row.Subject)
	if err != nil {
		return err
	}
	if existing == nil {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		return t.WithContext(ctx).Create(row).Error
	}
	return t.WithContext(ctx).
		Model(&types.SubjectProgress{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"skills_mastered":        row.SkillsMastered,
			"skills_in_progress":     row.SkillsInProgress,
			"skills_struggling":      row.SkillsStruggling,
			"total_practice_seconds": row.TotalPracticeSeconds,
			"overall_accuracy":       row.OverallAccuracy,
			"computed_at":            row.ComputedAt,
			"updated_at":             time.Now().UTC(),
		}).Error
}
