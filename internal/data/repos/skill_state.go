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

type SkillStateRepo interface {
	// GetOrCreate returns the row for (student, subject, skill), lazily creating
	// it from the given seed on first exposure.
	GetOrCreate(ctx context.Context, tx *gorm.DB, seed *types.SkillState) (*types.SkillState, error)
	Get(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject, skill string) (*types.SkillState, error)
	GetBySkills(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string, skills []string) ([]*types.SkillState, error)
	ListByStudentSubject(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) ([]*types.SkillState, error)
	ListPracticedSince(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.SkillState, error)

	// ApplyUpdate persists a tracer update under optimistic concurrency: the row
	// is written only if its version still matches, otherwise ErrConflict.
	ApplyUpdate(ctx context.Context, tx *gorm.DB, row *types.SkillState) error
}

type skillStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillStateRepo(db *gorm.DB, baseLog *logger.Logger) SkillStateRepo {
	return &skillStateRepo{db: db, log: baseLog.With("repo", "SkillStateRepo")}
}

func (r *skillStateRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, seed *types.SkillState) (*types.SkillState, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	existing, err := r.get(ctx, t, seed.StudentID, seed.Subject, seed.Skill)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if seed.ID == uuid.Nil {
		seed.ID = uuid.New()
	}
	if seed.Version == 0 {
		seed.Version = 1
	}
	if err := t.WithContext(ctx).Create(seed).Error; err != nil {
		// Lose the create race gracefully: another device may have seeded the
		// same (student, skill) pair between our read and write.
		if row, getErr := r.get(ctx, t, seed.StudentID, seed.Subject, seed.Skill); getErr == nil && row != nil {
			return row, nil
		}
		return nil, err
	}
	return seed, nil
}

func (r *skillStateRepo) Get(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject, skill string) (*types.SkillState, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	return r.get(ctx, t, studentID, subject, skill)
}

func (r *skillStateRepo) get(ctx context.Context, t *gorm.DB, studentID uuid.UUID, subject, skill string) (*types.SkillState, error) {
	var rows []*types.SkillState
	if err := t.WithContext(ctx).
		Where("student_id = ? AND subject = ? AND skill = ?", studentID, subject, skill).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *skillStateRepo) GetBySkills(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string, skills []string) ([]*types.SkillState, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SkillState
	if len(skills) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("student_id = ? AND subject = ? AND skill IN ?", studentID, subject, skills).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillStateRepo) ListByStudentSubject(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) ([]*types.SkillState, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SkillState
	if err := t.WithContext(ctx).
		Where("student_id = ? AND subject = ?", studentID, subject).
		Order("skill ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillStateRepo) ListPracticedSince(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.SkillState, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SkillState
	if err := t.WithContext(ctx).
		Where("last_practiced IS NOT NULL AND last_practiced >= ?", cutoff).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillStateRepo) ApplyUpdate(ctx context.Context, tx *gorm.DB, row *types.SkillState) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	currentVersion := row.Version
	res := t.WithContext(ctx).
		Model(&types.SkillState{}).
		Where("id = ? AND version = ?", row.ID, currentVersion).
		Updates(map[string]interface{}{
			"mastery":          row.Mastery,
			"total_attempts":   row.TotalAttempts,
			"correct_attempts": row.CorrectAttempts,
			"last_practiced":   row.LastPracticed,
			"p_learn":          row.PLearn,
			"p_guess":          row.PGuess,
			"p_slip":           row.PSlip,
			"version":          currentVersion + 1,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrConflict
	}
	row.Version = currentVersion + 1
	return nil
}
