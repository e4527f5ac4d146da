package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lucavoss/adeptly-backend/internal/domain"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

// GradedStats aggregates the answered tasks of one session.
type GradedStats struct {
	Total        int
	Correct      int
	TotalSeconds float64
}

type TaskRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.LearningTask) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningTask, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.LearningTask, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.LearningTask) error

	// ShiftPositions makes room at fromPosition by renumbering every task at or
	// past it one step down the list. Relative order of existing tasks is kept.
	ShiftPositions(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, fromPosition int) error

	GradedStatsBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*GradedStats, error)
	SumTimeByStudentSubject(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) (float64, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (r *taskRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.LearningTask) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *taskRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningTask, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.LearningTask
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

func (r *taskRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.LearningTask, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.LearningTask
	if err := t.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *taskRepo) Update(ctx context.Context, tx *gorm.DB, row *types.LearningTask) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *taskRepo) ShiftPositions(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, fromPosition int) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.LearningTask{}).
		Where("session_id = ? AND position >= ?", sessionID, fromPosition).
		Update("position", gorm.Expr("position + 1")).Error
}

func (r *taskRepo) GradedStatsBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*GradedStats, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var row struct {
		Total        int64
		Correct      int64
		TotalSeconds float64
	}
	if err := t.WithContext(ctx).
		Model(&types.LearningTask{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0) AS correct, "+
				"COALESCE(SUM(time_spent_seconds), 0) AS total_seconds",
		).
		Where("session_id = ? AND correct IS NOT NULL", sessionID).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	return &GradedStats{
		Total:        int(row.Total),
		Correct:      int(row.Correct),
		TotalSeconds: row.TotalSeconds,
	}, nil
}

func (r *taskRepo) SumTimeByStudentSubject(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) (float64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var total float64
	if err := t.WithContext(ctx).
		Model(&types.LearningTask{}).
		Select("COALESCE(SUM(learning_tasks.time_spent_seconds), 0)").
		Joins("JOIN learning_sessions ON learning_sessions.id = learning_tasks.session_id").
		Where("learning_sessions.student_id = ? AND learning_sessions.subject = ?", studentID, subject).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
