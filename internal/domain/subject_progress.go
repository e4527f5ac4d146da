package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubjectProgress is a derived per-student-per-subject rollup. It is not
// authoritative and is always reconstructible from skill states plus session
// history; the recompute job overwrites it periodically.
type SubjectProgress struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index:idx_student_subject_progress,unique" json:"student_id"`
	Subject   string    `gorm:"column:subject;not null;index:idx_student_subject_progress,unique" json:"subject"`

	SkillsMastered   int `gorm:"column:skills_mastered;not null;default:0" json:"skills_mastered"`
	SkillsInProgress int `gorm:"column:skills_in_progress;not null;default:0" json:"skills_in_progress"`
	SkillsStruggling int `gorm:"column:skills_struggling;not null;default:0" json:"skills_struggling"`

	TotalPracticeSeconds float64 `gorm:"column:total_practice_seconds;not null;default:0" json:"total_practice_seconds"`
	OverallAccuracy      float64 `gorm:"column:overall_accuracy;not null;default:0" json:"overall_accuracy"`

	ComputedAt time.Time `gorm:"column:computed_at;not null" json:"computed_at"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SubjectProgress) TableName() string { return "subject_progress" }
