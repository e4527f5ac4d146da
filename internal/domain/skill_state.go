package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SkillState is the per-student-per-skill knowledge tracing record. Mastery is
// written only by the tracer's Bayes step; the Version column carries optimistic
// concurrency so two devices racing on the same skill cannot interleave updates.
type SkillState struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_student_subject_skill,unique" json:"student_id"`
	Subject   string    `gorm:"column:subject;not null;index:idx_student_subject_skill,unique" json:"subject"`
	Skill     string    `gorm:"column:skill;not null;index:idx_student_subject_skill,unique" json:"skill"`

	PInit  float64 `gorm:"column:p_init;not null" json:"p_init"`
	PLearn float64 `gorm:"column:p_learn;not null" json:"p_learn"`
	PGuess float64 `gorm:"column:p_guess;not null" json:"p_guess"`
	PSlip  float64 `gorm:"column:p_slip;not null" json:"p_slip"`

	Mastery         float64    `gorm:"column:mastery;not null" json:"mastery"`
	TotalAttempts   int        `gorm:"column:total_attempts;not null;default:0" json:"total_attempts"`
	CorrectAttempts int        `gorm:"column:correct_attempts;not null;default:0" json:"correct_attempts"`
	LastPracticed   *time.Time `gorm:"column:last_practiced" json:"last_practiced,omitempty"`

	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	Version  int64          `gorm:"column:version;not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SkillState) TableName() string { return "skill_states" }
