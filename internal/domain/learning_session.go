package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SessionStatusActive    = "active"
	SessionStatusPaused    = "paused"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// LearningSession is the durable record of one learning engagement. Once the
// status reaches completed or abandoned the row is immutable history.
type LearningSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	Subject   string    `gorm:"column:subject;not null;index" json:"subject"`
	Grade     *int      `gorm:"column:grade" json:"grade,omitempty"`

	Status         string `gorm:"column:status;not null;index" json:"status"`
	PlannedMinutes int    `gorm:"column:planned_minutes;not null" json:"planned_minutes"`

	// TargetSkills is the ordered skill list chosen at start ([]string).
	TargetSkills datatypes.JSON `gorm:"type:jsonb;column:target_skills" json:"target_skills"`

	// InitialMastery and FinalMastery are per-skill snapshots (map[string]float64).
	InitialMastery datatypes.JSON `gorm:"type:jsonb;column:initial_mastery" json:"initial_mastery,omitempty"`
	FinalMastery   datatypes.JSON `gorm:"type:jsonb;column:final_mastery" json:"final_mastery,omitempty"`

	TotalTasks   int     `gorm:"column:total_tasks;not null;default:0" json:"total_tasks"`
	CorrectTasks int     `gorm:"column:correct_tasks;not null;default:0" json:"correct_tasks"`
	Accuracy     float64 `gorm:"column:accuracy;not null;default:0" json:"accuracy"`

	StartedAt time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (LearningSession) TableName() string { return "learning_sessions" }
