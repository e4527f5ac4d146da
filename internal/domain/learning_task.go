package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TaskKindPlanned   = "planned"
	TaskKindScaffold  = "scaffold"
	TaskKindChallenge = "challenge"
)

// LearningTask is one task instance inside a session. Position is dense and
// ordered at presentation time but may be renumbered when a scaffold or
// challenge task is spliced in; answered tasks keep their relative order.
type LearningTask struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`

	Position   int     `gorm:"column:position;not null" json:"position"`
	Skill      string  `gorm:"column:skill;not null;index" json:"skill"`
	Difficulty float64 `gorm:"column:difficulty;not null" json:"difficulty"`
	Kind       string  `gorm:"column:kind;not null;default:planned" json:"kind"`

	// Content is the provider payload, opaque to the engine.
	Content datatypes.JSON `gorm:"type:jsonb;column:content" json:"content,omitempty"`

	// Response is the raw submitted payload kept for audit.
	Response datatypes.JSON `gorm:"type:jsonb;column:response" json:"response,omitempty"`
	Correct  *bool          `gorm:"column:correct" json:"correct,omitempty"`
	HintUsed bool           `gorm:"column:hint_used;not null;default:false" json:"hint_used"`

	// Confidence is the learner's self-reported certainty in [0,1], kept for audit.
	Confidence *float64 `gorm:"column:confidence" json:"confidence,omitempty"`

	// PriorMastery/PosteriorMastery are the tracer's input/output pair for audit.
	PriorMastery     *float64 `gorm:"column:prior_mastery" json:"prior_mastery,omitempty"`
	PosteriorMastery *float64 `gorm:"column:posterior_mastery" json:"posterior_mastery,omitempty"`

	TimeSpentSeconds *float64   `gorm:"column:time_spent_seconds" json:"time_spent_seconds,omitempty"`
	AnsweredAt       *time.Time `gorm:"column:answered_at" json:"answered_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LearningTask) TableName() string { return "learning_tasks" }
