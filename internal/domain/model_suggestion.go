package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SuggestionStatusPending  = "pending"
	SuggestionStatusAccepted = "accepted"
	SuggestionStatusRejected = "rejected"
	SuggestionStatusExpired  = "expired"
)

const (
	RecommendationAdvanceSkill   = "advance_skill"
	RecommendationLevelUp        = "level_up"
	RecommendationLevelDown      = "level_down"
	RecommendationRemediation    = "remediation"
	RecommendationEnrichment     = "enrichment"
	RecommendationChangeApproach = "change_approach"
	RecommendationBreak          = "break"
	RecommendationMaintain       = "maintain"
)

const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// ModelSuggestion is one recommender decision persisted for human or policy
// review. It transitions out of pending exactly once; review never rewrites the
// mastery history that produced it.
type ModelSuggestion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	Subject   string    `gorm:"column:subject;not null" json:"subject"`
	Skill     string    `gorm:"column:skill;not null" json:"skill"`

	Type             string  `gorm:"column:type;not null" json:"type"`
	CurrentLevel     int     `gorm:"column:current_level;not null;default:0" json:"current_level"`
	CurrentMastery   float64 `gorm:"column:current_mastery;not null;default:0" json:"current_mastery"`
	RecommendedLevel int     `gorm:"column:recommended_level;not null;default:0" json:"recommended_level"`
	TargetSkill      string  `gorm:"column:target_skill" json:"target_skill,omitempty"`

	Confidence float64        `gorm:"column:confidence;not null" json:"confidence"`
	Reasoning  string         `gorm:"column:reasoning;type:text" json:"reasoning"`
	Evidence   datatypes.JSON `gorm:"type:jsonb;column:evidence" json:"evidence,omitempty"`
	Actions    datatypes.JSON `gorm:"type:jsonb;column:actions" json:"actions,omitempty"`
	Priority   string         `gorm:"column:priority;not null;default:medium" json:"priority"`

	Status      string     `gorm:"column:status;not null;default:pending;index" json:"status"`
	ReviewedBy  *string    `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNotes *string    `gorm:"column:review_notes;type:text" json:"review_notes,omitempty"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`

	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ModelSuggestion) TableName() string { return "model_suggestions" }
