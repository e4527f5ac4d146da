package domain

import (
	"time"

	"github.com/google/uuid"
)

// LiveSession is the ephemeral in-progress view of a session, held in the
// session cache under a TTL. Tasks live in an append-only durable log;
// TaskOrder plus Cursor carry the presentation order so splicing a scaffold or
// challenge task never shifts indexes out from under a concurrent reader.
type LiveSession struct {
	SessionID uuid.UUID `json:"session_id"`
	StudentID uuid.UUID `json:"student_id"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`

	TaskOrder []uuid.UUID `json:"task_order"`
	Cursor    int         `json:"cursor"`

	// RecentCorrect is the trailing correctness window the sequencer reads.
	RecentCorrect []bool `json:"recent_correct"`

	CorrectCount  int `json:"correct_count"`
	AnsweredCount int `json:"answered_count"`

	// Deadline is the wall-clock instant after which the session counts as
	// abandoned regardless of cache residency.
	Deadline time.Time `json:"deadline"`
}

// CurrentTaskID returns the task the student is expected to answer next, or
// uuid.Nil when the plan is exhausted.
func (s *LiveSession) CurrentTaskID() uuid.UUID {
	if s.Cursor < 0 || s.Cursor >= len(s.TaskOrder) {
		return uuid.Nil
	}
	return s.TaskOrder[s.Cursor]
}

// Expired reports whether the session deadline has passed at the given instant.
func (s *LiveSession) Expired(now time.Time) bool {
	return !s.Deadline.IsZero() && now.After(s.Deadline)
}
