// Package content is the boundary to the external task-content provider. The
// engine only ever asks for "a task on this skill at this difficulty" and
// treats the returned payload as opaque.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// Task is one generated problem instance.
type Task struct {
	Skill      string          `json:"skill"`
	Difficulty float64         `json:"difficulty"`
	Prompt     string          `json:"prompt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type Provider interface {
	GetTask(ctx context.Context, skill string, difficulty float64) (*Task, error)
}

// StaticProvider serves deterministic template tasks. It doubles as the
// fallback bank when the real provider times out.
type StaticProvider struct{}

func NewStaticProvider() *StaticProvider { return &StaticProvider{} }

func (p *StaticProvider) GetTask(ctx context.Context, skill string, difficulty float64) (*Task, error) {
	if skill == "" {
		return nil, fmt.Errorf("skill required")
	}
	difficulty = clampDifficulty(difficulty)
	band := difficultyBand(difficulty)
	payload, _ := json.Marshal(map[string]interface{}{
		"skill":      skill,
		"difficulty": difficulty,
		"band":       band,
		"source":     "static",
	})
	return &Task{
		Skill:      skill,
		Difficulty: difficulty,
		Prompt:     fmt.Sprintf("Solve a %s problem on %s.", band, skill),
		Payload:    payload,
	}, nil
}

func difficultyBand(d float64) string {
	switch {
	case d < 0.35:
		return "foundational"
	case d < 0.7:
		return "standard"
	default:
		return "advanced"
	}
}

func clampDifficulty(d float64) float64 {
	if math.IsNaN(d) {
		return 0.5
	}
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}
