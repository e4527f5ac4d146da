package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

type slowProvider struct {
	delay time.Duration
}

func (p *slowProvider) GetTask(ctx context.Context, skill string, difficulty float64) (*Task, error) {
	select {
	case <-time.After(p.delay):
		return &Task{Skill: skill, Difficulty: difficulty, Prompt: "upstream"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type failingProvider struct{}

func (p *failingProvider) GetTask(ctx context.Context, skill string, difficulty float64) (*Task, error) {
	return nil, errors.New("upstream exploded")
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestTimeoutProviderFallsBackOnTimeout(t *testing.T) {
	p := NewTimeoutProvider(&slowProvider{delay: time.Second}, 10*time.Millisecond, testLogger(t))
	task, err := p.GetTask(context.Background(), "addition", 0.5)
	if err != nil {
		t.Fatalf("timeout must be recovered locally, got error: %v", err)
	}
	if task == nil || task.Prompt == "upstream" {
		t.Fatalf("expected fallback task, got %+v", task)
	}
	if task.Skill != "addition" {
		t.Fatalf("fallback lost the skill: %+v", task)
	}
}

func TestTimeoutProviderPassesThroughFastUpstream(t *testing.T) {
	p := NewTimeoutProvider(&slowProvider{delay: time.Millisecond}, time.Second, testLogger(t))
	task, err := p.GetTask(context.Background(), "fractions", 0.7)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Prompt != "upstream" {
		t.Fatalf("expected upstream task, got %+v", task)
	}
}

func TestTimeoutProviderFallsBackOnUpstreamError(t *testing.T) {
	p := NewTimeoutProvider(&failingProvider{}, time.Second, testLogger(t))
	task, err := p.GetTask(context.Background(), "division", 0.4)
	if err != nil {
		t.Fatalf("upstream failure must be recovered locally, got: %v", err)
	}
	if task == nil || task.Skill != "division" {
		t.Fatalf("expected fallback task, got %+v", task)
	}
}
