package content

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

// TimeoutProvider awaits a slow upstream with a deadline and falls back to the
// static bank when it misses. A timeout is logged, never surfaced: sessions
// must not stall on content generation.
type TimeoutProvider struct {
	upstream Provider
	fallback Provider
	timeout  time.Duration
	log      *logger.Logger
}

func NewTimeoutProvider(upstream Provider, timeout time.Duration, baseLog *logger.Logger) *TimeoutProvider {
	return &TimeoutProvider{
		upstream: upstream,
		fallback: NewStaticProvider(),
		timeout:  timeout,
		log:      baseLog.With("service", "ContentProvider"),
	}
}

func (p *TimeoutProvider) GetTask(ctx context.Context, skill string, difficulty float64) (*Task, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		task *Task
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		task, err := p.upstream.GetTask(callCtx, skill, difficulty)
		ch <- result{task: task, err: err}
	}()

	select {
	case res := <-ch:
		if res.err == nil && res.task != nil {
			return res.task, nil
		}
		if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, pkgerrors.ErrUpstreamTimeout) {
			p.log.Warn("content provider timed out, serving fallback task", "skill", skill, "difficulty", difficulty)
		} else {
			p.log.Warn("content provider failed, serving fallback task", "skill", skill, "error", res.err)
		}
		return p.fallback.GetTask(ctx, skill, difficulty)
	case <-callCtx.Done():
		p.log.Warn("content provider timed out, serving fallback task", "skill", skill, "difficulty", difficulty)
		return p.fallback.GetTask(ctx, skill, difficulty)
	}
}
