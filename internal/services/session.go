package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/lucavoss/adeptly-backend/internal/app"
	redisclient "github.com/lucavoss/adeptly-backend/internal/clients/redis"
	"github.com/lucavoss/adeptly-backend/internal/content"
	"github.com/lucavoss/adeptly-backend/internal/data/repos"
	types "github.com/lucavoss/adeptly-backend/internal/domain"
	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
	"github.com/lucavoss/adeptly-backend/internal/tracer"
)

// recentWindowCap bounds the trailing correctness window carried in the live
// session; the sequencer only ever reads the configured tail of it.
const recentWindowCap = 10

type StartSessionInput struct {
	StudentID uuid.UUID `json:"student_id"`
	Subject   string    `json:"subject"`
	Grade     *int      `json:"grade,omitempty"`
	Minutes   int       `json:"minutes"`
	Skills    []string  `json:"skills,omitempty"`
}

type SubmitInput struct {
	SessionID        uuid.UUID      `json:"session_id"`
	TaskID           uuid.UUID      `json:"task_id"`
	Correct          *bool          `json:"correct"`
	HintUsed         bool           `json:"hint_used"`
	Confidence       *float64       `json:"confidence,omitempty"`
	Response         datatypes.JSON `json:"response,omitempty"`
	TimeSpentSeconds *float64       `json:"time_spent_seconds,omitempty"`
}

// TaskView is the client-facing shape of one task in the queue.
type TaskView struct {
	TaskID     uuid.UUID      `json:"task_id"`
	Position   int            `json:"position"`
	Skill      string         `json:"skill"`
	Difficulty float64        `json:"difficulty"`
	Kind       string         `json:"kind"`
	Content    datatypes.JSON `json:"content,omitempty"`
}

type StartSessionResult struct {
	SessionID  uuid.UUID `json:"session_id"`
	TotalTasks int       `json:"total_tasks"`
	FirstTask  *TaskView `json:"first_task"`
}

type SessionSummary struct {
	SessionID    uuid.UUID          `json:"session_id"`
	Status       string             `json:"status"`
	TotalTasks   int                `json:"total_tasks"`
	CorrectTasks int                `json:"correct_tasks"`
	Accuracy     float64            `json:"accuracy"`
	FinalMastery map[string]float64 `json:"final_mastery,omitempty"`
}

type SubmitResult struct {
	TaskID           uuid.UUID       `json:"task_id"`
	Correct          bool            `json:"correct"`
	PriorMastery     float64         `json:"prior_mastery"`
	PosteriorMastery float64         `json:"posterior_mastery"`
	Action           string          `json:"action"`
	Completed        bool            `json:"completed"`
	NextTask         *TaskView       `json:"next_task,omitempty"`
	Answered         int             `json:"answered"`
	Remaining        int             `json:"remaining"`
	Summary          *SessionSummary `json:"summary,omitempty"`
}

// SessionView combines the durable record with, while the session is live,
// the in-flight queue state.
type SessionView struct {
	Session     *types.LearningSession `json:"session"`
	Live        *types.LiveSession     `json:"live,omitempty"`
	CurrentTask *TaskView              `json:"current_task,omitempty"`
}

// SessionService drives the session lifecycle: plan, answer one task at a
// time in order, pause or resume, and close out exactly once.
type SessionService interface {
	Start(ctx context.Context, in StartSessionInput) (*StartSessionResult, error)
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	Pause(ctx context.Context, sessionID uuid.UUID) error
	Resume(ctx context.Context, sessionID uuid.UUID) (*TaskView, error)
	Abandon(ctx context.Context, sessionID uuid.UUID) (*SessionSummary, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*SessionView, error)

	// FinalizeExpired closes a session the expiry sweep found stale. It
	// re-checks liveness under the session lock so a racing submit wins.
	FinalizeExpired(ctx context.Context, sessionID uuid.UUID) error
}

type sessionService struct {
	cfg         app.Config
	states      repos.SkillStateRepo
	sessions    repos.SessionRepo
	tasks       repos.TaskRepo
	suggestions repos.SuggestionRepo
	cache       redisclient.SessionCache
	provider    content.Provider
	sequencer   *Sequencer
	locks       *sessionLocks
	now         func() time.Time
	log         *logger.Logger
}

func NewSessionService(
	cfg app.Config,
	states repos.SkillStateRepo,
	sessions repos.SessionRepo,
	tasks repos.TaskRepo,
	suggestions repos.SuggestionRepo,
	cache redisclient.SessionCache,
	provider content.Provider,
	sequencer *Sequencer,
	baseLog *logger.Logger,
) SessionService {
	return &sessionService{
		cfg:         cfg,
		states:      states,
		sessions:    sessions,
		tasks:       tasks,
		suggestions: suggestions,
		cache:       cache,
		provider:    provider,
		sequencer:   sequencer,
		locks:       newSessionLocks(),
		now:         time.Now,
		log:         baseLog.With("service", "SessionService"),
	}
}

func (s *sessionService) Start(ctx context.Context, in StartSessionInput) (*StartSessionResult, error) {
	if in.StudentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student_id is required", pkgerrors.ErrValidation)
	}
	if in.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", pkgerrors.ErrValidation)
	}
	if in.Minutes <= 0 {
		return nil, fmt.Errorf("%w: minutes must be positive", pkgerrors.ErrValidation)
	}
	skills := in.Skills
	if len(skills) == 0 {
		skills = s.cfg.DefaultSkills
	}
	if len(skills) == 0 {
		skills = types.DefaultSkillOrder()
	}

	now := s.now().UTC()

	states := make([]*types.SkillState, 0, len(skills))
	initial := make(map[string]float64, len(skills))
	for _, skill := range skills {
		p := tracer.DefaultParams()
		st, err := s.states.GetOrCreate(ctx, nil, &types.SkillState{
			StudentID: in.StudentID,
			Subject:   in.Subject,
			Skill:     skill,
			PInit:     p.PInit,
			PLearn:    p.PLearn,
			PGuess:    p.PGuess,
			PSlip:     p.PSlip,
			Mastery:   p.PInit,
		})
		if err != nil {
			return nil, err
		}
		states = append(states, st)
		initial[skill] = st.Mastery
	}

	plan := s.zpdOrder(states)

	taskCount := in.Minutes * 60 / s.cfg.SecondsPerTask
	if taskCount < 1 {
		taskCount = 1
	}

	sessionID := uuid.New()
	rows := make([]*types.LearningTask, 0, taskCount)
	order := make([]uuid.UUID, 0, taskCount)
	for i := 0; i < taskCount; i++ {
		st := plan[i%len(plan)]
		difficulty := s.difficultyFor(st.Mastery)
		generated, err := s.provider.GetTask(ctx, st.Skill, difficulty)
		if err != nil {
			return nil, fmt.Errorf("generate task for %s: %w", st.Skill, err)
		}
		payload, err := json.Marshal(generated)
		if err != nil {
			return nil, err
		}
		row := &types.LearningTask{
			ID:         uuid.New(),
			SessionID:  sessionID,
			Position:   i,
			Skill:      st.Skill,
			Difficulty: difficulty,
			Kind:       types.TaskKindPlanned,
			Content:    datatypes.JSON(payload),
		}
		rows = append(rows, row)
		order = append(order, row.ID)
	}

	targetSkills, err := jsonStrings(skills)
	if err != nil {
		return nil, err
	}
	initialJSON, err := jsonMap(initial)
	if err != nil {
		return nil, err
	}
	sess := &types.LearningSession{
		ID:             sessionID,
		StudentID:      in.StudentID,
		Subject:        in.Subject,
		Grade:          in.Grade,
		Status:         types.SessionStatusActive,
		PlannedMinutes: in.Minutes,
		TargetSkills:   targetSkills,
		InitialMastery: initialJSON,
		StartedAt:      now,
	}
	if err := s.sessions.Create(ctx, nil, sess); err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, nil, rows); err != nil {
		return nil, err
	}

	live := &types.LiveSession{
		SessionID: sessionID,
		StudentID: in.StudentID,
		Subject:   in.Subject,
		Status:    types.SessionStatusActive,
		TaskOrder: order,
		Cursor:    0,
		Deadline:  now.Add(s.cfg.MaxSessionTTL),
	}
	if err := s.cache.Set(ctx, live, s.cfg.MaxSessionTTL); err != nil {
		return nil, err
	}

	s.log.Info("session started",
		"session_id", sessionID,
		"student_id", in.StudentID,
		"subject", in.Subject,
		"tasks", taskCount)

	return &StartSessionResult{
		SessionID:  sessionID,
		TotalTasks: taskCount,
		FirstTask:  taskView(rows[0]),
	}, nil
}

func (s *sessionService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.Correct == nil {
		return nil, fmt.Errorf("%w: correct is required", pkgerrors.ErrValidation)
	}
	if in.Confidence != nil && (*in.Confidence < 0 || *in.Confidence > 1) {
		return nil, fmt.Errorf("%w: confidence must be within [0,1]", pkgerrors.ErrValidation)
	}
	unlock := s.locks.acquire(in.SessionID)
	defer unlock()

	live, err := s.liveOrFinalize(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if live.Status == types.SessionStatusPaused {
		return nil, fmt.Errorf("%w: session is paused", pkgerrors.ErrInvalidState)
	}

	cur := live.CurrentTaskID()
	if cur == uuid.Nil || cur != in.TaskID {
		return nil, fmt.Errorf("%w: expected task %s", pkgerrors.ErrOutOfSequence, cur)
	}

	task, err := s.tasks.GetByID(ctx, nil, in.TaskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %s", pkgerrors.ErrNotFound, in.TaskID)
	}

	correct := *in.Correct
	now := s.now().UTC()

	prior, posterior, err := s.applyTracerUpdate(ctx, live, task.Skill, correct, in.HintUsed, now)
	if err != nil {
		return nil, err
	}

	task.Correct = in.Correct
	task.HintUsed = in.HintUsed
	task.Confidence = in.Confidence
	task.Response = in.Response
	task.PriorMastery = &prior
	task.PosteriorMastery = &posterior
	task.TimeSpentSeconds = in.TimeSpentSeconds
	task.AnsweredAt = &now
	if err := s.tasks.Update(ctx, nil, task); err != nil {
		return nil, err
	}

	live.AnsweredCount++
	if correct {
		live.CorrectCount++
	}
	live.RecentCorrect = append(live.RecentCorrect, correct)
	if len(live.RecentCorrect) > recentWindowCap {
		live.RecentCorrect = live.RecentCorrect[len(live.RecentCorrect)-recentWindowCap:]
	}

	s.maybeSuggestAdvance(ctx, live, task.Skill, prior, posterior)

	decision := s.sequencer.Decide(correct, posterior, task.Difficulty, live.RecentCorrect)
	if decision.Action != ActionContinue {
		if err := s.insertDynamicTask(ctx, live, task, decision); err != nil {
			return nil, err
		}
	}
	live.Cursor++

	result := &SubmitResult{
		TaskID:           task.ID,
		Correct:          correct,
		PriorMastery:     prior,
		PosteriorMastery: posterior,
		Action:           decision.Action,
		Answered:         live.AnsweredCount,
		Remaining:        len(live.TaskOrder) - live.Cursor,
	}

	if live.Cursor >= len(live.TaskOrder) {
		summary, err := s.finalize(ctx, live.SessionID, types.SessionStatusCompleted)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Delete(ctx, live.SessionID); err != nil {
			s.log.Warn("stale live session left in cache", "session_id", live.SessionID, "error", err)
		}
		result.Completed = true
		result.Summary = summary
		return result, nil
	}

	if err := s.cache.Set(ctx, live, live.Deadline.Sub(now)); err != nil {
		return nil, err
	}
	next, err := s.tasks.GetByID(ctx, nil, live.CurrentTaskID())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("%w: task %s", pkgerrors.ErrNotFound, live.CurrentTaskID())
	}
	result.NextTask = taskView(next)
	return result, nil
}

func (s *sessionService) Pause(ctx context.Context, sessionID uuid.UUID) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	live, err := s.liveOrFinalize(ctx, sessionID)
	if err != nil {
		return err
	}
	if live.Status != types.SessionStatusActive {
		return fmt.Errorf("%w: only an active session can pause", pkgerrors.ErrInvalidState)
	}
	live.Status = types.SessionStatusPaused
	if err := s.cache.Set(ctx, live, live.Deadline.Sub(s.now().UTC())); err != nil {
		return err
	}
	return s.sessions.UpdateFields(ctx, nil, sessionID, map[string]interface{}{
		"status":     types.SessionStatusPaused,
		"updated_at": s.now().UTC(),
	})
}

func (s *sessionService) Resume(ctx context.Context, sessionID uuid.UUID) (*TaskView, error) {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	live, err := s.liveOrFinalize(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if live.Status != types.SessionStatusPaused {
		return nil, fmt.Errorf("%w: only a paused session can resume", pkgerrors.ErrInvalidState)
	}
	live.Status = types.SessionStatusActive
	if err := s.cache.Set(ctx, live, live.Deadline.Sub(s.now().UTC())); err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateFields(ctx, nil, sessionID, map[string]interface{}{
		"status":     types.SessionStatusActive,
		"updated_at": s.now().UTC(),
	}); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, nil, live.CurrentTaskID())
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %s", pkgerrors.ErrNotFound, live.CurrentTaskID())
	}
	return taskView(task), nil
}

func (s *sessionService) Abandon(ctx context.Context, sessionID uuid.UUID) (*SessionSummary, error) {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	sess, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session %s", pkgerrors.ErrNotFound, sessionID)
	}
	if sess.Status == types.SessionStatusCompleted || sess.Status == types.SessionStatusAbandoned {
		return nil, fmt.Errorf("%w: session already %s", pkgerrors.ErrInvalidState, sess.Status)
	}
	summary, err := s.finalize(ctx, sessionID, types.SessionStatusAbandoned)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.Warn("stale live session left in cache", "session_id", sessionID, "error", err)
	}
	return summary, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID uuid.UUID) (*SessionView, error) {
	sess, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session %s", pkgerrors.ErrNotFound, sessionID)
	}
	view := &SessionView{Session: sess}

	live, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if live == nil || live.Expired(s.now().UTC()) {
		return view, nil
	}
	view.Live = live
	if id := live.CurrentTaskID(); id != uuid.Nil {
		task, err := s.tasks.GetByID(ctx, nil, id)
		if err != nil {
			return nil, err
		}
		view.CurrentTask = taskView(task)
	}
	return view, nil
}

func (s *sessionService) FinalizeExpired(ctx context.Context, sessionID uuid.UUID) error {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	live, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if live != nil && !live.Expired(s.now().UTC()) {
		// A submit beat the sweep to the lock; the session is still alive.
		return nil
	}
	if _, err := s.finalize(ctx, sessionID, types.SessionStatusAbandoned); err != nil {
		return err
	}
	return s.cache.Delete(ctx, sessionID)
}

// liveOrFinalize loads the live session, closing out the durable record as
// abandoned when the cache entry is gone or past deadline. Callers hold the
// session lock.
func (s *sessionService) liveOrFinalize(ctx context.Context, sessionID uuid.UUID) (*types.LiveSession, error) {
	live, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if live == nil {
		sess, err := s.sessions.GetByID(ctx, nil, sessionID)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			return nil, fmt.Errorf("%w: session %s", pkgerrors.ErrNotFound, sessionID)
		}
		if sess.Status == types.SessionStatusActive || sess.Status == types.SessionStatusPaused {
			if _, err := s.finalize(ctx, sessionID, types.SessionStatusAbandoned); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: session %s is no longer live", pkgerrors.ErrNotFound, sessionID)
	}
	if live.Expired(s.now().UTC()) {
		if _, err := s.finalize(ctx, sessionID, types.SessionStatusAbandoned); err != nil {
			return nil, err
		}
		if err := s.cache.Delete(ctx, sessionID); err != nil {
			s.log.Warn("stale live session left in cache", "session_id", sessionID, "error", err)
		}
		return nil, fmt.Errorf("%w: session %s expired", pkgerrors.ErrNotFound, sessionID)
	}
	return live, nil
}

// applyTracerUpdate runs one BKT step against the durable skill state under
// optimistic concurrency, retrying once from a fresh read on version conflict.
func (s *sessionService) applyTracerUpdate(ctx context.Context, live *types.LiveSession, skill string, correct, hintUsed bool, now time.Time) (prior, posterior float64, err error) {
	obs := tracer.Observation{Correct: correct, HintUsed: hintUsed}

	for attempt := 0; attempt < 2; attempt++ {
		state, gerr := s.states.Get(ctx, nil, live.StudentID, live.Subject, skill)
		if gerr != nil {
			return 0, 0, gerr
		}
		if state == nil {
			return 0, 0, fmt.Errorf("%w: skill state for %s", pkgerrors.ErrNotFound, skill)
		}
		prior = state.Mastery
		posterior = tracer.Update(prior, tracer.Params{
			PInit:  state.PInit,
			PLearn: state.PLearn,
			PGuess: state.PGuess,
			PSlip:  state.PSlip,
		}, obs)

		state.Mastery = posterior
		state.TotalAttempts++
		if correct {
			state.CorrectAttempts++
		}
		state.LastPracticed = &now

		uerr := s.states.ApplyUpdate(ctx, nil, state)
		if uerr == nil {
			return prior, posterior, nil
		}
		if !pkgerrors.Is(uerr, pkgerrors.ErrConflict) {
			return 0, 0, uerr
		}
		s.log.Warn("skill state version conflict, retrying from fresh read",
			"student_id", live.StudentID, "skill", skill)
	}
	return 0, 0, fmt.Errorf("%w: skill state for %s kept changing", pkgerrors.ErrConflict, skill)
}

// maybeSuggestAdvance records an advancement suggestion when the tracer just
// crossed the threshold. Failure here never fails the submit.
func (s *sessionService) maybeSuggestAdvance(ctx context.Context, live *types.LiveSession, skill string, prior, posterior float64) {
	sug := s.sequencer.AdvanceSuggestion(live.StudentID, live.Subject, skill, prior, posterior)
	if sug == nil {
		return
	}
	open, err := s.suggestions.HasPending(ctx, nil, live.StudentID, types.RecommendationAdvanceSkill, skill)
	if err != nil {
		s.log.Warn("pending suggestion check failed", "student_id", live.StudentID, "error", err)
		return
	}
	if open {
		return
	}
	if err := s.suggestions.Create(ctx, nil, sug); err != nil {
		s.log.Warn("advance suggestion not recorded", "student_id", live.StudentID, "error", err)
	}
}

// insertDynamicTask splices a scaffold or challenge task directly after the
// one just answered, renumbering durable positions and the live order alike.
func (s *sessionService) insertDynamicTask(ctx context.Context, live *types.LiveSession, after *types.LearningTask, decision SequencerDecision) error {
	kind := types.TaskKindScaffold
	if decision.Action == ActionChallenge {
		kind = types.TaskKindChallenge
	}

	generated, err := s.provider.GetTask(ctx, after.Skill, decision.Difficulty)
	if err != nil {
		return fmt.Errorf("generate %s task: %w", kind, err)
	}
	payload, err := json.Marshal(generated)
	if err != nil {
		return err
	}

	insertAt := after.Position + 1
	if err := s.tasks.ShiftPositions(ctx, nil, live.SessionID, insertAt); err != nil {
		return err
	}
	row := &types.LearningTask{
		ID:         uuid.New(),
		SessionID:  live.SessionID,
		Position:   insertAt,
		Skill:      after.Skill,
		Difficulty: decision.Difficulty,
		Kind:       kind,
		Content:    datatypes.JSON(payload),
	}
	if err := s.tasks.Create(ctx, nil, []*types.LearningTask{row}); err != nil {
		return err
	}

	order := make([]uuid.UUID, 0, len(live.TaskOrder)+1)
	order = append(order, live.TaskOrder[:live.Cursor+1]...)
	order = append(order, row.ID)
	order = append(order, live.TaskOrder[live.Cursor+1:]...)
	live.TaskOrder = order

	s.log.Info("dynamic task inserted",
		"session_id", live.SessionID,
		"kind", kind,
		"skill", after.Skill,
		"difficulty", decision.Difficulty)
	return nil
}

// finalize writes the terminal snapshot exactly once; re-finalizing an already
// closed session returns its existing summary.
func (s *sessionService) finalize(ctx context.Context, sessionID uuid.UUID, status string) (*SessionSummary, error) {
	sess, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session %s", pkgerrors.ErrNotFound, sessionID)
	}
	if sess.Status == types.SessionStatusCompleted || sess.Status == types.SessionStatusAbandoned {
		return summaryFrom(sess), nil
	}

	stats, err := s.tasks.GradedStatsBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	accuracy := 0.0
	if stats.Total > 0 {
		accuracy = float64(stats.Correct) / float64(stats.Total)
	}

	var skills []string
	if len(sess.TargetSkills) > 0 {
		if err := json.Unmarshal(sess.TargetSkills, &skills); err != nil {
			return nil, fmt.Errorf("decode target skills: %w", err)
		}
	}
	final := map[string]float64{}
	if len(skills) > 0 {
		states, err := s.states.GetBySkills(ctx, nil, sess.StudentID, sess.Subject, skills)
		if err != nil {
			return nil, err
		}
		for _, st := range states {
			final[st.Skill] = st.Mastery
		}
	}
	finalJSON, err := jsonMap(final)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.sessions.UpdateFields(ctx, nil, sessionID, map[string]interface{}{
		"status":        status,
		"total_tasks":   stats.Total,
		"correct_tasks": stats.Correct,
		"accuracy":      accuracy,
		"final_mastery": finalJSON,
		"ended_at":      now,
		"updated_at":    now,
	}); err != nil {
		return nil, err
	}

	s.log.Info("session finalized",
		"session_id", sessionID,
		"status", status,
		"tasks", stats.Total,
		"accuracy", accuracy)

	return &SessionSummary{
		SessionID:    sessionID,
		Status:       status,
		TotalTasks:   stats.Total,
		CorrectTasks: stats.Correct,
		Accuracy:     accuracy,
		FinalMastery: final,
	}, nil
}

// zpdOrder sorts skill states for planning: skills inside the productive band
// first, then weaker ones, then mastered ones. Order within a group is kept.
func (s *sessionService) zpdOrder(states []*types.SkillState) []*types.SkillState {
	var zone, below, above []*types.SkillState
	for _, st := range states {
		switch {
		case st.Mastery >= s.cfg.ZPDLower && st.Mastery < s.cfg.ZPDUpper:
			zone = append(zone, st)
		case st.Mastery < s.cfg.ZPDLower:
			below = append(below, st)
		default:
			above = append(above, st)
		}
	}
	out := make([]*types.SkillState, 0, len(states))
	out = append(out, zone...)
	out = append(out, below...)
	out = append(out, above...)
	return out
}

func (s *sessionService) difficultyFor(mastery float64) float64 {
	d := s.cfg.MinDifficulty + mastery*(s.cfg.MaxDifficulty-s.cfg.MinDifficulty)
	if d < s.cfg.MinDifficulty {
		d = s.cfg.MinDifficulty
	}
	if d > s.cfg.MaxDifficulty {
		d = s.cfg.MaxDifficulty
	}
	return d
}

func taskView(t *types.LearningTask) *TaskView {
	return &TaskView{
		TaskID:     t.ID,
		Position:   t.Position,
		Skill:      t.Skill,
		Difficulty: t.Difficulty,
		Kind:       t.Kind,
		Content:    t.Content,
	}
}

func summaryFrom(sess *types.LearningSession) *SessionSummary {
	summary := &SessionSummary{
		SessionID:    sess.ID,
		Status:       sess.Status,
		TotalTasks:   sess.TotalTasks,
		CorrectTasks: sess.CorrectTasks,
		Accuracy:     sess.Accuracy,
	}
	if len(sess.FinalMastery) > 0 {
		var final map[string]float64
		if err := json.Unmarshal(sess.FinalMastery, &final); err == nil {
			summary.FinalMastery = final
		}
	}
	return summary
}

func jsonMap(m map[string]float64) (datatypes.JSON, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// sessionLocks serializes all mutation of one session. Entries are
// reference-counted so the map does not grow with dead sessions.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*sessionLockEntry
}

type sessionLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: map[uuid.UUID]*sessionLockEntry{}}
}

func (l *sessionLocks) acquire(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &sessionLockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
