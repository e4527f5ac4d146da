package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/lucavoss/adeptly-backend/internal/app"
	types "github.com/lucavoss/adeptly-backend/internal/domain"
	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

// Performance levels, strongest first.
const (
	LevelAdvanced   = "advanced"
	LevelMastered   = "mastered"
	LevelProficient = "proficient"
	LevelDeveloping = "developing"
	LevelStruggling = "struggling"
)

// LearnerMetrics is the aggregated input for a single progression analysis.
// Rates and scores are fractions in [0,1]; durations are in the named unit.
type LearnerMetrics struct {
	StudentID uuid.UUID `json:"student_id"`
	Subject   string    `json:"subject"`
	Skill     string    `json:"skill"`

	RecentAccuracy  float64 `json:"recent_accuracy"`
	OverallAccuracy float64 `json:"overall_accuracy"`
	CompletionRate  float64 `json:"completion_rate"`
	AvgTaskSeconds  float64 `json:"avg_task_seconds"`
	FocusScore      float64 `json:"focus_score"`
	SessionMinutes  float64 `json:"session_minutes"`
	HintRate        float64 `json:"hint_rate"`

	CurrentLevel         int `json:"current_level"`
	AttemptsAtLevel      int `json:"attempts_at_level"`
	SuccessesAtLevel     int `json:"successes_at_level"`
	ConsecutiveFailures  int `json:"consecutive_failures"`
	ConsecutiveSuccesses int `json:"consecutive_successes"`
	DaysAtLevel          int `json:"days_at_level"`

	DailyAccuracy []float64 `json:"daily_accuracy,omitempty"`
	DailyMinutes  []float64 `json:"daily_minutes,omitempty"`
}

// LearningRecommendation is one progression verdict for one learner.
type LearningRecommendation struct {
	StudentID        uuid.UUID `json:"student_id"`
	Subject          string    `json:"subject"`
	Type             string    `json:"type"`
	PerformanceLevel string    `json:"performance_level"`
	CurrentLevel     int       `json:"current_level"`
	TargetLevel      int       `json:"target_level"`
	TargetSkill      string    `json:"target_skill,omitempty"`
	Confidence       float64   `json:"confidence"`
	Reasoning        string    `json:"reasoning"`
	Evidence         []string  `json:"evidence"`
	SuggestedActions []string  `json:"suggested_actions"`
	EstimatedDays    int       `json:"estimated_days,omitempty"`
	Priority         string    `json:"priority"`
}

// Recommender turns aggregated learner metrics into progression decisions.
// Urgent wellbeing checks always run before any level logic.
type Recommender struct {
	cfg         app.Config
	suggestions SuggestionRepoWriter
	log         *logger.Logger
}

// SuggestionRepoWriter is the slice of the suggestion repository the
// recommender needs to persist its verdicts for review.
type SuggestionRepoWriter interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ModelSuggestion) error
	HasPending(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, suggestionType, skill string) (bool, error)
}

func NewRecommender(cfg app.Config, suggestions SuggestionRepoWriter, baseLog *logger.Logger) *Recommender {
	return &Recommender{
		cfg:         cfg,
		suggestions: suggestions,
		log:         baseLog.With("service", "Recommender"),
	}
}

// Analyze produces a recommendation for one learner. It never mutates state.
func (r *Recommender) Analyze(m LearnerMetrics) (*LearningRecommendation, error) {
	if err := r.validate(m); err != nil {
		return nil, err
	}

	if rec := r.urgentOverride(m); rec != nil {
		return rec, nil
	}

	level := r.classify(m)

	if m.AttemptsAtLevel < r.cfg.MinAttemptsAtLevel || m.DaysAtLevel < r.cfg.MinDaysAtLevel {
		return r.maintain(m, level,
			fmt.Sprintf("Only %d attempts over %d days at level %d; more evidence is needed before changing anything.",
				m.AttemptsAtLevel, m.DaysAtLevel, m.CurrentLevel)), nil
	}

	rec := r.decide(m, level)
	rec.Confidence = r.confidence(m)
	return rec, nil
}

// AnalyzeAndRecord runs Analyze and persists any non-maintain verdict as a
// pending suggestion, skipping when one of the same type is already open.
func (r *Recommender) AnalyzeAndRecord(ctx context.Context, m LearnerMetrics) (*LearningRecommendation, error) {
	rec, err := r.Analyze(m)
	if err != nil {
		return nil, err
	}
	if rec.Type == types.RecommendationMaintain || r.suggestions == nil {
		return rec, nil
	}

	open, err := r.suggestions.HasPending(ctx, nil, m.StudentID, rec.Type, m.Skill)
	if err != nil {
		return nil, err
	}
	if open {
		r.log.Debug("suggestion already pending", "student_id", m.StudentID, "type", rec.Type)
		return rec, nil
	}

	sug := r.toSuggestion(m, rec)
	if err := r.suggestions.Create(ctx, nil, sug); err != nil {
		return nil, err
	}
	return rec, nil
}

// Batch analyzes many learners concurrently. A failed learner is logged and
// skipped rather than aborting the batch. Results come back ordered by
// priority, most urgent first.
func (r *Recommender) Batch(ctx context.Context, metrics []LearnerMetrics) []*LearningRecommendation {
	limit := r.cfg.BatchConcurrency
	if limit <= 0 {
		limit = 1
	}

	results := make([]*LearningRecommendation, len(metrics))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, m := range metrics {
		i, m := i, m
		g.Go(func() error {
			rec, err := r.Analyze(m)
			if err != nil {
				r.log.Warn("learner analysis failed", "student_id", m.StudentID, "error", err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	g.Wait()

	out := make([]*LearningRecommendation, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})
	return out
}

func (r *Recommender) validate(m LearnerMetrics) error {
	switch {
	case m.StudentID == uuid.Nil:
		return fmt.Errorf("%w: student_id is required", pkgerrors.ErrValidation)
	case m.Subject == "":
		return fmt.Errorf("%w: subject is required", pkgerrors.ErrValidation)
	case m.RecentAccuracy < 0 || m.RecentAccuracy > 1:
		return fmt.Errorf("%w: recent_accuracy must be within [0,1]", pkgerrors.ErrValidation)
	case m.FocusScore < 0 || m.FocusScore > 1:
		return fmt.Errorf("%w: focus_score must be within [0,1]", pkgerrors.ErrValidation)
	case m.AttemptsAtLevel < 0 || m.DaysAtLevel < 0:
		return fmt.Errorf("%w: counters must be non-negative", pkgerrors.ErrValidation)
	}
	return nil
}

// urgentOverride handles wellbeing and acute struggle before any progression
// logic. Order matters: low focus, then overlong sessions, then failure runs.
func (r *Recommender) urgentOverride(m LearnerMetrics) *LearningRecommendation {
	if m.FocusScore < r.cfg.LowFocusThreshold {
		return &LearningRecommendation{
			StudentID:        m.StudentID,
			Subject:          m.Subject,
			Type:             types.RecommendationBreak,
			PerformanceLevel: r.classify(m),
			CurrentLevel:     m.CurrentLevel,
			TargetLevel:      m.CurrentLevel,
			Confidence:       0.9,
			Reasoning:        fmt.Sprintf("Focus score %.2f is below the attention floor; nothing learned now will stick.", m.FocusScore),
			Evidence:         []string{fmt.Sprintf("focus score %.2f", m.FocusScore)},
			SuggestedActions: []string{"End the current session", "Suggest a short physical activity"},
			Priority:         types.PriorityUrgent,
		}
	}
	if m.SessionMinutes > r.cfg.MaxSessionMinutes {
		return &LearningRecommendation{
			StudentID:        m.StudentID,
			Subject:          m.Subject,
			Type:             types.RecommendationBreak,
			PerformanceLevel: r.classify(m),
			CurrentLevel:     m.CurrentLevel,
			TargetLevel:      m.CurrentLevel,
			Confidence:       0.9,
			Reasoning:        fmt.Sprintf("Session has run %.0f minutes, past the healthy limit.", m.SessionMinutes),
			Evidence:         []string{fmt.Sprintf("session length %.0f minutes", m.SessionMinutes)},
			SuggestedActions: []string{"End the current session", "Resume after a rest"},
			Priority:         types.PriorityUrgent,
		}
	}
	if m.ConsecutiveFailures > r.cfg.MaxConsecutiveFailures {
		return &LearningRecommendation{
			StudentID:        m.StudentID,
			Subject:          m.Subject,
			Type:             types.RecommendationLevelDown,
			PerformanceLevel: LevelStruggling,
			CurrentLevel:     m.CurrentLevel,
			TargetLevel:      r.clampLevel(m.CurrentLevel - 1),
			Confidence:       0.85,
			Reasoning:        fmt.Sprintf("%d failures in a row signals material well outside reach.", m.ConsecutiveFailures),
			Evidence:         []string{fmt.Sprintf("%d consecutive failures", m.ConsecutiveFailures)},
			SuggestedActions: []string{"Drop one difficulty level immediately", "Rebuild confidence with known material"},
			Priority:         types.PriorityHigh,
		}
	}
	return nil
}

func (r *Recommender) classify(m LearnerMetrics) string {
	switch {
	case m.RecentAccuracy >= 0.95 && m.AvgTaskSeconds > 0 && m.AvgTaskSeconds <= r.cfg.FastTaskSeconds:
		return LevelAdvanced
	case m.RecentAccuracy >= 0.90:
		return LevelMastered
	case m.RecentAccuracy >= 0.75:
		return LevelProficient
	case m.RecentAccuracy >= 0.60:
		return LevelDeveloping
	default:
		return LevelStruggling
	}
}

func (r *Recommender) decide(m LearnerMetrics, level string) *LearningRecommendation {
	rec := &LearningRecommendation{
		StudentID:        m.StudentID,
		Subject:          m.Subject,
		PerformanceLevel: level,
		CurrentLevel:     m.CurrentLevel,
		TargetLevel:      m.CurrentLevel,
	}

	switch level {
	case LevelAdvanced, LevelMastered:
		if m.ConsecutiveSuccesses >= r.cfg.LevelUpStreak {
			rec.Type = types.RecommendationLevelUp
			rec.TargetLevel = r.clampLevel(m.CurrentLevel + 1)
			rec.Priority = types.PriorityMedium
			rec.Reasoning = fmt.Sprintf("Accuracy %.0f%% with a %d-task success streak; current material no longer challenges.",
				m.RecentAccuracy*100, m.ConsecutiveSuccesses)
			rec.Evidence = []string{
				fmt.Sprintf("recent accuracy %.0f%%", m.RecentAccuracy*100),
				fmt.Sprintf("%d consecutive successes", m.ConsecutiveSuccesses),
			}
			rec.SuggestedActions = []string{"Introduce the next level's material", "Keep one review task per session"}
			rec.EstimatedDays = 1
		} else {
			rec.Type = types.RecommendationEnrichment
			rec.Priority = types.PriorityLow
			rec.Reasoning = fmt.Sprintf("Accuracy %.0f%% is strong but the success streak is short; deepen within the level first.",
				m.RecentAccuracy*100)
			rec.Evidence = []string{fmt.Sprintf("recent accuracy %.0f%%", m.RecentAccuracy*100)}
			rec.SuggestedActions = []string{"Offer harder variants at the current level"}
		}

	case LevelProficient:
		if r.improving(m.DailyAccuracy) {
			rec.Type = types.RecommendationEnrichment
			rec.Priority = types.PriorityLow
			rec.Reasoning = "Solid and trending upward; stretch tasks will convert proficiency into mastery."
			rec.Evidence = []string{
				fmt.Sprintf("recent accuracy %.0f%%", m.RecentAccuracy*100),
				"daily accuracy trending up",
			}
			rec.SuggestedActions = []string{"Mix in stretch tasks", "Hold the current level"}
		} else {
			rec = r.maintain(m, level, "Performance is solid and stable; the current level is doing its job.")
		}

	case LevelDeveloping:
		if m.DaysAtLevel > r.cfg.StuckDays {
			rec.Type = types.RecommendationChangeApproach
			rec.Priority = types.PriorityMedium
			rec.Reasoning = fmt.Sprintf("%d days at level %d without breaking through; the current approach has stalled.",
				m.DaysAtLevel, m.CurrentLevel)
			rec.Evidence = []string{
				fmt.Sprintf("%d days at level", m.DaysAtLevel),
				fmt.Sprintf("recent accuracy %.0f%%", m.RecentAccuracy*100),
			}
			rec.SuggestedActions = []string{"Switch task modality", "Revisit prerequisite skills briefly"}
			rec.EstimatedDays = r.cfg.StuckDays
		} else {
			rec = r.maintain(m, level, "Progress is underway; keep practicing at this level.")
		}

	default: // LevelStruggling
		if m.AttemptsAtLevel >= r.cfg.ManyAttemptsAtLevel {
			rec.Type = types.RecommendationLevelDown
			rec.TargetLevel = r.clampLevel(m.CurrentLevel - 1)
			rec.Priority = types.PriorityHigh
			rec.Reasoning = fmt.Sprintf("Accuracy %.0f%% after %d attempts; the level is misplaced, not under-practiced.",
				m.RecentAccuracy*100, m.AttemptsAtLevel)
			rec.Evidence = []string{
				fmt.Sprintf("recent accuracy %.0f%%", m.RecentAccuracy*100),
				fmt.Sprintf("%d attempts at level", m.AttemptsAtLevel),
			}
			rec.SuggestedActions = []string{"Drop one level", "Reintroduce the skill with scaffolded tasks"}
			rec.EstimatedDays = 2
		} else {
			rec.Type = types.RecommendationRemediation
			rec.TargetLevel = r.clampLevel(m.CurrentLevel - 2)
			rec.Priority = types.PriorityHigh
			rec.Reasoning = fmt.Sprintf("Accuracy %.0f%% is low but attempts are few; targeted remediation before any level change.",
				m.RecentAccuracy*100)
			rec.Evidence = []string{fmt.Sprintf("recent accuracy %.0f%%", m.RecentAccuracy*100)}
			rec.SuggestedActions = []string{"Assign remedial tasks on the weak skill", "Increase worked examples"}
			rec.EstimatedDays = 3
		}
	}

	return rec
}

func (r *Recommender) maintain(m LearnerMetrics, level, reasoning string) *LearningRecommendation {
	return &LearningRecommendation{
		StudentID:        m.StudentID,
		Subject:          m.Subject,
		Type:             types.RecommendationMaintain,
		PerformanceLevel: level,
		CurrentLevel:     m.CurrentLevel,
		TargetLevel:      m.CurrentLevel,
		Confidence:       r.confidence(m),
		Reasoning:        reasoning,
		Evidence:         []string{fmt.Sprintf("recent accuracy %.0f%%", m.RecentAccuracy*100)},
		SuggestedActions: []string{"Continue at the current level"},
		Priority:         types.PriorityLow,
	}
}

// confidence starts at 0.4 and earns 0.2 each for enough attempts, enough
// days, and a clear daily trend.
func (r *Recommender) confidence(m LearnerMetrics) float64 {
	c := 0.4
	if m.AttemptsAtLevel >= r.cfg.MinAttemptsAtLevel {
		c += 0.2
	}
	if m.DaysAtLevel >= r.cfg.MinDaysAtLevel {
		c += 0.2
	}
	if r.trendClear(m.DailyAccuracy) {
		c += 0.2
	}
	if c > 1.0 {
		c = 1.0
	}
	return c
}

// improving reports whether the mean of the last three days beats the mean of
// the days before by more than the configured margin.
func (r *Recommender) improving(daily []float64) bool {
	if len(daily) < 4 {
		return false
	}
	head := daily[:len(daily)-3]
	tail := daily[len(daily)-3:]
	return mean(tail) > mean(head)+r.cfg.ImprovingMargin
}

// trendClear reports whether daily accuracy is consistent enough to lean on.
func (r *Recommender) trendClear(daily []float64) bool {
	if len(daily) < 3 {
		return false
	}
	mu := mean(daily)
	var v float64
	for _, x := range daily {
		d := x - mu
		v += d * d
	}
	v /= float64(len(daily))
	return v < r.cfg.TrendVarianceMax
}

func (r *Recommender) clampLevel(level int) int {
	if level < r.cfg.MinLevel {
		return r.cfg.MinLevel
	}
	if level > r.cfg.MaxLevel {
		return r.cfg.MaxLevel
	}
	return level
}

func (r *Recommender) toSuggestion(m LearnerMetrics, rec *LearningRecommendation) *types.ModelSuggestion {
	now := time.Now().UTC()
	evidence, _ := jsonStrings(rec.Evidence)
	actions, _ := jsonStrings(rec.SuggestedActions)
	return &types.ModelSuggestion{
		ID:               uuid.New(),
		StudentID:        m.StudentID,
		Subject:          m.Subject,
		Skill:            m.Skill,
		Type:             rec.Type,
		CurrentLevel:     rec.CurrentLevel,
		CurrentMastery:   m.RecentAccuracy,
		RecommendedLevel: rec.TargetLevel,
		TargetSkill:      rec.TargetSkill,
		Confidence:       rec.Confidence,
		Reasoning:        rec.Reasoning,
		Evidence:         evidence,
		Actions:          actions,
		Priority:         rec.Priority,
		Status:           types.SuggestionStatusPending,
		ExpiresAt:        now.Add(r.cfg.SuggestionTTL),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func priorityRank(p string) int {
	switch p {
	case types.PriorityUrgent:
		return 0
	case types.PriorityHigh:
		return 1
	case types.PriorityMedium:
		return 2
	default:
		return 3
	}
}
