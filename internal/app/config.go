package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	types "github.com/lucavoss/adeptly-backend/internal/domain"
	"github.com/lucavoss/adeptly-backend/internal/platform/envutil"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

// Config carries every tunable threshold of the engine. Intervention cutoffs
// are deliberately configuration, not constants: only their precedence is
// fixed in code.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	// Session planning
	ZPDLower        float64       `yaml:"zpd_lower"`
	ZPDUpper        float64       `yaml:"zpd_upper"`
	SecondsPerTask  int           `yaml:"seconds_per_task"`
	MaxSessionTTL   time.Duration `yaml:"max_session_ttl"`
	ContentTimeout  time.Duration `yaml:"content_timeout"`
	DefaultSkills   []string      `yaml:"default_skills"`

	// Sequencer
	StrugglingThreshold  float64 `yaml:"struggling_threshold"`
	MasteryThreshold     float64 `yaml:"mastery_threshold"`
	AdvanceThreshold     float64 `yaml:"advance_threshold"`
	DifficultyStep       float64 `yaml:"difficulty_step"`
	MinDifficulty        float64 `yaml:"min_difficulty"`
	MaxDifficulty        float64 `yaml:"max_difficulty"`
	ChallengeWindow      int     `yaml:"challenge_window"`
	ChallengeMinCorrect  int     `yaml:"challenge_min_correct"`

	// Recommender
	LowFocusThreshold      float64       `yaml:"low_focus_threshold"`
	MaxSessionMinutes      float64       `yaml:"max_session_minutes"`
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures"`
	MinAttemptsAtLevel     int           `yaml:"min_attempts_at_level"`
	MinDaysAtLevel         int           `yaml:"min_days_at_level"`
	ManyAttemptsAtLevel    int           `yaml:"many_attempts_at_level"`
	LevelUpStreak          int           `yaml:"level_up_streak"`
	StuckDays              int           `yaml:"stuck_days"`
	MinLevel               int           `yaml:"min_level"`
	MaxLevel               int           `yaml:"max_level"`
	FastTaskSeconds        float64       `yaml:"fast_task_seconds"`
	ImprovingMargin        float64       `yaml:"improving_margin"`
	TrendVarianceMax       float64       `yaml:"trend_variance_max"`
	BatchConcurrency       int           `yaml:"batch_concurrency"`
	SuggestionTTL          time.Duration `yaml:"suggestion_ttl"`

	// Background jobs
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	ProgressInterval   time.Duration `yaml:"progress_interval"`
	ProgressLookback   time.Duration `yaml:"progress_lookback"`
	MasteredCutoff     float64       `yaml:"mastered_cutoff"`
	StrugglingCutoff   float64       `yaml:"struggling_cutoff"`
}

// LoadConfig reads environment variables, then overlays an optional YAML file
// named by CONFIG_FILE.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		HTTPAddr: envutil.String("HTTP_ADDR", ":8080"),

		ZPDLower:       envutil.Float("ZPD_LOWER", 0.3),
		ZPDUpper:       envutil.Float("ZPD_UPPER", 0.8),
		SecondsPerTask: envutil.Int("SECONDS_PER_TASK", 45),
		MaxSessionTTL:  envutil.Duration("MAX_SESSION_TTL", 90*time.Minute),
		ContentTimeout: envutil.Duration("CONTENT_TIMEOUT", 3*time.Second),

		StrugglingThreshold: envutil.Float("STRUGGLING_THRESHOLD", 0.4),
		MasteryThreshold:    envutil.Float("MASTERY_THRESHOLD", 0.8),
		AdvanceThreshold:    envutil.Float("ADVANCE_THRESHOLD", 0.9),
		DifficultyStep:      envutil.Float("DIFFICULTY_STEP", 0.15),
		MinDifficulty:       envutil.Float("MIN_DIFFICULTY", 0.1),
		MaxDifficulty:       envutil.Float("MAX_DIFFICULTY", 1.0),
		ChallengeWindow:     envutil.Int("CHALLENGE_WINDOW", 3),
		ChallengeMinCorrect: envutil.Int("CHALLENGE_MIN_CORRECT", 2),

		LowFocusThreshold:      envutil.Float("LOW_FOCUS_THRESHOLD", 0.3),
		MaxSessionMinutes:      envutil.Float("MAX_SESSION_MINUTES", 45),
		MaxConsecutiveFailures: envutil.Int("MAX_CONSECUTIVE_FAILURES", 4),
		MinAttemptsAtLevel:     envutil.Int("MIN_ATTEMPTS_AT_LEVEL", 10),
		MinDaysAtLevel:         envutil.Int("MIN_DAYS_AT_LEVEL", 3),
		ManyAttemptsAtLevel:    envutil.Int("MANY_ATTEMPTS_AT_LEVEL", 15),
		LevelUpStreak:          envutil.Int("LEVEL_UP_STREAK", 5),
		StuckDays:              envutil.Int("STUCK_DAYS", 7),
		MinLevel:               envutil.Int("MIN_LEVEL", 1),
		MaxLevel:               envutil.Int("MAX_LEVEL", 12),
		FastTaskSeconds:        envutil.Float("FAST_TASK_SECONDS", 30),
		ImprovingMargin:        envutil.Float("IMPROVING_MARGIN", 0.05),
		TrendVarianceMax:       envutil.Float("TREND_VARIANCE_MAX", 0.02),
		BatchConcurrency:       envutil.Int("BATCH_CONCURRENCY", 8),
		SuggestionTTL:          envutil.Duration("SUGGESTION_TTL", 72*time.Hour),

		SweepInterval:    envutil.Duration("SWEEP_INTERVAL", time.Minute),
		ProgressInterval: envutil.Duration("PROGRESS_INTERVAL", 15*time.Minute),
		ProgressLookback: envutil.Duration("PROGRESS_LOOKBACK", 24*time.Hour),
		MasteredCutoff:   envutil.Float("MASTERED_CUTOFF", 0.8),
		StrugglingCutoff: envutil.Float("STRUGGLING_CUTOFF", 0.4),
	}

	cfg.DefaultSkills = types.DefaultSkillOrder()

	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("config file applied", "path", path)
	}

	return cfg, nil
}
