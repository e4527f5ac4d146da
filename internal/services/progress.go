package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lucavoss/adeptly-backend/internal/app"
	"github.com/lucavoss/adeptly-backend/internal/data/repos"
	types "github.com/lucavoss/adeptly-backend/internal/domain"
	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

// ProgressService maintains the derived per-subject rollup. The rollup is
// always reconstructible from skill states and session history, so recompute
// simply overwrites it.
type ProgressService interface {
	Recompute(ctx context.Context, studentID uuid.UUID, subject string) (*types.SubjectProgress, error)
	Get(ctx context.Context, studentID uuid.UUID, subject string) (*types.SubjectProgress, error)

	// RecomputeRecent refreshes the rollup for every (student, subject) pair
	// practiced inside the lookback window. Used by the background job.
	RecomputeRecent(ctx context.Context) error
}

type progressService struct {
	cfg      app.Config
	states   repos.SkillStateRepo
	tasks    repos.TaskRepo
	progress repos.SubjectProgressRepo
	now      func() time.Time
	log      *logger.Logger
}

func NewProgressService(
	cfg app.Config,
	states repos.SkillStateRepo,
	tasks repos.TaskRepo,
	progress repos.SubjectProgressRepo,
	baseLog *logger.Logger,
) ProgressService {
	return &progressService{
		cfg:      cfg,
		states:   states,
		tasks:    tasks,
		progress: progress,
		now:      time.Now,
		log:      baseLog.With("service", "ProgressService"),
	}
}

func (s *progressService) Recompute(ctx context.Context, studentID uuid.UUID, subject string) (*types.SubjectProgress, error) {
	if studentID == uuid.Nil || subject == "" {
		return nil, fmt.Errorf("%w: student_id and subject are required", pkgerrors.ErrValidation)
	}

	states, err := s.states.ListByStudentSubject(ctx, nil, studentID, subject)
	if err != nil {
		return nil, err
	}

	var mastered, inProgress, struggling int
	var attempts, correct int
	for _, st := range states {
		switch {
		case st.Mastery >= s.cfg.MasteredCutoff:
			mastered++
		case st.Mastery < s.cfg.StrugglingCutoff:
			struggling++
		default:
			inProgress++
		}
		attempts += st.TotalAttempts
		correct += st.CorrectAttempts
	}
	accuracy := 0.0
	if attempts > 0 {
		accuracy = float64(correct) / float64(attempts)
	}

	seconds, err := s.tasks.SumTimeByStudentSubject(ctx, nil, studentID, subject)
	if err != nil {
		return nil, err
	}

	row := &types.SubjectProgress{
		StudentID:            studentID,
		Subject:              subject,
		SkillsMastered:       mastered,
		SkillsInProgress:     inProgress,
		SkillsStruggling:     struggling,
		TotalPracticeSeconds: seconds,
		OverallAccuracy:      accuracy,
		ComputedAt:           s.now().UTC(),
	}
	if err := s.progress.Upsert(ctx, nil, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *progressService) Get(ctx context.Context, studentID uuid.UUID, subject string) (*types.SubjectProgress, error) {
	row, err := s.progress.Get(ctx, nil, studentID, subject)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: no progress for student %s in %s", pkgerrors.ErrNotFound, studentID, subject)
	}
	return row, nil
}

func (s *progressService) RecomputeRecent(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.cfg.ProgressLookback)
	states, err := s.states.ListPracticedSince(ctx, nil, cutoff)
	if err != nil {
		return err
	}

	type pair struct {
		student uuid.UUID
		subject string
	}
	seen := map[pair]bool{}
	for _, st := range states {
		p := pair{student: st.StudentID, subject: st.Subject}
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, err := s.Recompute(ctx, p.student, p.subject); err != nil {
			s.log.Warn("progress recompute failed",
				"student_id", p.student, "subject", p.subject, "error", err)
		}
	}
	if len(seen) > 0 {
		s.log.Info("progress rollups refreshed", "pairs", len(seen))
	}
	return nil
}
