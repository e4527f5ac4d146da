package db

import (
	types "github.com/lucavoss/adeptly-backend/internal/domain"
)

// AutoMigrateAll keeps the schema in step with the domain models.
func (s *Service) AutoMigrateAll() error {
	s.log.Info("running auto migration")
	return s.db.AutoMigrate(
		&types.SkillState{},
		&types.LearningSession{},
		&types.LearningTask{},
		&types.ModelSuggestion{},
		&types.SubjectProgress{},
	)
}
