package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
)

// AutoMigrate creates or updates every table this package owns.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&afl.Flow{},
		&afl.PublishedSource{},
		&afl.Workflow{},
		&afl.Runner{},
		&afl.Step{},
		&afl.Task{},
	); err != nil {
		return fmt.Errorf("auto migrate afl tables: %w", err)
	}
	return nil
}

// AutoMigrateAll runs migration against the store's own connection.
func (s *Store) AutoMigrateAll() error {
	s.log.Info("auto migrating afl tables")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("auto migration failed", "error", err)
		return err
	}
	return nil
}
