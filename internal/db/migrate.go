package db

import (
	"fmt"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/roster"
	"gorm.io/gorm"
)

// AllModels returns the list of GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Operator{},
		&models.ArchiveEntry{},
		&models.ArchiveMessage{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// OperatorsFromConfig converts configured operators to roster records.
func OperatorsFromConfig(ops []config.OperatorConfig) []roster.Operator {
	out := make([]roster.Operator, len(ops))
	for i, oc := range ops {
		out[i] = roster.Operator{
			ID:            oc.ID,
			Name:          oc.Name,
			Status:        roster.Status(oc.Status),
			Skills:        oc.Skills,
			MaxConcurrent: oc.MaxConcurrent,
		}
	}
	return out
}

// SeedOperators upserts the configured operators. Stored handled counters
// are kept.
func SeedOperators(store *roster.Store, ops []config.OperatorConfig) error {
	for _, op := range OperatorsFromConfig(ops) {
		if err := store.Upsert(op); err != nil {
			return fmt.Errorf("db: seed operator %q: %w", op.ID, err)
		}
	}
	return nil
}
