/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"github.com/castmetrics/langblock/internal/models"
	"gorm.io/gorm"
)

// Migrate applies database schema migrations using GORM auto-migrate.
// Reference tables (markets, spots, schedules, blocks) are owned by the
// import/admin layer but migrated here too so a fresh environment is
// usable end to end; the assignment table is the only one this engine
// writes.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		// Reference data, read-only to the engine
		&models.Market{},
		&models.Customer{},
		&models.Agency{},
		&models.Spot{},
		&models.ProgrammingSchedule{},
		&models.ScheduleMarketAssignment{},
		&models.LanguageBlock{},

		// Engine output
		&models.SpotLanguageBlockAssignment{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
