package database

import (
	"fleetops/internal/logger"
	"fleetops/internal/models"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []interface{}{
		&models.User{},
		&models.Site{},
		&models.Workshop{},
		&models.Vehicle{},
		&models.VehicleDocument{},
		&models.MaintenanceCase{},
		&models.Observation{},
		&models.Pause{},
		&models.CasePhoto{},
		&models.ScheduleSlot{},
		&models.Supply{},
		&models.BackupRequest{},
		&models.AuditEvent{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			log.Error("Failed to migrate model", "model", model, "error", err)
			return err
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_maintenance_cases_vehicle_status ON maintenance_cases(vehicle_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_maintenance_cases_mechanic_status ON maintenance_cases(mechanic_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_schedule_slots_workshop_starts ON schedule_slots(workshop_id, starts_at)",
		"CREATE INDEX IF NOT EXISTS idx_audit_events_occurred_desc ON audit_events(occurred_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_backup_requests_driver_status ON backup_requests(driver_id, status)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
