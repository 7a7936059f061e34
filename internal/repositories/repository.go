package repositories

import (
	"fleetops/internal/database"
)

type Repository struct {
	User        UserRepository
	Vehicle     VehicleRepository
	Document    DocumentRepository
	Maintenance MaintenanceRepository
	Schedule    ScheduleRepository
	Backup      BackupRepository
	Supply      SupplyRepository
	Audit       AuditRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:        NewUserRepository(db), // User repo needs cache for caching
		Vehicle:     NewVehicleRepository(db),
		Document:    NewDocumentRepository(db),
		Maintenance: NewMaintenanceRepository(db),
		Schedule:    NewScheduleRepository(db),
		Backup:      NewBackupRepository(db),
		Supply:      NewSupplyRepository(db),
		Audit:       NewAuditRepository(db),
	}
}
