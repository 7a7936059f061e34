package controllers

import (
	"fleetops/config"
	"fleetops/internal/database"
	"fleetops/internal/events"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	authController "fleetops/internal/controllers/auth"
	backupController "fleetops/internal/controllers/backup"
	gateController "fleetops/internal/controllers/gate"
	maintenanceController "fleetops/internal/controllers/maintenance"
	reportController "fleetops/internal/controllers/report"
	scheduleController "fleetops/internal/controllers/schedule"
	supplyController "fleetops/internal/controllers/supply"
	vehicleController "fleetops/internal/controllers/vehicle"
)

type Controllers struct {
	Auth        authController.AuthControllerInterface
	Maintenance maintenanceController.MaintenanceControllerInterface
	Gate        gateController.GateControllerInterface
	Schedule    scheduleController.ScheduleControllerInterface
	Backup      backupController.BackupControllerInterface
	Supply      supplyController.SupplyControllerInterface
	Vehicle     vehicleController.VehicleControllerInterface
	Report      reportController.ReportControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Auth:        authController.New(repos, services, config, db),
		Maintenance: maintenanceController.New(repos, services, eventBus, config, db),
		Gate:        gateController.New(repos, services, eventBus, config, db),
		Schedule:    scheduleController.New(repos, services, config, db),
		Backup:      backupController.New(repos, services, eventBus, config, db),
		Supply:      supplyController.New(repos, services, eventBus, config, db),
		Vehicle:     vehicleController.New(repos, services, config, db),
		Report:      reportController.New(repos, services, config, db),
	}
}
