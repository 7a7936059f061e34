package seed

import (
	"fleetops/config"
	authController "fleetops/internal/controllers/auth"
	"fleetops/internal/logger"
	. "fleetops/internal/models"

	"gorm.io/gorm"
)

func stringPtr(s string) *string {
	return &s
}

func specialtyPtr(s Specialty) *Specialty {
	return &s
}

// Seed loads development fixtures: one user per role, a site with a workshop,
// and a small mixed fleet including backup loaners.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	passwordHash, err := authController.HashPassword("password")
	if err != nil {
		return log.Err("failed to hash seed password", err)
	}

	users := []User{
		{
			Username:     "coordinator",
			PasswordHash: passwordHash,
			FirstName:    "Clara",
			LastName:     "Ordway",
			Email:        stringPtr("coordinator@example.com"),
			Role:         RoleCoordinator,
			IsActive:     true,
		},
		{
			Username:     "supervisor",
			PasswordHash: passwordHash,
			FirstName:    "Samuel",
			LastName:     "Reyes",
			Email:        stringPtr("supervisor@example.com"),
			Role:         RoleSupervisor,
			IsActive:     true,
		},
		{
			Username:     "chief",
			PasswordHash: passwordHash,
			FirstName:    "Wanda",
			LastName:     "Chen",
			Email:        stringPtr("chief@example.com"),
			Role:         RoleWorkshopChief,
			IsActive:     true,
		},
		{
			Username:     "mechanic",
			PasswordHash: passwordHash,
			FirstName:    "Miguel",
			LastName:     "Santos",
			Email:        stringPtr("mechanic@example.com"),
			Role:         RoleMechanic,
			Specialty:    specialtyPtr(SpecialtyEngine),
			IsActive:     true,
		},
		{
			Username:     "electrician",
			PasswordHash: passwordHash,
			FirstName:    "Elena",
			LastName:     "Vargas",
			Email:        stringPtr("electrician@example.com"),
			Role:         RoleMechanic,
			Specialty:    specialtyPtr(SpecialtyElectrical),
			IsActive:     true,
		},
		{
			Username:     "driver",
			PasswordHash: passwordHash,
			FirstName:    "Dario",
			LastName:     "Ionescu",
			Email:        stringPtr("driver@example.com"),
			Role:         RoleDriver,
			IsActive:     true,
		},
		{
			Username:     "guard",
			PasswordHash: passwordHash,
			FirstName:    "Greta",
			LastName:     "Lindqvist",
			Email:        stringPtr("guard@example.com"),
			Role:         RoleGuard,
			IsActive:     true,
		},
	}

	for i := range users {
		var existing User
		if err := db.First(&existing, "username = ?", users[i].Username).Error; err == nil {
			log.Info("User already exists", "username", users[i].Username)
			continue
		}
		if err := db.Create(&users[i]).Error; err != nil {
			return log.Err("failed to create user", err, "username", users[i].Username)
		}
	}

	site := Site{Name: "Central Depot"}
	if err := db.FirstOrCreate(&site, Site{Name: site.Name}).Error; err != nil {
		return log.Err("failed to create site", err)
	}

	workshop := Workshop{Name: "Main Workshop", Location: "Central Depot, Bay 1"}
	if err := db.FirstOrCreate(&workshop, Workshop{Name: workshop.Name}).Error; err != nil {
		return log.Err("failed to create workshop", err)
	}

	var driver User
	if err := db.First(&driver, "username = ?", "driver").Error; err != nil {
		return log.Err("failed to load seeded driver", err)
	}

	vehicles := []Vehicle{
		{
			Plate:    "TRK-1001",
			Make:     "Volvo",
			Model:    "FH16",
			Year:     2021,
			DriverID: &driver.ID,
			SiteID:   &site.ID,
			Status:   VehicleEnRoute,
		},
		{
			Plate:  "TRK-1002",
			Make:   "Scania",
			Model:  "R450",
			Year:   2019,
			SiteID: &site.ID,
			Status: VehicleAvailable,
		},
		{
			Plate:    "BCK-2001",
			Make:     "MAN",
			Model:    "TGX",
			Year:     2018,
			SiteID:   &site.ID,
			IsBackup: true,
			Status:   VehicleAvailable,
		},
		{
			Plate:    "BCK-2002",
			Make:     "DAF",
			Model:    "XF",
			Year:     2017,
			SiteID:   &site.ID,
			IsBackup: true,
			Status:   VehicleAvailable,
		},
	}

	for i := range vehicles {
		var existing Vehicle
		if err := db.First(&existing, "plate = ?", vehicles[i].Plate).Error; err == nil {
			log.Info("Vehicle already exists", "plate", vehicles[i].Plate)
			continue
		}
		if err := db.Create(&vehicles[i]).Error; err != nil {
			return log.Err("failed to create vehicle", err, "plate", vehicles[i].Plate)
		}
	}

	log.Info("Seed data loaded")
	return nil
}
