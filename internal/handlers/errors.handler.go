package handlers

import (
	"errors"

	authController "fleetops/internal/controllers/auth"
	backupController "fleetops/internal/controllers/backup"
	gateController "fleetops/internal/controllers/gate"
	maintenanceController "fleetops/internal/controllers/maintenance"
	reportController "fleetops/internal/controllers/report"
	scheduleController "fleetops/internal/controllers/schedule"
	supplyController "fleetops/internal/controllers/supply"
	vehicleController "fleetops/internal/controllers/vehicle"
	"fleetops/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var notFoundErrors = []error{
	gorm.ErrRecordNotFound,
	maintenanceController.ErrNotFound,
	gateController.ErrNotFound,
	scheduleController.ErrNotFound,
	backupController.ErrNotFound,
	supplyController.ErrNotFound,
	vehicleController.ErrNotFound,
	reportController.ErrNotFound,
}

var validationErrors = []error{
	authController.ErrValidation,
	maintenanceController.ErrValidation,
	gateController.ErrValidation,
	scheduleController.ErrValidation,
	backupController.ErrValidation,
	supplyController.ErrValidation,
	vehicleController.ErrValidation,
	reportController.ErrValidation,
}

var preconditionErrors = []error{
	maintenanceController.ErrPrecondition,
	gateController.ErrPrecondition,
	scheduleController.ErrPrecondition,
	backupController.ErrPrecondition,
	supplyController.ErrPrecondition,
	vehicleController.ErrPrecondition,
	repositories.ErrSlotTaken,
	repositories.ErrSlotReserved,
	repositories.ErrStaleVehicleStatus,
	repositories.ErrSupplyDecided,
	repositories.ErrBackupRequestClosed,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, authController.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case isAny(err, validationErrors):
		return fiber.StatusUnprocessableEntity
	case isAny(err, notFoundErrors):
		return fiber.StatusNotFound
	case isAny(err, preconditionErrors):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError translates controller sentinel errors into HTTP statuses.
// Unrecognized errors stay opaque to the client.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		h.log.Er("unhandled controller error", err, "path", c.Path())
		return c.Status(status).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
