package gateController

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetops/config"
	"fleetops/internal/database"
	"fleetops/internal/events"
	"fleetops/internal/logger"
	. "fleetops/internal/models"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition violation")

	ErrNoAppointment = fmt.Errorf("%w: vehicle has no scheduled appointment", ErrPrecondition)
	ErrNotValidated  = fmt.Errorf("%w: case is not validated for checkout", ErrPrecondition)
	ErrNotHandedOver = fmt.Errorf("%w: vehicle is not awaiting handover", ErrPrecondition)
	ErrNotLoaner     = fmt.Errorf("%w: vehicle is not a backup loaner", ErrPrecondition)
	ErrNothingToSwap = fmt.Errorf("%w: driver has no validated case awaiting exchange", ErrPrecondition)
)

type GateController struct {
	maintenanceRepo    repositories.MaintenanceRepository
	vehicleRepo        repositories.VehicleRepository
	transactionService services.Transactor
	auditService       *services.AuditService
	eventBus           events.Notifier
	db                 database.DB
	Config             config.Config
}

type CheckInRequest struct {
	Plate        string   `json:"plate"`
	ArrivalNotes string   `json:"arrivalNotes,omitempty"`
	PhotoKeys    []string `json:"photoKeys,omitempty"`
}

type CheckOutRequest struct {
	Plate    string     `json:"plate"`
	DriverID *uuid.UUID `json:"driverId,omitempty"`
}

type GateControllerInterface interface {
	CheckIn(ctx context.Context, actor *User, request *CheckInRequest) (*MaintenanceCase, error)
	CheckOut(ctx context.Context, actor *User, request *CheckOutRequest) (*MaintenanceCase, error)
	Swap(ctx context.Context, actor *User, driverID uuid.UUID) (*MaintenanceCase, error)
	HandoverBackup(ctx context.Context, actor *User, plate string) (*Vehicle, error)
	ReturnBackup(ctx context.Context, actor *User, plate string, siteID *uuid.UUID) (*Vehicle, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus events.Notifier,
	config config.Config,
	db database.DB,
) GateControllerInterface {
	return &GateController{
		maintenanceRepo:    repos.Maintenance,
		vehicleRepo:        repos.Vehicle,
		transactionService: services.Transaction,
		auditService:       services.Audit,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

// CheckIn admits a vehicle at the gate. The oldest SCHEDULED case for the
// plate moves to CHECKED_IN and the vehicle goes IN_SERVICE in the same
// transaction. Arrival without an appointment is refused.
func (c *GateController) CheckIn(
	ctx context.Context,
	actor *User,
	request *CheckInRequest,
) (*MaintenanceCase, error) {
	log := logger.New("gateController").Function("CheckIn")

	if strings.TrimSpace(request.Plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrValidation)
	}

	vehicle, err := c.vehicleRepo.GetByPlate(ctx, request.Plate)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle with plate %s", ErrNotFound, request.Plate)
	}

	var mc *MaintenanceCase
	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		mc, err = c.maintenanceRepo.OldestScheduledByVehicle(ctx, tx, vehicle.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoAppointment
			}
			return err
		}

		if err := ApplyCaseTransition(mc, CaseCheckedIn, time.Now()); err != nil {
			return fmt.Errorf("%w: case cannot be checked in", ErrPrecondition)
		}

		if err := c.maintenanceRepo.Update(ctx, tx, mc); err != nil {
			return err
		}

		// The vehicle arrives in whatever status it left with; force
		// IN_SERVICE rather than guarding on the previous status.
		if err := c.vehicleRepo.ForceStatus(ctx, tx, vehicle.ID, VehicleInService); err != nil {
			return err
		}

		if notes := strings.TrimSpace(request.ArrivalNotes); notes != "" {
			obs := &Observation{
				CaseID:   mc.ID,
				AuthorID: actor.ID,
				Text:     ObservationTagArrival + notes,
			}
			if err := c.maintenanceRepo.CreateObservation(ctx, tx, obs); err != nil {
				return err
			}
		}

		for _, key := range request.PhotoKeys {
			if strings.TrimSpace(key) == "" {
				continue
			}
			photo := &CasePhoto{
				CaseID:     mc.ID,
				UploaderID: actor.ID,
				StorageKey: key,
			}
			if err := c.maintenanceRepo.CreatePhoto(ctx, tx, photo); err != nil {
				return err
			}
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "MaintenanceCase",
			mc.ID.String(),
			fmt.Sprintf("vehicle %s checked in at gate", vehicle.Plate))
	})
	if err != nil {
		return nil, err
	}

	if err := c.eventBus.NotifyAll(events.CASE_CHECKED_IN, map[string]any{
		"caseId": mc.ID.String(),
		"plate":  vehicle.Plate,
	}); err != nil {
		log.Warn("failed to publish check-in event", "caseID", mc.ID, "error", err)
	}

	return c.maintenanceRepo.GetByID(ctx, mc.ID)
}

// CheckOut releases a validated vehicle. With a driver the vehicle leaves
// EN_ROUTE under that driver; without one it stays AVAILABLE on the lot.
func (c *GateController) CheckOut(
	ctx context.Context,
	actor *User,
	request *CheckOutRequest,
) (*MaintenanceCase, error) {
	log := logger.New("gateController").Function("CheckOut")

	if strings.TrimSpace(request.Plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrValidation)
	}

	vehicle, err := c.vehicleRepo.GetByPlate(ctx, request.Plate)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle with plate %s", ErrNotFound, request.Plate)
	}

	var mc *MaintenanceCase
	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		mc, err = c.maintenanceRepo.GetActiveByVehicle(ctx, tx, vehicle.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no active case for plate %s", ErrNotFound, vehicle.Plate)
			}
			return err
		}

		if err := ApplyCaseTransition(mc, CaseFinalized, time.Now()); err != nil {
			return ErrNotValidated
		}

		if err := c.maintenanceRepo.Update(ctx, tx, mc); err != nil {
			return err
		}

		if request.DriverID != nil {
			if err := c.vehicleRepo.SetDriverAndStatus(ctx, tx, vehicle.ID, *request.DriverID, VehicleEnRoute); err != nil {
				return err
			}
		} else {
			if err := c.vehicleRepo.ForceStatus(ctx, tx, vehicle.ID, VehicleAvailable); err != nil {
				return err
			}
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "MaintenanceCase",
			mc.ID.String(),
			fmt.Sprintf("vehicle %s checked out at gate", vehicle.Plate))
	})
	if err != nil {
		return nil, err
	}

	if err := c.eventBus.NotifyUser(mc.RequesterID, events.CASE_FINALIZED, map[string]any{
		"caseId": mc.ID.String(),
		"plate":  vehicle.Plate,
	}); err != nil {
		log.Warn("failed to publish checkout event", "caseID", mc.ID, "error", err)
	}

	return c.maintenanceRepo.GetByID(ctx, mc.ID)
}

// Swap processes the exchange for a driver who arrives in a loaner to pick up
// their repaired vehicle. The loaner is returned in the same transaction that
// finalizes the validated case. The repaired vehicle waits AVAILABLE on the
// lot; it goes EN_ROUTE when the driver checks out through the gate.
func (c *GateController) Swap(
	ctx context.Context,
	actor *User,
	driverID uuid.UUID,
) (*MaintenanceCase, error) {
	log := logger.New("gateController").Function("Swap")

	if driverID == uuid.Nil {
		return nil, fmt.Errorf("%w: driver is required", ErrValidation)
	}

	var mc *MaintenanceCase
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		loanerPlate := "none"
		loaner, err := c.vehicleRepo.GetDriverEnRoute(ctx, tx, driverID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if loaner != nil && loaner.IsBackup {
			if err := c.vehicleRepo.ClearDriver(ctx, tx, loaner.ID, VehicleAvailable); err != nil {
				return err
			}
			loanerPlate = loaner.Plate
		}

		mc, err = c.maintenanceRepo.ValidatedByDriver(ctx, tx, driverID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNothingToSwap
			}
			return err
		}

		if err := ApplyCaseTransition(mc, CaseFinalized, time.Now()); err != nil {
			return ErrNotValidated
		}

		if err := c.maintenanceRepo.Update(ctx, tx, mc); err != nil {
			return err
		}

		if err := c.vehicleRepo.ForceStatus(ctx, tx, mc.VehicleID, VehicleAvailable); err != nil {
			return err
		}

		plate := ""
		if mc.Vehicle != nil {
			plate = mc.Vehicle.Plate
		}
		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "MaintenanceCase",
			mc.ID.String(),
			fmt.Sprintf("exchange processed for driver %s: loaner %s returned, vehicle %s released",
				driverID, loanerPlate, plate))
	})
	if err != nil {
		return nil, err
	}

	if err := c.eventBus.NotifyUser(mc.RequesterID, events.CASE_FINALIZED, map[string]any{
		"caseId": mc.ID.String(),
	}); err != nil {
		log.Warn("failed to publish exchange event", "caseID", mc.ID, "error", err)
	}

	return c.maintenanceRepo.GetByID(ctx, mc.ID)
}

// HandoverBackup records the physical handover of a fulfilled loaner:
// ASSIGNED becomes EN_ROUTE. The compare-and-swap refuses anything not
// awaiting handover.
func (c *GateController) HandoverBackup(
	ctx context.Context,
	actor *User,
	plate string,
) (*Vehicle, error) {
	if strings.TrimSpace(plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrValidation)
	}

	vehicle, err := c.vehicleRepo.GetByPlate(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle with plate %s", ErrNotFound, plate)
	}
	if !vehicle.IsBackup {
		return nil, ErrNotLoaner
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.vehicleRepo.UpdateStatus(ctx, tx, vehicle.ID, VehicleAssigned, VehicleEnRoute); err != nil {
			if errors.Is(err, repositories.ErrStaleVehicleStatus) {
				return ErrNotHandedOver
			}
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "Vehicle",
			vehicle.ID.String(),
			fmt.Sprintf("backup %s handed over at gate", vehicle.Plate))
	})
	if err != nil {
		return nil, err
	}

	return c.vehicleRepo.GetByID(ctx, vehicle.ID)
}

// ReturnBackup takes a loaner back: driver cleared, status AVAILABLE, and the
// drop-off site recorded when given. The driver's own repaired vehicle leaves
// through the ordinary checkout flow.
func (c *GateController) ReturnBackup(
	ctx context.Context,
	actor *User,
	plate string,
	siteID *uuid.UUID,
) (*Vehicle, error) {
	if strings.TrimSpace(plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrValidation)
	}

	vehicle, err := c.vehicleRepo.GetByPlate(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle with plate %s", ErrNotFound, plate)
	}
	if !vehicle.IsBackup {
		return nil, ErrNotLoaner
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.vehicleRepo.ClearDriver(ctx, tx, vehicle.ID, VehicleAvailable); err != nil {
			return err
		}

		if siteID != nil {
			if err := c.vehicleRepo.SetSite(ctx, tx, vehicle.ID, *siteID); err != nil {
				return err
			}
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "Vehicle",
			vehicle.ID.String(),
			fmt.Sprintf("backup %s returned at gate", vehicle.Plate))
	})
	if err != nil {
		return nil, err
	}

	return c.vehicleRepo.GetByID(ctx, vehicle.ID)
}
