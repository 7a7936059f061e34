package backupController

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

	ErrDuplicatePending = fmt.Errorf("%w: driver already has a pending request", ErrPrecondition)
	ErrNotBackup        = fmt.Errorf("%w: vehicle is not a backup loaner", ErrPrecondition)
	ErrLoanerBusy       = fmt.Errorf("%w: loaner vehicle is not available", ErrPrecondition)
	ErrDriverEnRoute    = fmt.Errorf("%w: driver already has a vehicle en route", ErrPrecondition)
	ErrPrimaryNotInShop = fmt.Errorf("%w: primary vehicle is not in the workshop", ErrPrecondition)
	ErrRequestClosed    = fmt.Errorf("%w: request is no longer pending", ErrPrecondition)
	ErrNotOwnRequest    = fmt.Errorf("%w: request belongs to another driver", ErrPrecondition)
)

type BackupController struct {
	backupRepo         repositories.BackupRepository
	vehicleRepo        repositories.VehicleRepository
	transactionService services.Transactor
	auditService       *services.AuditService
	eventBus           events.Notifier
	db                 database.DB
	Config             config.Config
}

type BackupControllerInterface interface {
	Request(ctx context.Context, actor *User, reason string) (*BackupRequest, error)
	Cancel(ctx context.Context, actor *User, requestID uuid.UUID) (*BackupRequest, error)
	Fulfill(ctx context.Context, actor *User, requestID, vehicleID uuid.UUID) (*BackupRequest, error)
	ListPending(ctx context.Context) ([]*BackupRequest, error)
	ListAvailableLoaners(ctx context.Context) ([]*Vehicle, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus events.Notifier,
	config config.Config,
	db database.DB,
) BackupControllerInterface {
	return &BackupController{
		backupRepo:         repos.Backup,
		vehicleRepo:        repos.Vehicle,
		transactionService: services.Transaction,
		auditService:       services.Audit,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

// Request opens a loaner request for the driver. One pending request per
// driver at a time.
func (c *BackupController) Request(
	ctx context.Context,
	actor *User,
	reason string,
) (*BackupRequest, error) {
	log := logger.New("backupController").Function("Request")

	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}

	request := &BackupRequest{
		DriverID:    actor.ID,
		Reason:      strings.TrimSpace(reason),
		RequestedAt: time.Now(),
		Status:      BackupPending,
	}

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := c.backupRepo.GetPendingByDriver(ctx, tx, actor.ID); err == nil {
			return ErrDuplicatePending
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := c.backupRepo.Create(ctx, tx, request); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditCreate, "BackupRequest",
			request.ID.String(), "backup vehicle requested")
	})
	if err != nil {
		return nil, err
	}

	if err := c.eventBus.NotifyAll(events.BACKUP_REQUESTED, map[string]any{
		"requestId": request.ID.String(),
		"driverId":  actor.ID.String(),
	}); err != nil {
		log.Warn("failed to publish backup requested event", "requestID", request.ID, "error", err)
	}

	return request, nil
}

// Cancel withdraws the driver's own pending request.
func (c *BackupController) Cancel(
	ctx context.Context,
	actor *User,
	requestID uuid.UUID,
) (*BackupRequest, error) {
	request, err := c.backupRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%w: backup request %s", ErrNotFound, requestID)
	}
	if request.DriverID != actor.ID {
		return nil, ErrNotOwnRequest
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.backupRepo.Cancel(ctx, tx, requestID); err != nil {
			if errors.Is(err, repositories.ErrBackupRequestClosed) {
				return ErrRequestClosed
			}
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "BackupRequest",
			requestID.String(), "backup request cancelled by driver")
	})
	if err != nil {
		return nil, err
	}

	return c.backupRepo.GetByID(ctx, requestID)
}

// Fulfill grants a loaner. Preconditions: the loaner is a backup vehicle and
// AVAILABLE, the driver has nothing EN_ROUTE, and the driver's primary is
// absent or IN_SERVICE. The loaner is assigned on paper (ASSIGNED); a guard
// records the physical handover separately.
func (c *BackupController) Fulfill(
	ctx context.Context,
	actor *User,
	requestID, vehicleID uuid.UUID,
) (*BackupRequest, error) {
	log := logger.New("backupController").Function("Fulfill")

	if vehicleID == uuid.Nil {
		return nil, fmt.Errorf("%w: vehicleId is required", ErrValidation)
	}

	request, err := c.backupRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%w: backup request %s", ErrNotFound, requestID)
	}

	loaner, err := c.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
	}
	if !loaner.IsBackup {
		return nil, ErrNotBackup
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := c.vehicleRepo.GetDriverEnRoute(ctx, tx, request.DriverID); err == nil {
			return ErrDriverEnRoute
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		primaries, err := c.vehicleRepo.ListByDriver(ctx, request.DriverID)
		if err != nil {
			return err
		}
		for _, primary := range primaries {
			if primary.IsBackup || primary.ID == loaner.ID {
				continue
			}
			if primary.Status != VehicleInService {
				return ErrPrimaryNotInShop
			}
		}

		// Compare-and-swap on AVAILABLE doubles as the double-assignment
		// guard: a concurrent fulfillment already moved the loaner.
		if err := c.vehicleRepo.AssignDriver(
			ctx, tx, loaner.ID, request.DriverID, VehicleAvailable, VehicleAssigned,
		); err != nil {
			if errors.Is(err, repositories.ErrStaleVehicleStatus) {
				return ErrLoanerBusy
			}
			return err
		}

		if err := c.backupRepo.Fulfill(ctx, tx, requestID, actor.ID, loaner.ID, time.Now()); err != nil {
			if errors.Is(err, repositories.ErrBackupRequestClosed) {
				return ErrRequestClosed
			}
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "BackupRequest",
			requestID.String(),
			fmt.Sprintf("backup %s assigned to driver %s", loaner.Plate, request.DriverID))
	})
	if err != nil {
		return nil, err
	}

	if err := c.eventBus.NotifyUser(request.DriverID, events.BACKUP_ASSIGNED, map[string]any{
		"requestId": requestID.String(),
		"vehicleId": loaner.ID.String(),
		"plate":     loaner.Plate,
	}); err != nil {
		log.Warn("failed to publish backup assigned event", "requestID", requestID, "error", err)
	}

	return c.backupRepo.GetByID(ctx, requestID)
}

func (c *BackupController) ListPending(ctx context.Context) ([]*BackupRequest, error) {
	return c.backupRepo.ListPending(ctx)
}

func (c *BackupController) ListAvailableLoaners(ctx context.Context) ([]*Vehicle, error) {
	return c.vehicleRepo.ListAvailableBackups(ctx)
}
