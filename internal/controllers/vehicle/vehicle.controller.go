package vehicleController

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetops/config"
	"fleetops/internal/database"
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

	ErrDecommissioned = fmt.Errorf("%w: vehicle is decommissioned", ErrPrecondition)
	ErrVehicleActive  = fmt.Errorf("%w: vehicle has an active maintenance case", ErrPrecondition)
)

type VehicleController struct {
	vehicleRepo        repositories.VehicleRepository
	documentRepo       repositories.DocumentRepository
	maintenanceRepo    repositories.MaintenanceRepository
	transactionService services.Transactor
	auditService       *services.AuditService
	db                 database.DB
	Config             config.Config
}

type CreateVehicleRequest struct {
	Plate    string     `json:"plate"`
	Make     string     `json:"make"`
	Model    string     `json:"model"`
	Year     int        `json:"year,omitempty"`
	DriverID *uuid.UUID `json:"driverId,omitempty"`
	SiteID   *uuid.UUID `json:"siteId,omitempty"`
	IsBackup bool       `json:"isBackup,omitempty"`
}

type AddDocumentRequest struct {
	Name       string     `json:"name"`
	StorageKey string     `json:"storageKey"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type VehicleControllerInterface interface {
	Create(ctx context.Context, actor *User, request *CreateVehicleRequest) (*Vehicle, error)
	Get(ctx context.Context, vehicleID uuid.UUID) (*Vehicle, error)
	List(ctx context.Context) ([]*Vehicle, error)
	Decommission(ctx context.Context, actor *User, vehicleID uuid.UUID) (*Vehicle, error)
	SwapDrivers(ctx context.Context, actor *User, vehicleAID, vehicleBID uuid.UUID) error
	AddDocument(ctx context.Context, actor *User, vehicleID uuid.UUID, request *AddDocumentRequest) (*VehicleDocument, error)
	ListDocuments(ctx context.Context, vehicleID uuid.UUID) ([]*VehicleDocument, error)
	DeleteDocument(ctx context.Context, actor *User, documentID uuid.UUID) error
	History(ctx context.Context, vehicleID uuid.UUID) ([]*MaintenanceCase, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) VehicleControllerInterface {
	return &VehicleController{
		vehicleRepo:        repos.Vehicle,
		documentRepo:       repos.Document,
		maintenanceRepo:    repos.Maintenance,
		transactionService: services.Transaction,
		auditService:       services.Audit,
		db:                 db,
		Config:             config,
	}
}

func (c *VehicleController) Create(
	ctx context.Context,
	actor *User,
	request *CreateVehicleRequest,
) (*Vehicle, error) {
	if NormalizePlate(request.Plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrValidation)
	}
	if strings.TrimSpace(request.Make) == "" || strings.TrimSpace(request.Model) == "" {
		return nil, fmt.Errorf("%w: make and model are required", ErrValidation)
	}

	if _, err := c.vehicleRepo.GetByPlate(ctx, request.Plate); err == nil {
		return nil, fmt.Errorf("%w: plate %s already registered", ErrPrecondition, NormalizePlate(request.Plate))
	}

	vehicle := &Vehicle{
		Plate:    request.Plate,
		Make:     strings.TrimSpace(request.Make),
		Model:    strings.TrimSpace(request.Model),
		Year:     request.Year,
		DriverID: request.DriverID,
		SiteID:   request.SiteID,
		IsBackup: request.IsBackup,
		Status:   VehicleAvailable,
	}

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.vehicleRepo.Create(ctx, tx, vehicle); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditCreate, "Vehicle",
			vehicle.ID.String(),
			fmt.Sprintf("vehicle %s registered", vehicle.Plate))
	})
	if err != nil {
		return nil, err
	}

	return c.vehicleRepo.GetByID(ctx, vehicle.ID)
}

func (c *VehicleController) Get(ctx context.Context, vehicleID uuid.UUID) (*Vehicle, error) {
	vehicle, err := c.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
	}
	return vehicle, nil
}

func (c *VehicleController) List(ctx context.Context) ([]*Vehicle, error) {
	return c.vehicleRepo.List(ctx)
}

// Decommission retires a vehicle. Refused while a maintenance case is open.
func (c *VehicleController) Decommission(
	ctx context.Context,
	actor *User,
	vehicleID uuid.UUID,
) (*Vehicle, error) {
	vehicle, err := c.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
	}
	if vehicle.Status == VehicleDecommissioned {
		return nil, ErrDecommissioned
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := c.maintenanceRepo.GetActiveByVehicle(ctx, tx, vehicleID); err == nil {
			return ErrVehicleActive
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := c.vehicleRepo.ClearDriver(ctx, tx, vehicleID, VehicleDecommissioned); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "Vehicle",
			vehicleID.String(),
			fmt.Sprintf("vehicle %s decommissioned", vehicle.Plate))
	})
	if err != nil {
		return nil, err
	}

	return c.vehicleRepo.GetByID(ctx, vehicleID)
}

// SwapDrivers exchanges the driver assignments of two vehicles in one
// transaction.
func (c *VehicleController) SwapDrivers(
	ctx context.Context,
	actor *User,
	vehicleAID, vehicleBID uuid.UUID,
) error {
	if vehicleAID == vehicleBID {
		return fmt.Errorf("%w: cannot swap a vehicle with itself", ErrValidation)
	}

	vehicleA, err := c.vehicleRepo.GetByID(ctx, vehicleAID)
	if err != nil {
		return fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleAID)
	}
	vehicleB, err := c.vehicleRepo.GetByID(ctx, vehicleBID)
	if err != nil {
		return fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleBID)
	}
	if vehicleA.Status == VehicleDecommissioned || vehicleB.Status == VehicleDecommissioned {
		return ErrDecommissioned
	}

	return c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.vehicleRepo.SetDriver(ctx, tx, vehicleA.ID, vehicleB.DriverID); err != nil {
			return err
		}
		if err := c.vehicleRepo.SetDriver(ctx, tx, vehicleB.ID, vehicleA.DriverID); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "Vehicle",
			vehicleA.ID.String(),
			fmt.Sprintf("drivers swapped between %s and %s", vehicleA.Plate, vehicleB.Plate))
	})
}

func (c *VehicleController) AddDocument(
	ctx context.Context,
	actor *User,
	vehicleID uuid.UUID,
	request *AddDocumentRequest,
) (*VehicleDocument, error) {
	if strings.TrimSpace(request.Name) == "" || strings.TrimSpace(request.StorageKey) == "" {
		return nil, fmt.Errorf("%w: name and storageKey are required", ErrValidation)
	}

	if _, err := c.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
	}

	doc := &VehicleDocument{
		VehicleID:  vehicleID,
		UploaderID: actor.ID,
		Name:       strings.TrimSpace(request.Name),
		StorageKey: request.StorageKey,
		ExpiresAt:  request.ExpiresAt,
	}

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.documentRepo.Create(ctx, tx, doc); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditCreate, "VehicleDocument",
			doc.ID.String(),
			fmt.Sprintf("document %q attached to vehicle %s", doc.Name, vehicleID))
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (c *VehicleController) ListDocuments(
	ctx context.Context,
	vehicleID uuid.UUID,
) ([]*VehicleDocument, error) {
	return c.documentRepo.ListByVehicle(ctx, vehicleID)
}

func (c *VehicleController) DeleteDocument(
	ctx context.Context,
	actor *User,
	documentID uuid.UUID,
) error {
	doc, err := c.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}

	return c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.documentRepo.Delete(ctx, tx, documentID); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditDelete, "VehicleDocument",
			documentID.String(),
			fmt.Sprintf("document %q removed", doc.Name))
	})
}

func (c *VehicleController) History(
	ctx context.Context,
	vehicleID uuid.UUID,
) ([]*MaintenanceCase, error) {
	return c.maintenanceRepo.ListByVehicle(ctx, vehicleID)
}
