package repositories

import (
	"context"
	"errors"
	"time"

	"fleetops/internal/database"
	"fleetops/internal/logger"
	. "fleetops/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VEHICLE_ROSTER_CACHE_KEY    = "vehicle:roster"
	VEHICLE_ROSTER_CACHE_EXPIRY = 5 * time.Minute
)

// ErrStaleVehicleStatus is returned when a guarded status update matched no
// row, meaning another writer moved the vehicle first.
var ErrStaleVehicleStatus = errors.New("vehicle status changed concurrently")

type VehicleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*Vehicle, error)
	Create(ctx context.Context, tx *gorm.DB, vehicle *Vehicle) error
	Update(ctx context.Context, tx *gorm.DB, vehicle *Vehicle) error
	List(ctx context.Context) ([]*Vehicle, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*Vehicle, error)
	ListAvailableBackups(ctx context.Context) ([]*Vehicle, error)
	GetDriverEnRoute(ctx context.Context, tx *gorm.DB, driverID uuid.UUID) (*Vehicle, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to VehicleStatus) error
	ForceStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, to VehicleStatus) error
	SetDriverAndStatus(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		driverID uuid.UUID,
		to VehicleStatus,
	) error
	AssignDriver(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		driverID uuid.UUID,
		from, to VehicleStatus,
	) error
	ClearDriver(ctx context.Context, tx *gorm.DB, id uuid.UUID, to VehicleStatus) error
	SetDriver(ctx context.Context, tx *gorm.DB, id uuid.UUID, driverID *uuid.UUID) error
	SetSite(ctx context.Context, tx *gorm.DB, id uuid.UUID, siteID uuid.UUID) error
	InvalidateRoster(ctx context.Context) error
}

type vehicleRepository struct {
	db  database.DB
	log logger.Logger
}

func NewVehicleRepository(db database.DB) VehicleRepository {
	return &vehicleRepository{
		db:  db,
		log: logger.New("vehicleRepository"),
	}
}

func (r *vehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	log := r.log.Function("GetByID")

	var vehicle Vehicle
	if err := r.db.SQLWithContext(ctx).
		Preload("Driver").
		Preload("Site").
		First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get vehicle", err, "vehicleID", id)
	}

	return &vehicle, nil
}

func (r *vehicleRepository) GetByPlate(ctx context.Context, plate string) (*Vehicle, error) {
	log := r.log.Function("GetByPlate")

	var vehicle Vehicle
	if err := r.db.SQLWithContext(ctx).
		First(&vehicle, "plate = ?", NormalizePlate(plate)).Error; err != nil {
		return nil, log.Err("failed to get vehicle by plate", err, "plate", plate)
	}

	return &vehicle, nil
}

func (r *vehicleRepository) Create(ctx context.Context, tx *gorm.DB, vehicle *Vehicle) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(vehicle).Error; err != nil {
		return log.Err("failed to create vehicle", err, "plate", vehicle.Plate)
	}

	if err := r.InvalidateRoster(ctx); err != nil {
		log.Warn("failed to invalidate vehicle roster cache", "error", err)
	}

	return nil
}

func (r *vehicleRepository) Update(ctx context.Context, tx *gorm.DB, vehicle *Vehicle) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(vehicle).Error; err != nil {
		return log.Err("failed to update vehicle", err, "vehicleID", vehicle.ID)
	}

	if err := r.InvalidateRoster(ctx); err != nil {
		log.Warn("failed to invalidate vehicle roster cache", "error", err)
	}

	return nil
}

func (r *vehicleRepository) List(ctx context.Context) ([]*Vehicle, error) {
	log := r.log.Function("List")

	var vehicles []*Vehicle
	if found, _ := database.NewCacheBuilder(r.db.Cache.General, VEHICLE_ROSTER_CACHE_KEY).
		WithContext(ctx).
		Get(&vehicles); found {
		return vehicles, nil
	}

	if err := r.db.SQLWithContext(ctx).
		Preload("Driver").
		Order("plate ASC").
		Find(&vehicles).Error; err != nil {
		return nil, log.Err("failed to list vehicles", err)
	}

	if err := database.NewCacheBuilder(r.db.Cache.General, VEHICLE_ROSTER_CACHE_KEY).
		WithStruct(vehicles).
		WithTTL(VEHICLE_ROSTER_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		log.Warn("failed to cache vehicle roster", "error", err)
	}

	return vehicles, nil
}

func (r *vehicleRepository) ListByDriver(
	ctx context.Context,
	driverID uuid.UUID,
) ([]*Vehicle, error) {
	log := r.log.Function("ListByDriver")

	var vehicles []*Vehicle
	if err := r.db.SQLWithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("is_backup ASC, plate ASC").
		Find(&vehicles).Error; err != nil {
		return nil, log.Err("failed to list driver vehicles", err, "driverID", driverID)
	}

	return vehicles, nil
}

func (r *vehicleRepository) ListAvailableBackups(ctx context.Context) ([]*Vehicle, error) {
	log := r.log.Function("ListAvailableBackups")

	var vehicles []*Vehicle
	if err := r.db.SQLWithContext(ctx).
		Where("is_backup = ? AND status = ?", true, VehicleAvailable).
		Order("plate ASC").
		Find(&vehicles).Error; err != nil {
		return nil, log.Err("failed to list available backup vehicles", err)
	}

	return vehicles, nil
}

func (r *vehicleRepository) GetDriverEnRoute(
	ctx context.Context,
	tx *gorm.DB,
	driverID uuid.UUID,
) (*Vehicle, error) {
	var vehicle Vehicle
	err := tx.WithContext(ctx).
		Where("driver_id = ? AND status = ?", driverID, VehicleEnRoute).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}

	return &vehicle, nil
}

// UpdateStatus moves a vehicle between statuses with a compare-and-swap on the
// current status. A zero row count means someone else won the race.
func (r *vehicleRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	from, to VehicleStatus,
) error {
	log := r.log.Function("UpdateStatus")

	result := tx.WithContext(ctx).
		Model(&Vehicle{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return log.Err("failed to update vehicle status", result.Error, "vehicleID", id)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVehicleStatus
	}

	if err := r.InvalidateRoster(ctx); err != nil {
		log.Warn("failed to invalidate vehicle roster cache", "error", err)
	}

	return nil
}

// ForceStatus sets the status regardless of the previous one. Used at the
// gate where the arrival status is not known in advance.
func (r *vehicleRepository) ForceStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	to VehicleStatus,
) error {
	log := r.log.Function("ForceStatus")

	if err := tx.WithContext(ctx).
		Model(&Vehicle{}).
		Where("id = ?", id).
		Update("status", to).Error; err != nil {
		return log.Err("failed to force vehicle status", err, "vehicleID", id)
	}

	if err := r.InvalidateRoster(ctx); err != nil {
		log.Warn("failed to invalidate vehicle roster cache", "error", err)
	}

	return nil
}

func (r *vehicleRepository) SetDriverAndStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	driverID uuid.UUID,
	to VehicleStatus,
) error {
	log := r.log.Function("SetDriverAndStatus")

	if err := tx.WithContext(ctx).
		Model(&Vehicle{}).
		Where("id = ?", id).
		Updates(map[string]any{"driver_id": driverID, "status": to}).Error; err != nil {
		return log.Err("failed to set driver and status", err, "vehicleID", id)
	}

	if err := r.InvalidateRoster(ctx); err != nil {
		log.Warn("failed to invalidate vehicle roster cache", "error", err)
	}

	return nil
}

func (r *vehicleRepository) AssignDriver(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	driverID uuid.UUID,
	from, to VehicleStatus,
) error {
	log := r.log.Function("AssignDriver")

	result := tx.WithContext(ctx).
		Model(&Vehicle{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"driver_id": driverID, "status": to})
	if result.Error != nil {
		return log.Err("failed to assign driver", result.Error, "vehicleID", id, "driverID", driverID)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVehicleStatus
	}

	if err := r.InvalidateRoster(ctx); err != nil {
		log.Warn("failed to invalidate vehicle roster cache", "error", err)
	}

	return nil
}

func (r *vehicleRepository) ClearDriver(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	to VehicleStatus,
) error {
	log := r.log.Function("ClearDriver")

	result := tx.WithContext(ctx).
		Model(&Vehicle{}).
		Where("id = ?", id).
		Updates(map[string]any{"driver_id": nil, "status": to})
	if result.Error != nil {
		return log.Err("failed to clear driver", result.Error, "vehicleID", id)
	}

	if err := r.InvalidateRoster(ctx); err != nil {
		log.Warn("failed to invalidate vehicle roster cache", "error", err)
	}

	return nil
}

// SetDriver reassigns the driver without touching the status. A nil driver
// clears the assignment.
func (r *vehicleRepository) SetDriver(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	driverID *uuid.UUID,
) error {
	log := r.log.Function("SetDriver")

	if err := tx.WithContext(ctx).
		Model(&Vehicle{}).
		Where("id = ?", id).
		Update("driver_id", driverID).Error; err != nil {
		return log.Err("failed to set vehicle driver", err, "vehicleID", id)
	}

	if err := r.InvalidateRoster(ctx); err != nil {
		log.Warn("failed to invalidate vehicle roster cache", "error", err)
	}

	return nil
}

func (r *vehicleRepository) SetSite(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	siteID uuid.UUID,
) error {
	log := r.log.Function("SetSite")

	if err := tx.WithContext(ctx).
		Model(&Vehicle{}).
		Where("id = ?", id).
		Update("site_id", siteID).Error; err != nil {
		return log.Err("failed to set vehicle site", err, "vehicleID", id, "siteID", siteID)
	}

	if err := r.InvalidateRoster(ctx); err != nil {
		log.Warn("failed to invalidate vehicle roster cache", "error", err)
	}

	return nil
}

func (r *vehicleRepository) InvalidateRoster(ctx context.Context) error {
	return database.NewCacheBuilder(r.db.Cache.General, VEHICLE_ROSTER_CACHE_KEY).
		WithContext(ctx).
		Delete()
}
