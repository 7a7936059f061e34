package repositories

import (
	"context"
	"time"

	"fleetops/internal/database"
	"fleetops/internal/logger"
	. "fleetops/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaintenanceRepository interface {
	Create(ctx context.Context, tx *gorm.DB, mc *MaintenanceCase) error
	GetByID(ctx context.Context, id uuid.UUID) (*MaintenanceCase, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*MaintenanceCase, error)
	Update(ctx context.Context, tx *gorm.DB, mc *MaintenanceCase) error
	GetActiveByVehicle(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID) (*MaintenanceCase, error)
	ListByStatus(ctx context.Context, statuses []CaseStatus) ([]*MaintenanceCase, error)
	ListByMechanic(ctx context.Context, mechanicID uuid.UUID) ([]*MaintenanceCase, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*MaintenanceCase, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*MaintenanceCase, error)
	ValidatedByDriver(ctx context.Context, tx *gorm.DB, driverID uuid.UUID) (*MaintenanceCase, error)
	ListFinalizedInRange(ctx context.Context, from, to time.Time) ([]*MaintenanceCase, error)
	OldestScheduledByVehicle(
		ctx context.Context,
		tx *gorm.DB,
		vehicleID uuid.UUID,
	) (*MaintenanceCase, error)
	CountByStatus(ctx context.Context) (map[CaseStatus]int64, error)

	CreateObservation(ctx context.Context, tx *gorm.DB, obs *Observation) error
	ListObservations(ctx context.Context, caseID uuid.UUID) ([]*Observation, error)
	ListRejections(ctx context.Context, caseID uuid.UUID) ([]*Observation, error)

	CreatePause(ctx context.Context, tx *gorm.DB, pause *Pause) error
	GetOpenPause(ctx context.Context, tx *gorm.DB, caseID uuid.UUID) (*Pause, error)
	UpdatePause(ctx context.Context, tx *gorm.DB, pause *Pause) error

	CreatePhoto(ctx context.Context, tx *gorm.DB, photo *CasePhoto) error
	ListPhotos(ctx context.Context, caseID uuid.UUID) ([]*CasePhoto, error)
}

type maintenanceRepository struct {
	db  database.DB
	log logger.Logger
}

func NewMaintenanceRepository(db database.DB) MaintenanceRepository {
	return &maintenanceRepository{
		db:  db,
		log: logger.New("maintenanceRepository"),
	}
}

func (r *maintenanceRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	mc *MaintenanceCase,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(mc).Error; err != nil {
		return log.Err("failed to create maintenance case", err, "vehicleID", mc.VehicleID)
	}

	return nil
}

func (r *maintenanceRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*MaintenanceCase, error) {
	log := r.log.Function("GetByID")

	var mc MaintenanceCase
	if err := r.db.SQLWithContext(ctx).
		Preload("Vehicle").
		Preload("Requester").
		Preload("Mechanic").
		Preload("Supervisor").
		Preload("Workshop").
		Preload("Supplies").
		Preload("Pauses").
		Preload("Observations").
		Preload("Photos").
		First(&mc, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get maintenance case", err, "caseID", id)
	}

	return &mc, nil
}

// GetByIDForUpdate loads the case inside the caller's transaction with a row
// lock so status transitions serialize per case.
func (r *maintenanceRepository) GetByIDForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*MaintenanceCase, error) {
	var mc MaintenanceCase
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&mc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &mc, nil
}

func (r *maintenanceRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	mc *MaintenanceCase,
) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(mc).Error; err != nil {
		return log.Err("failed to update maintenance case", err, "caseID", mc.ID)
	}

	return nil
}

func (r *maintenanceRepository) GetActiveByVehicle(
	ctx context.Context,
	tx *gorm.DB,
	vehicleID uuid.UUID,
) (*MaintenanceCase, error) {
	var mc MaintenanceCase
	err := tx.WithContext(ctx).
		Where("vehicle_id = ? AND status IN ?", vehicleID, ActiveCaseStatuses).
		First(&mc).Error
	if err != nil {
		return nil, err
	}

	return &mc, nil
}

func (r *maintenanceRepository) ListByStatus(
	ctx context.Context,
	statuses []CaseStatus,
) ([]*MaintenanceCase, error) {
	log := r.log.Function("ListByStatus")

	var cases []*MaintenanceCase
	if err := r.db.SQLWithContext(ctx).
		Preload("Vehicle").
		Preload("Mechanic").
		Where("status IN ?", statuses).
		Order("requested_at ASC").
		Find(&cases).Error; err != nil {
		return nil, log.Err("failed to list cases by status", err, "statuses", statuses)
	}

	return cases, nil
}

func (r *maintenanceRepository) ListByMechanic(
	ctx context.Context,
	mechanicID uuid.UUID,
) ([]*MaintenanceCase, error) {
	log := r.log.Function("ListByMechanic")

	var cases []*MaintenanceCase
	if err := r.db.SQLWithContext(ctx).
		Preload("Vehicle").
		Where("mechanic_id = ? AND status IN ?", mechanicID, ActiveCaseStatuses).
		Order("requested_at ASC").
		Find(&cases).Error; err != nil {
		return nil, log.Err("failed to list cases by mechanic", err, "mechanicID", mechanicID)
	}

	return cases, nil
}

func (r *maintenanceRepository) ListByVehicle(
	ctx context.Context,
	vehicleID uuid.UUID,
) ([]*MaintenanceCase, error) {
	log := r.log.Function("ListByVehicle")

	var cases []*MaintenanceCase
	if err := r.db.SQLWithContext(ctx).
		Preload("Mechanic").
		Where("vehicle_id = ?", vehicleID).
		Order("requested_at DESC").
		Find(&cases).Error; err != nil {
		return nil, log.Err("failed to list cases by vehicle", err, "vehicleID", vehicleID)
	}

	return cases, nil
}

func (r *maintenanceRepository) ListByRequester(
	ctx context.Context,
	requesterID uuid.UUID,
) ([]*MaintenanceCase, error) {
	log := r.log.Function("ListByRequester")

	var cases []*MaintenanceCase
	if err := r.db.SQLWithContext(ctx).
		Preload("Vehicle").
		Where("requester_id = ?", requesterID).
		Order("requested_at DESC").
		Find(&cases).Error; err != nil {
		return nil, log.Err("failed to list cases by requester", err, "requesterID", requesterID)
	}

	return cases, nil
}

// ValidatedByDriver finds the case holding a driver's primary vehicle in the
// workshop with a validated repair, ready for the gate exchange.
func (r *maintenanceRepository) ValidatedByDriver(
	ctx context.Context,
	tx *gorm.DB,
	driverID uuid.UUID,
) (*MaintenanceCase, error) {
	var mc MaintenanceCase
	err := tx.WithContext(ctx).
		Preload("Vehicle").
		Joins("JOIN vehicles ON vehicles.id = maintenance_cases.vehicle_id").
		Where("vehicles.driver_id = ? AND vehicles.is_backup = ?", driverID, false).
		Where("maintenance_cases.status = ?", CaseValidated).
		First(&mc).Error
	if err != nil {
		return nil, err
	}

	return &mc, nil
}

func (r *maintenanceRepository) ListFinalizedInRange(
	ctx context.Context,
	from, to time.Time,
) ([]*MaintenanceCase, error) {
	log := r.log.Function("ListFinalizedInRange")

	var cases []*MaintenanceCase
	if err := r.db.SQLWithContext(ctx).
		Preload("Vehicle").
		Preload("Requester").
		Preload("Supplies").
		Where("status = ? AND departed_at >= ? AND departed_at < ?", CaseFinalized, from, to).
		Order("departed_at ASC").
		Find(&cases).Error; err != nil {
		return nil, log.Err("failed to list finalized cases in range", err)
	}

	return cases, nil
}

// OldestScheduledByVehicle picks the check-in candidate when a vehicle arrives
// at the gate with more than one scheduled case.
func (r *maintenanceRepository) OldestScheduledByVehicle(
	ctx context.Context,
	tx *gorm.DB,
	vehicleID uuid.UUID,
) (*MaintenanceCase, error) {
	var mc MaintenanceCase
	err := tx.WithContext(ctx).
		Where("vehicle_id = ? AND status = ?", vehicleID, CaseScheduled).
		Order("requested_at ASC").
		First(&mc).Error
	if err != nil {
		return nil, err
	}

	return &mc, nil
}

func (r *maintenanceRepository) CountByStatus(
	ctx context.Context,
) (map[CaseStatus]int64, error) {
	log := r.log.Function("CountByStatus")

	var rows []struct {
		Status CaseStatus
		Count  int64
	}
	if err := r.db.SQLWithContext(ctx).
		Model(&MaintenanceCase{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, log.Err("failed to count cases by status", err)
	}

	counts := make(map[CaseStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

func (r *maintenanceRepository) CreateObservation(
	ctx context.Context,
	tx *gorm.DB,
	obs *Observation,
) error {
	log := r.log.Function("CreateObservation")

	if err := tx.WithContext(ctx).Create(obs).Error; err != nil {
		return log.Err("failed to create observation", err, "caseID", obs.CaseID)
	}

	return nil
}

func (r *maintenanceRepository) ListObservations(
	ctx context.Context,
	caseID uuid.UUID,
) ([]*Observation, error) {
	log := r.log.Function("ListObservations")

	var observations []*Observation
	if err := r.db.SQLWithContext(ctx).
		Preload("Author").
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&observations).Error; err != nil {
		return nil, log.Err("failed to list observations", err, "caseID", caseID)
	}

	return observations, nil
}

func (r *maintenanceRepository) ListRejections(
	ctx context.Context,
	caseID uuid.UUID,
) ([]*Observation, error) {
	log := r.log.Function("ListRejections")

	var observations []*Observation
	if err := r.db.SQLWithContext(ctx).
		Where("case_id = ? AND text LIKE ?", caseID, ObservationTagRejection+"%").
		Order("created_at ASC").
		Find(&observations).Error; err != nil {
		return nil, log.Err("failed to list rejections", err, "caseID", caseID)
	}

	return observations, nil
}

func (r *maintenanceRepository) CreatePause(ctx context.Context, tx *gorm.DB, pause *Pause) error {
	log := r.log.Function("CreatePause")

	if err := tx.WithContext(ctx).Create(pause).Error; err != nil {
		return log.Err("failed to create pause", err, "caseID", pause.CaseID)
	}

	return nil
}

func (r *maintenanceRepository) GetOpenPause(
	ctx context.Context,
	tx *gorm.DB,
	caseID uuid.UUID,
) (*Pause, error) {
	var pause Pause
	err := tx.WithContext(ctx).
		Where("case_id = ? AND ended_at IS NULL", caseID).
		First(&pause).Error
	if err != nil {
		return nil, err
	}

	return &pause, nil
}

func (r *maintenanceRepository) UpdatePause(ctx context.Context, tx *gorm.DB, pause *Pause) error {
	log := r.log.Function("UpdatePause")

	if err := tx.WithContext(ctx).Save(pause).Error; err != nil {
		return log.Err("failed to update pause", err, "pauseID", pause.ID)
	}

	return nil
}

func (r *maintenanceRepository) CreatePhoto(
	ctx context.Context,
	tx *gorm.DB,
	photo *CasePhoto,
) error {
	log := r.log.Function("CreatePhoto")

	if err := tx.WithContext(ctx).Create(photo).Error; err != nil {
		return log.Err("failed to create case photo", err, "caseID", photo.CaseID)
	}

	return nil
}

func (r *maintenanceRepository) ListPhotos(
	ctx context.Context,
	caseID uuid.UUID,
) ([]*CasePhoto, error) {
	log := r.log.Function("ListPhotos")

	var photos []*CasePhoto
	if err := r.db.SQLWithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&photos).Error; err != nil {
		return nil, log.Err("failed to list case photos", err, "caseID", caseID)
	}

	return photos, nil
}
