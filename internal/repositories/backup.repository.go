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

// ErrBackupRequestClosed is returned when a fulfill or cancel matched no
// PENDING row, meaning the request was already decided.
var ErrBackupRequestClosed = errors.New("backup request is no longer pending")

type BackupRepository interface {
	Create(ctx context.Context, tx *gorm.DB, request *BackupRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*BackupRequest, error)
	GetPendingByDriver(ctx context.Context, tx *gorm.DB, driverID uuid.UUID) (*BackupRequest, error)
	ListPending(ctx context.Context) ([]*BackupRequest, error)
	ListFulfilledInRange(ctx context.Context, from, to time.Time) ([]*BackupRequest, error)
	Fulfill(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		fulfillerID, vehicleID uuid.UUID,
		at time.Time,
	) error
	Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type backupRepository struct {
	db  database.DB
	log logger.Logger
}

func NewBackupRepository(db database.DB) BackupRepository {
	return &backupRepository{
		db:  db,
		log: logger.New("backupRepository"),
	}
}

func (r *backupRepository) Create(ctx context.Context, tx *gorm.DB, request *BackupRequest) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(request).Error; err != nil {
		return log.Err("failed to create backup request", err, "driverID", request.DriverID)
	}

	return nil
}

func (r *backupRepository) GetByID(ctx context.Context, id uuid.UUID) (*BackupRequest, error) {
	log := r.log.Function("GetByID")

	var request BackupRequest
	if err := r.db.SQLWithContext(ctx).
		Preload("Driver").
		Preload("Fulfiller").
		Preload("Vehicle").
		First(&request, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get backup request", err, "requestID", id)
	}

	return &request, nil
}

func (r *backupRepository) GetPendingByDriver(
	ctx context.Context,
	tx *gorm.DB,
	driverID uuid.UUID,
) (*BackupRequest, error) {
	var request BackupRequest
	err := tx.WithContext(ctx).
		Where("driver_id = ? AND status = ?", driverID, BackupPending).
		First(&request).Error
	if err != nil {
		return nil, err
	}

	return &request, nil
}

func (r *backupRepository) ListPending(ctx context.Context) ([]*BackupRequest, error) {
	log := r.log.Function("ListPending")

	var requests []*BackupRequest
	if err := r.db.SQLWithContext(ctx).
		Preload("Driver").
		Where("status = ?", BackupPending).
		Order("requested_at ASC").
		Find(&requests).Error; err != nil {
		return nil, log.Err("failed to list pending backup requests", err)
	}

	return requests, nil
}

func (r *backupRepository) ListFulfilledInRange(
	ctx context.Context,
	from, to time.Time,
) ([]*BackupRequest, error) {
	log := r.log.Function("ListFulfilledInRange")

	var requests []*BackupRequest
	if err := r.db.SQLWithContext(ctx).
		Preload("Driver").
		Preload("Vehicle").
		Where("status = ? AND fulfilled_at >= ? AND fulfilled_at < ?", BackupFulfilled, from, to).
		Order("fulfilled_at ASC").
		Find(&requests).Error; err != nil {
		return nil, log.Err("failed to list fulfilled backup requests", err)
	}

	return requests, nil
}

// Fulfill closes a pending request, guarded against a concurrent decision.
func (r *backupRepository) Fulfill(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	fulfillerID, vehicleID uuid.UUID,
	at time.Time,
) error {
	log := r.log.Function("Fulfill")

	result := tx.WithContext(ctx).
		Model(&BackupRequest{}).
		Where("id = ? AND status = ?", id, BackupPending).
		Updates(map[string]any{
			"status":       BackupFulfilled,
			"fulfiller_id": fulfillerID,
			"vehicle_id":   vehicleID,
			"fulfilled_at": at,
		})
	if result.Error != nil {
		return log.Err("failed to fulfill backup request", result.Error, "requestID", id)
	}
	if result.RowsAffected == 0 {
		return ErrBackupRequestClosed
	}

	return nil
}

func (r *backupRepository) Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := r.log.Function("Cancel")

	result := tx.WithContext(ctx).
		Model(&BackupRequest{}).
		Where("id = ? AND status = ?", id, BackupPending).
		Update("status", BackupCancelled)
	if result.Error != nil {
		return log.Err("failed to cancel backup request", result.Error, "requestID", id)
	}
	if result.RowsAffected == 0 {
		return ErrBackupRequestClosed
	}

	return nil
}
