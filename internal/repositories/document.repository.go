package repositories

import (
	"context"
	"time"

	"fleetops/internal/database"
	"fleetops/internal/logger"
	. "fleetops/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, doc *VehicleDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*VehicleDocument, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*VehicleDocument, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*VehicleDocument, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type documentRepository struct {
	db  database.DB
	log logger.Logger
}

func NewDocumentRepository(db database.DB) DocumentRepository {
	return &documentRepository{
		db:  db,
		log: logger.New("documentRepository"),
	}
}

func (r *documentRepository) Create(ctx context.Context, tx *gorm.DB, doc *VehicleDocument) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(doc).Error; err != nil {
		return log.Err("failed to create vehicle document", err, "vehicleID", doc.VehicleID)
	}

	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*VehicleDocument, error) {
	log := r.log.Function("GetByID")

	var doc VehicleDocument
	if err := r.db.SQLWithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get vehicle document", err, "documentID", id)
	}

	return &doc, nil
}

func (r *documentRepository) ListByVehicle(
	ctx context.Context,
	vehicleID uuid.UUID,
) ([]*VehicleDocument, error) {
	log := r.log.Function("ListByVehicle")

	var docs []*VehicleDocument
	if err := r.db.SQLWithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("created_at ASC").
		Find(&docs).Error; err != nil {
		return nil, log.Err("failed to list vehicle documents", err, "vehicleID", vehicleID)
	}

	return docs, nil
}

// ListExpiringBefore feeds the daily expiry sweep.
func (r *documentRepository) ListExpiringBefore(
	ctx context.Context,
	cutoff time.Time,
) ([]*VehicleDocument, error) {
	log := r.log.Function("ListExpiringBefore")

	var docs []*VehicleDocument
	if err := r.db.SQLWithContext(ctx).
		Preload("Vehicle").
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Order("expires_at ASC").
		Find(&docs).Error; err != nil {
		return nil, log.Err("failed to list expiring documents", err, "cutoff", cutoff)
	}

	return docs, nil
}

func (r *documentRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := r.log.Function("Delete")

	if err := tx.WithContext(ctx).Delete(&VehicleDocument{}, "id = ?", id).Error; err != nil {
		return log.Err("failed to delete vehicle document", err, "documentID", id)
	}

	return nil
}
