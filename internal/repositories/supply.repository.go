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

// ErrSupplyDecided is returned when an approval matched no PENDING row.
var ErrSupplyDecided = errors.New("supply request already decided")

type SupplyRepository interface {
	Create(ctx context.Context, tx *gorm.DB, supply *Supply) error
	GetByID(ctx context.Context, id uuid.UUID) (*Supply, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Supply, error)
	ListPending(ctx context.Context) ([]*Supply, error)
	Decide(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		approverID uuid.UUID,
		status ApprovalStatus,
		at time.Time,
	) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type supplyRepository struct {
	db  database.DB
	log logger.Logger
}

func NewSupplyRepository(db database.DB) SupplyRepository {
	return &supplyRepository{
		db:  db,
		log: logger.New("supplyRepository"),
	}
}

func (r *supplyRepository) Create(ctx context.Context, tx *gorm.DB, supply *Supply) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(supply).Error; err != nil {
		return log.Err("failed to create supply", err, "caseID", supply.CaseID)
	}

	return nil
}

func (r *supplyRepository) GetByID(ctx context.Context, id uuid.UUID) (*Supply, error) {
	log := r.log.Function("GetByID")

	var supply Supply
	if err := r.db.SQLWithContext(ctx).
		Preload("Requester").
		Preload("Approver").
		First(&supply, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get supply", err, "supplyID", id)
	}

	return &supply, nil
}

func (r *supplyRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Supply, error) {
	log := r.log.Function("ListByCase")

	var supplies []*Supply
	if err := r.db.SQLWithContext(ctx).
		Where("case_id = ?", caseID).
		Order("requested_at ASC").
		Find(&supplies).Error; err != nil {
		return nil, log.Err("failed to list supplies", err, "caseID", caseID)
	}

	return supplies, nil
}

func (r *supplyRepository) ListPending(ctx context.Context) ([]*Supply, error) {
	log := r.log.Function("ListPending")

	var supplies []*Supply
	if err := r.db.SQLWithContext(ctx).
		Preload("Requester").
		Where("status = ?", ApprovalPending).
		Order("requested_at ASC").
		Find(&supplies).Error; err != nil {
		return nil, log.Err("failed to list pending supplies", err)
	}

	return supplies, nil
}

// Decide approves or rejects a pending supply, guarded against double
// decisions.
func (r *supplyRepository) Decide(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	approverID uuid.UUID,
	status ApprovalStatus,
	at time.Time,
) error {
	log := r.log.Function("Decide")

	result := tx.WithContext(ctx).
		Model(&Supply{}).
		Where("id = ? AND status = ?", id, ApprovalPending).
		Updates(map[string]any{
			"status":      status,
			"approver_id": approverID,
			"approved_at": at,
		})
	if result.Error != nil {
		return log.Err("failed to decide supply", result.Error, "supplyID", id)
	}
	if result.RowsAffected == 0 {
		return ErrSupplyDecided
	}

	return nil
}

func (r *supplyRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := r.log.Function("Delete")

	if err := tx.WithContext(ctx).Delete(&Supply{}, "id = ?", id).Error; err != nil {
		return log.Err("failed to delete supply", err, "supplyID", id)
	}

	return nil
}
