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

var (
	// ErrSlotTaken is returned when a reservation matched no free row, meaning
	// a concurrent writer reserved the slot first.
	ErrSlotTaken = errors.New("slot already reserved")

	// ErrSlotReserved is returned when a delete targeted a reserved slot.
	ErrSlotReserved = errors.New("slot is reserved and cannot be deleted")
)

type ScheduleRepository interface {
	CreateSlots(ctx context.Context, tx *gorm.DB, slots []*ScheduleSlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduleSlot, error)
	GetByCase(ctx context.Context, caseID uuid.UUID) (*ScheduleSlot, error)
	ListFree(
		ctx context.Context,
		workshopID uuid.UUID,
		serviceType ServiceType,
		from time.Time,
	) ([]*ScheduleSlot, error)
	Reserve(ctx context.Context, tx *gorm.DB, slotID, caseID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, caseID uuid.UUID) error
	DeleteFree(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error
	CountFreeBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteFreeInRange(
		ctx context.Context,
		tx *gorm.DB,
		workshopID uuid.UUID,
		from, to time.Time,
		serviceType ServiceType,
	) (int64, error)
}

type scheduleRepository struct {
	db  database.DB
	log logger.Logger
}

func NewScheduleRepository(db database.DB) ScheduleRepository {
	return &scheduleRepository{
		db:  db,
		log: logger.New("scheduleRepository"),
	}
}

func (r *scheduleRepository) CreateSlots(
	ctx context.Context,
	tx *gorm.DB,
	slots []*ScheduleSlot,
) error {
	log := r.log.Function("CreateSlots")

	if len(slots) == 0 {
		return nil
	}

	if err := tx.WithContext(ctx).Create(slots).Error; err != nil {
		return log.Err("failed to create schedule slots", err, "count", len(slots))
	}

	return nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*ScheduleSlot, error) {
	log := r.log.Function("GetByID")

	var slot ScheduleSlot
	if err := r.db.SQLWithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get schedule slot", err, "slotID", id)
	}

	return &slot, nil
}

func (r *scheduleRepository) GetByCase(
	ctx context.Context,
	caseID uuid.UUID,
) (*ScheduleSlot, error) {
	var slot ScheduleSlot
	err := r.db.SQLWithContext(ctx).First(&slot, "case_id = ?", caseID).Error
	if err != nil {
		return nil, err
	}

	return &slot, nil
}

func (r *scheduleRepository) ListFree(
	ctx context.Context,
	workshopID uuid.UUID,
	serviceType ServiceType,
	from time.Time,
) ([]*ScheduleSlot, error) {
	log := r.log.Function("ListFree")

	var slots []*ScheduleSlot
	if err := r.db.SQLWithContext(ctx).
		Where(
			"workshop_id = ? AND service_type = ? AND case_id IS NULL AND starts_at >= ?",
			workshopID, serviceType, from,
		).
		Order("starts_at ASC").
		Find(&slots).Error; err != nil {
		return nil, log.Err("failed to list free slots", err, "workshopID", workshopID)
	}

	return slots, nil
}

// Reserve binds a slot to a case only if the slot is still free. The WHERE
// clause is the race guard; zero rows affected means someone else won.
func (r *scheduleRepository) Reserve(
	ctx context.Context,
	tx *gorm.DB,
	slotID, caseID uuid.UUID,
) error {
	log := r.log.Function("Reserve")

	result := tx.WithContext(ctx).
		Model(&ScheduleSlot{}).
		Where("id = ? AND case_id IS NULL", slotID).
		Update("case_id", caseID)
	if result.Error != nil {
		return log.Err("failed to reserve slot", result.Error, "slotID", slotID, "caseID", caseID)
	}
	if result.RowsAffected == 0 {
		return ErrSlotTaken
	}

	return nil
}

func (r *scheduleRepository) Release(ctx context.Context, tx *gorm.DB, caseID uuid.UUID) error {
	log := r.log.Function("Release")

	if err := tx.WithContext(ctx).
		Model(&ScheduleSlot{}).
		Where("case_id = ?", caseID).
		Update("case_id", nil).Error; err != nil {
		return log.Err("failed to release slot", err, "caseID", caseID)
	}

	return nil
}

// DeleteFree removes a single slot, refusing when the slot is reserved.
func (r *scheduleRepository) DeleteFree(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error {
	log := r.log.Function("DeleteFree")

	result := tx.WithContext(ctx).
		Where("id = ? AND case_id IS NULL", slotID).
		Delete(&ScheduleSlot{})
	if result.Error != nil {
		return log.Err("failed to delete slot", result.Error, "slotID", slotID)
	}
	if result.RowsAffected == 0 {
		return ErrSlotReserved
	}

	return nil
}

// CountFreeBefore counts unreserved slots whose window already passed.
// Reclaiming them stays a coordinator decision; nothing is deleted here.
func (r *scheduleRepository) CountFreeBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	log := r.log.Function("CountFreeBefore")

	var count int64
	if err := r.db.SQLWithContext(ctx).
		Model(&ScheduleSlot{}).
		Where("case_id IS NULL AND ends_at < ?", cutoff).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count stale free slots", err, "cutoff", cutoff)
	}

	return count, nil
}

// DeleteFreeInRange bulk-removes unreserved slots for a workshop and date
// range. Reserved slots inside the range are left alone.
func (r *scheduleRepository) DeleteFreeInRange(
	ctx context.Context,
	tx *gorm.DB,
	workshopID uuid.UUID,
	from, to time.Time,
	serviceType ServiceType,
) (int64, error) {
	log := r.log.Function("DeleteFreeInRange")

	query := tx.WithContext(ctx).
		Where("workshop_id = ? AND case_id IS NULL AND starts_at >= ? AND starts_at < ?",
			workshopID, from, to)
	if serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}

	result := query.Delete(&ScheduleSlot{})
	if result.Error != nil {
		return 0, log.Err("failed to delete free slots", result.Error, "workshopID", workshopID)
	}

	return result.RowsAffected, nil
}
