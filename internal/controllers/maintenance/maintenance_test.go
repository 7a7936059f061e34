package maintenanceController

import (
	"context"
	"testing"
	"time"

	"fleetops/internal/database"
	"fleetops/internal/events"
	. "fleetops/internal/models"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSpecialtyForService(t *testing.T) {
	tests := []struct {
		name        string
		serviceType ServiceType
		expected    Specialty
	}{
		{
			name:        "electrical service prefers electrical mechanics",
			serviceType: ServiceElectrical,
			expected:    SpecialtyElectrical,
		},
		{
			name:        "mechanical service prefers engine mechanics",
			serviceType: ServiceMechanical,
			expected:    SpecialtyEngine,
		},
		{
			name:        "routine service falls back to general",
			serviceType: ServiceRoutine,
			expected:    SpecialtyGeneral,
		},
		{
			name:        "documentation service falls back to general",
			serviceType: ServiceDocumentation,
			expected:    SpecialtyGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, specialtyForService(tt.serviceType))
		})
	}
}

type stubTransactor struct{}

func (stubTransactor) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) error {
	return fn(ctx, nil)
}

type stubNotifier struct {
	broadcasts []events.MessageType
	sends      []events.MessageType
}

func (n *stubNotifier) NotifyUser(userID uuid.UUID, msgType events.MessageType, data map[string]any) error {
	n.sends = append(n.sends, msgType)
	return nil
}

func (n *stubNotifier) NotifyAll(msgType events.MessageType, data map[string]any) error {
	n.broadcasts = append(n.broadcasts, msgType)
	return nil
}

type stubAuditRepo struct {
	repositories.AuditRepository
	events []*AuditEvent
}

func (r *stubAuditRepo) Create(ctx context.Context, tx *gorm.DB, event *AuditEvent) error {
	r.events = append(r.events, event)
	return nil
}

type fakeMaintenanceRepo struct {
	repositories.MaintenanceRepository

	active  *MaintenanceCase
	created *MaintenanceCase
	pause   *Pause
}

func (r *fakeMaintenanceRepo) GetActiveByVehicle(
	ctx context.Context,
	tx *gorm.DB,
	vehicleID uuid.UUID,
) (*MaintenanceCase, error) {
	if r.active != nil {
		return r.active, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMaintenanceRepo) Create(ctx context.Context, tx *gorm.DB, mc *MaintenanceCase) error {
	mc.ID = uuid.New()
	r.created = mc
	return nil
}

func (r *fakeMaintenanceRepo) GetByID(ctx context.Context, id uuid.UUID) (*MaintenanceCase, error) {
	if r.created != nil && r.created.ID == id {
		return r.created, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMaintenanceRepo) GetOpenPause(
	ctx context.Context,
	tx *gorm.DB,
	caseID uuid.UUID,
) (*Pause, error) {
	if r.pause != nil && r.pause.EndedAt == nil {
		return r.pause, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMaintenanceRepo) UpdatePause(ctx context.Context, tx *gorm.DB, pause *Pause) error {
	r.pause = pause
	return nil
}

type fakeVehicleRepo struct {
	repositories.VehicleRepository
	vehicle *Vehicle
}

func (r *fakeVehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	if r.vehicle != nil && r.vehicle.ID == id {
		return r.vehicle, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeScheduleRepo struct {
	repositories.ScheduleRepository

	slot       *ScheduleSlot
	reserveErr error
}

func (r *fakeScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*ScheduleSlot, error) {
	if r.slot != nil && r.slot.ID == id {
		return r.slot, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeScheduleRepo) Reserve(ctx context.Context, tx *gorm.DB, slotID, caseID uuid.UUID) error {
	if r.reserveErr != nil {
		return r.reserveErr
	}
	r.slot.CaseID = &caseID
	return nil
}

type caseFixture struct {
	controller      *MaintenanceController
	maintenanceRepo *fakeMaintenanceRepo
	scheduleRepo    *fakeScheduleRepo
	notifier        *stubNotifier
	audit           *stubAuditRepo
	vehicle         *Vehicle
	slot            *ScheduleSlot
}

func newCaseFixture() *caseFixture {
	vehicle := &Vehicle{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		Plate:         "FLT-100",
		Status:        VehicleAvailable,
	}
	slot := &ScheduleSlot{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		WorkshopID:    uuid.New(),
		StartsAt:      time.Now().Add(24 * time.Hour),
		EndsAt:        time.Now().Add(26 * time.Hour),
	}

	maintenanceRepo := &fakeMaintenanceRepo{}
	scheduleRepo := &fakeScheduleRepo{slot: slot}
	notifier := &stubNotifier{}
	audit := &stubAuditRepo{}

	controller := &MaintenanceController{
		maintenanceRepo:    maintenanceRepo,
		scheduleRepo:       scheduleRepo,
		vehicleRepo:        &fakeVehicleRepo{vehicle: vehicle},
		transactionService: stubTransactor{},
		auditService:       services.NewAuditService(database.DB{}, audit),
		eventBus:           notifier,
	}

	return &caseFixture{
		controller:      controller,
		maintenanceRepo: maintenanceRepo,
		scheduleRepo:    scheduleRepo,
		notifier:        notifier,
		audit:           audit,
		vehicle:         vehicle,
		slot:            slot,
	}
}

func TestCreateCase(t *testing.T) {
	actor := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Role: RoleDriver}

	t.Run("books the slot and opens the case", func(t *testing.T) {
		f := newCaseFixture()

		mc, err := f.controller.CreateCase(context.Background(), actor, &CreateCaseRequest{
			VehicleID: f.vehicle.ID,
			SlotID:    f.slot.ID,
			Problem:   "engine overheating",
		})
		require.NoError(t, err)

		assert.Equal(t, CaseScheduled, mc.Status)
		assert.Equal(t, &mc.ID, f.slot.CaseID)
		require.Len(t, f.audit.events, 1)
		assert.Equal(t, AuditCreate, f.audit.events[0].Kind)
		assert.Contains(t, f.notifier.broadcasts, events.CASE_SCHEDULED)
	})

	t.Run("losing the slot race rolls back cleanly", func(t *testing.T) {
		f := newCaseFixture()
		f.scheduleRepo.reserveErr = repositories.ErrSlotTaken

		_, err := f.controller.CreateCase(context.Background(), actor, &CreateCaseRequest{
			VehicleID: f.vehicle.ID,
			SlotID:    f.slot.ID,
			Problem:   "engine overheating",
		})

		assert.ErrorIs(t, err, ErrSlotUnavailable)
		assert.Empty(t, f.audit.events)
		assert.Empty(t, f.notifier.broadcasts)
	})

	t.Run("vehicle with an active case is refused", func(t *testing.T) {
		f := newCaseFixture()
		f.maintenanceRepo.active = &MaintenanceCase{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Status:        CaseRepairing,
		}

		_, err := f.controller.CreateCase(context.Background(), actor, &CreateCaseRequest{
			VehicleID: f.vehicle.ID,
			SlotID:    f.slot.ID,
			Problem:   "engine overheating",
		})

		assert.ErrorIs(t, err, ErrVehicleBusy)
	})
}

func TestClosePause(t *testing.T) {
	mechanic := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Role: RoleMechanic}
	caseID := uuid.New()

	f := newCaseFixture()
	f.maintenanceRepo.pause = &Pause{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		CaseID:        caseID,
		MechanicID:    mechanic.ID,
		StartedAt:     time.Now().Add(-time.Hour),
	}

	pause, err := f.controller.ClosePause(context.Background(), mechanic, caseID)
	require.NoError(t, err)
	require.NotNil(t, pause.EndedAt)

	// The pause is closed; doing it again must fail rather than re-stamp.
	_, err = f.controller.ClosePause(context.Background(), mechanic, caseID)
	assert.ErrorIs(t, err, ErrNoActivePause)
}
