package gateController

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

type stubTransactor struct{}

func (stubTransactor) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) error {
	return fn(ctx, nil)
}

type stubNotifier struct {
	sends  []events.MessageType
	sentTo []uuid.UUID
}

func (n *stubNotifier) NotifyUser(userID uuid.UUID, msgType events.MessageType, data map[string]any) error {
	n.sends = append(n.sends, msgType)
	n.sentTo = append(n.sentTo, userID)
	return nil
}

func (n *stubNotifier) NotifyAll(msgType events.MessageType, data map[string]any) error {
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

type fakeVehicleRepo struct {
	repositories.VehicleRepository

	enRoute *Vehicle
	cleared map[uuid.UUID]VehicleStatus
	forced  map[uuid.UUID]VehicleStatus
}

func (r *fakeVehicleRepo) GetDriverEnRoute(
	ctx context.Context,
	tx *gorm.DB,
	driverID uuid.UUID,
) (*Vehicle, error) {
	if r.enRoute != nil {
		return r.enRoute, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVehicleRepo) ClearDriver(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	to VehicleStatus,
) error {
	r.cleared[id] = to
	return nil
}

func (r *fakeVehicleRepo) ForceStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	to VehicleStatus,
) error {
	r.forced[id] = to
	return nil
}

type fakeMaintenanceRepo struct {
	repositories.MaintenanceRepository

	validated *MaintenanceCase
	updated   *MaintenanceCase
}

func (r *fakeMaintenanceRepo) ValidatedByDriver(
	ctx context.Context,
	tx *gorm.DB,
	driverID uuid.UUID,
) (*MaintenanceCase, error) {
	if r.validated != nil {
		return r.validated, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMaintenanceRepo) Update(ctx context.Context, tx *gorm.DB, mc *MaintenanceCase) error {
	r.updated = mc
	return nil
}

func (r *fakeMaintenanceRepo) GetByID(ctx context.Context, id uuid.UUID) (*MaintenanceCase, error) {
	if r.updated != nil && r.updated.ID == id {
		return r.updated, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type swapFixture struct {
	controller      *GateController
	maintenanceRepo *fakeMaintenanceRepo
	vehicleRepo     *fakeVehicleRepo
	notifier        *stubNotifier
	audit           *stubAuditRepo
}

func newSwapFixture() *swapFixture {
	maintenanceRepo := &fakeMaintenanceRepo{}
	vehicleRepo := &fakeVehicleRepo{
		cleared: map[uuid.UUID]VehicleStatus{},
		forced:  map[uuid.UUID]VehicleStatus{},
	}
	notifier := &stubNotifier{}
	audit := &stubAuditRepo{}

	controller := &GateController{
		maintenanceRepo:    maintenanceRepo,
		vehicleRepo:        vehicleRepo,
		transactionService: stubTransactor{},
		auditService:       services.NewAuditService(database.DB{}, audit),
		eventBus:           notifier,
	}

	return &swapFixture{
		controller:      controller,
		maintenanceRepo: maintenanceRepo,
		vehicleRepo:     vehicleRepo,
		notifier:        notifier,
		audit:           audit,
	}
}

func validatedCase(requesterID uuid.UUID) *MaintenanceCase {
	validatedAt := time.Now().Add(-time.Hour)
	return &MaintenanceCase{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		VehicleID:     uuid.New(),
		RequesterID:   requesterID,
		Status:        CaseValidated,
		ValidatedAt:   &validatedAt,
		Vehicle:       &Vehicle{Plate: "FLT-200"},
	}
}

func TestSwap(t *testing.T) {
	guard := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Role: RoleGuard}

	t.Run("returns the loaner and finalizes the case together", func(t *testing.T) {
		f := newSwapFixture()
		driverID := uuid.New()
		requesterID := uuid.New()

		loaner := &Vehicle{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Plate:         "LOAN-1",
			IsBackup:      true,
			Status:        VehicleEnRoute,
			DriverID:      &driverID,
		}
		f.vehicleRepo.enRoute = loaner
		f.maintenanceRepo.validated = validatedCase(requesterID)

		mc, err := f.controller.Swap(context.Background(), guard, driverID)
		require.NoError(t, err)

		assert.Equal(t, CaseFinalized, mc.Status)
		assert.NotNil(t, mc.DepartedAt)
		assert.Equal(t, VehicleAvailable, f.vehicleRepo.cleared[loaner.ID])
		assert.Equal(t, VehicleAvailable, f.vehicleRepo.forced[mc.VehicleID])

		require.Len(t, f.audit.events, 1)
		assert.Equal(t, AuditEdit, f.audit.events[0].Kind)

		require.Len(t, f.notifier.sends, 1)
		assert.Equal(t, events.CASE_FINALIZED, f.notifier.sends[0])
		assert.Equal(t, requesterID, f.notifier.sentTo[0])
	})

	t.Run("driver arriving without a loaner still picks up", func(t *testing.T) {
		f := newSwapFixture()
		driverID := uuid.New()
		f.maintenanceRepo.validated = validatedCase(uuid.New())

		mc, err := f.controller.Swap(context.Background(), guard, driverID)
		require.NoError(t, err)

		assert.Equal(t, CaseFinalized, mc.Status)
		assert.Empty(t, f.vehicleRepo.cleared)
		assert.Equal(t, VehicleAvailable, f.vehicleRepo.forced[mc.VehicleID])
	})

	t.Run("non-backup vehicle en route is not touched", func(t *testing.T) {
		f := newSwapFixture()
		driverID := uuid.New()
		f.vehicleRepo.enRoute = &Vehicle{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Plate:         "FLT-300",
			IsBackup:      false,
			Status:        VehicleEnRoute,
			DriverID:      &driverID,
		}
		f.maintenanceRepo.validated = validatedCase(uuid.New())

		_, err := f.controller.Swap(context.Background(), guard, driverID)
		require.NoError(t, err)
		assert.Empty(t, f.vehicleRepo.cleared)
	})

	t.Run("no validated case refuses the exchange", func(t *testing.T) {
		f := newSwapFixture()

		_, err := f.controller.Swap(context.Background(), guard, uuid.New())

		assert.ErrorIs(t, err, ErrNothingToSwap)
		assert.Empty(t, f.vehicleRepo.forced)
		assert.Empty(t, f.audit.events)
		assert.Empty(t, f.notifier.sends)
	})

	t.Run("nil driver is a validation error", func(t *testing.T) {
		f := newSwapFixture()

		_, err := f.controller.Swap(context.Background(), guard, uuid.Nil)

		assert.ErrorIs(t, err, ErrValidation)
	})
}
