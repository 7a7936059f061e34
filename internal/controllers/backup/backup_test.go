package backupController

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

type fakeBackupRepo struct {
	repositories.BackupRepository

	request   *BackupRequest
	fulfilled bool
}

func (r *fakeBackupRepo) GetByID(ctx context.Context, id uuid.UUID) (*BackupRequest, error) {
	if r.request != nil && r.request.ID == id {
		return r.request, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBackupRepo) Fulfill(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	fulfillerID, vehicleID uuid.UUID,
	at time.Time,
) error {
	r.request.FulfillerID = &fulfillerID
	r.request.VehicleID = &vehicleID
	r.request.FulfilledAt = &at
	r.fulfilled = true
	return nil
}

type fakeVehicleRepo struct {
	repositories.VehicleRepository

	loaner    *Vehicle
	enRoute   *Vehicle
	primaries []*Vehicle

	assignErr      error
	assigned       bool
	assignedDriver uuid.UUID
	assignedFrom   VehicleStatus
	assignedTo     VehicleStatus
}

func (r *fakeVehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	if r.loaner != nil && r.loaner.ID == id {
		return r.loaner, nil
	}
	return nil, gorm.ErrRecordNotFound
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

func (r *fakeVehicleRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*Vehicle, error) {
	return r.primaries, nil
}

func (r *fakeVehicleRepo) AssignDriver(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	driverID uuid.UUID,
	from, to VehicleStatus,
) error {
	if r.assignErr != nil {
		return r.assignErr
	}
	r.assigned = true
	r.assignedDriver = driverID
	r.assignedFrom = from
	r.assignedTo = to
	return nil
}

type fulfillFixture struct {
	controller  *BackupController
	backupRepo  *fakeBackupRepo
	vehicleRepo *fakeVehicleRepo
	notifier    *stubNotifier
	audit       *stubAuditRepo
	request     *BackupRequest
	loaner      *Vehicle
	driverID    uuid.UUID
}

func newFulfillFixture() *fulfillFixture {
	driverID := uuid.New()
	request := &BackupRequest{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		DriverID:      driverID,
		Reason:        "truck in the workshop",
		RequestedAt:   time.Now().Add(-time.Hour),
		Status:        BackupPending,
	}
	loaner := &Vehicle{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		Plate:         "LOAN-2",
		IsBackup:      true,
		Status:        VehicleAvailable,
	}

	backupRepo := &fakeBackupRepo{request: request}
	vehicleRepo := &fakeVehicleRepo{loaner: loaner}
	notifier := &stubNotifier{}
	audit := &stubAuditRepo{}

	controller := &BackupController{
		backupRepo:         backupRepo,
		vehicleRepo:        vehicleRepo,
		transactionService: stubTransactor{},
		auditService:       services.NewAuditService(database.DB{}, audit),
		eventBus:           notifier,
	}

	return &fulfillFixture{
		controller:  controller,
		backupRepo:  backupRepo,
		vehicleRepo: vehicleRepo,
		notifier:    notifier,
		audit:       audit,
		request:     request,
		loaner:      loaner,
		driverID:    driverID,
	}
}

func TestFulfill(t *testing.T) {
	coordinator := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Role: RoleCoordinator}

	t.Run("assigns an available loaner on paper", func(t *testing.T) {
		f := newFulfillFixture()
		f.vehicleRepo.primaries = []*Vehicle{{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Plate:         "FLT-400",
			Status:        VehicleInService,
		}}

		request, err := f.controller.Fulfill(context.Background(), coordinator, f.request.ID, f.loaner.ID)
		require.NoError(t, err)

		assert.True(t, f.vehicleRepo.assigned)
		assert.Equal(t, f.driverID, f.vehicleRepo.assignedDriver)
		assert.Equal(t, VehicleAvailable, f.vehicleRepo.assignedFrom)
		assert.Equal(t, VehicleAssigned, f.vehicleRepo.assignedTo)

		assert.True(t, f.backupRepo.fulfilled)
		assert.Equal(t, &f.loaner.ID, request.VehicleID)

		require.Len(t, f.audit.events, 1)
		require.Len(t, f.notifier.sends, 1)
		assert.Equal(t, events.BACKUP_ASSIGNED, f.notifier.sends[0])
		assert.Equal(t, f.driverID, f.notifier.sentTo[0])
	})

	t.Run("primary not in the workshop is refused", func(t *testing.T) {
		f := newFulfillFixture()
		f.vehicleRepo.primaries = []*Vehicle{{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Plate:         "FLT-401",
			Status:        VehicleAvailable,
		}}

		_, err := f.controller.Fulfill(context.Background(), coordinator, f.request.ID, f.loaner.ID)

		assert.ErrorIs(t, err, ErrPrimaryNotInShop)
		assert.False(t, f.vehicleRepo.assigned)
		assert.False(t, f.backupRepo.fulfilled)
		assert.Empty(t, f.notifier.sends)
	})

	t.Run("driver already en route is refused", func(t *testing.T) {
		f := newFulfillFixture()
		f.vehicleRepo.enRoute = &Vehicle{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Status:        VehicleEnRoute,
			DriverID:      &f.driverID,
		}

		_, err := f.controller.Fulfill(context.Background(), coordinator, f.request.ID, f.loaner.ID)

		assert.ErrorIs(t, err, ErrDriverEnRoute)
		assert.False(t, f.vehicleRepo.assigned)
	})

	t.Run("concurrent fulfillment loses cleanly", func(t *testing.T) {
		f := newFulfillFixture()
		f.vehicleRepo.primaries = []*Vehicle{{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Status:        VehicleInService,
		}}
		f.vehicleRepo.assignErr = repositories.ErrStaleVehicleStatus

		_, err := f.controller.Fulfill(context.Background(), coordinator, f.request.ID, f.loaner.ID)

		assert.ErrorIs(t, err, ErrLoanerBusy)
		assert.False(t, f.backupRepo.fulfilled)
	})

	t.Run("non-backup vehicle cannot be loaned", func(t *testing.T) {
		f := newFulfillFixture()
		f.loaner.IsBackup = false

		_, err := f.controller.Fulfill(context.Background(), coordinator, f.request.ID, f.loaner.ID)

		assert.ErrorIs(t, err, ErrNotBackup)
	})
}
