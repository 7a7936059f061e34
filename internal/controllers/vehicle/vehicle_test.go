package vehicleController

import (
	"context"
	"errors"
	"testing"

	"fleetops/internal/database"
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

type stubAuditRepo struct {
	repositories.AuditRepository
	events []*AuditEvent
}

func (r *stubAuditRepo) Create(ctx context.Context, tx *gorm.DB, event *AuditEvent) error {
	r.events = append(r.events, event)
	return nil
}

type driverChange struct {
	vehicleID uuid.UUID
	driverID  *uuid.UUID
}

type fakeVehicleRepo struct {
	repositories.VehicleRepository

	vehicles map[uuid.UUID]*Vehicle
	setErr   error
	changes  []driverChange
}

func (r *fakeVehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	if v, ok := r.vehicles[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVehicleRepo) SetDriver(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	driverID *uuid.UUID,
) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.changes = append(r.changes, driverChange{vehicleID: id, driverID: driverID})
	return nil
}

func newSwapDriversFixture(vehicles ...*Vehicle) (*VehicleController, *fakeVehicleRepo, *stubAuditRepo) {
	vehicleRepo := &fakeVehicleRepo{vehicles: map[uuid.UUID]*Vehicle{}}
	for _, v := range vehicles {
		vehicleRepo.vehicles[v.ID] = v
	}
	audit := &stubAuditRepo{}

	controller := &VehicleController{
		vehicleRepo:        vehicleRepo,
		transactionService: stubTransactor{},
		auditService:       services.NewAuditService(database.DB{}, audit),
	}

	return controller, vehicleRepo, audit
}

func TestSwapDrivers(t *testing.T) {
	coordinator := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Role: RoleCoordinator}

	t.Run("exchanges the two assignments", func(t *testing.T) {
		driverA := uuid.New()
		vehicleA := &Vehicle{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Plate:         "FLT-500",
			Status:        VehicleEnRoute,
			DriverID:      &driverA,
		}
		vehicleB := &Vehicle{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Plate:         "FLT-501",
			Status:        VehicleAvailable,
		}
		controller, vehicleRepo, audit := newSwapDriversFixture(vehicleA, vehicleB)

		err := controller.SwapDrivers(context.Background(), coordinator, vehicleA.ID, vehicleB.ID)
		require.NoError(t, err)

		require.Len(t, vehicleRepo.changes, 2)
		assert.Equal(t, driverChange{vehicleID: vehicleA.ID, driverID: nil}, vehicleRepo.changes[0])
		assert.Equal(t, driverChange{vehicleID: vehicleB.ID, driverID: &driverA}, vehicleRepo.changes[1])

		require.Len(t, audit.events, 1)
		assert.Equal(t, AuditEdit, audit.events[0].Kind)
	})

	t.Run("repository failure surfaces to the caller", func(t *testing.T) {
		vehicleA := &Vehicle{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Plate: "FLT-502", Status: VehicleAvailable}
		vehicleB := &Vehicle{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Plate: "FLT-503", Status: VehicleAvailable}
		controller, vehicleRepo, audit := newSwapDriversFixture(vehicleA, vehicleB)

		setErr := errors.New("connection reset")
		vehicleRepo.setErr = setErr

		err := controller.SwapDrivers(context.Background(), coordinator, vehicleA.ID, vehicleB.ID)

		assert.ErrorIs(t, err, setErr)
		assert.Empty(t, audit.events)
	})

	t.Run("swapping a vehicle with itself is refused", func(t *testing.T) {
		vehicleA := &Vehicle{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Plate: "FLT-504"}
		controller, _, _ := newSwapDriversFixture(vehicleA)

		err := controller.SwapDrivers(context.Background(), coordinator, vehicleA.ID, vehicleA.ID)

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("decommissioned vehicles are refused", func(t *testing.T) {
		vehicleA := &Vehicle{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Plate: "FLT-505", Status: VehicleDecommissioned}
		vehicleB := &Vehicle{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Plate: "FLT-506", Status: VehicleAvailable}
		controller, _, _ := newSwapDriversFixture(vehicleA, vehicleB)

		err := controller.SwapDrivers(context.Background(), coordinator, vehicleA.ID, vehicleB.ID)

		assert.ErrorIs(t, err, ErrDecommissioned)
	})
}
