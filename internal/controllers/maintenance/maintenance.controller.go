package maintenanceController

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetops/config"
	"fleetops/internal/database"
	"fleetops/internal/events"
	"fleetops/internal/logger"
	. "fleetops/internal/models"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaxProblemLength = 2000
	MaxNoteLength    = 2000
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition violation")

	ErrSlotUnavailable  = fmt.Errorf("%w: slot no longer available", ErrPrecondition)
	ErrVehicleBusy      = fmt.Errorf("%w: vehicle already has an active case", ErrPrecondition)
	ErrNotAssigned      = fmt.Errorf("%w: actor is not the assigned mechanic", ErrPrecondition)
	ErrNotEditable      = fmt.Errorf("%w: case is no longer editable", ErrPrecondition)
	ErrWrongState       = fmt.Errorf("%w: wrong state for this transition", ErrPrecondition)
	ErrAlreadyPaused    = fmt.Errorf("%w: an active pause already exists", ErrPrecondition)
	ErrNoActivePause    = fmt.Errorf("%w: no active pause to close", ErrPrecondition)
	ErrIncompleteFields = fmt.Errorf("%w: diagnosis and work performed are required", ErrValidation)
	ErrMissingNote      = fmt.Errorf("%w: rejection note is required", ErrValidation)
)

type MaintenanceController struct {
	maintenanceRepo    repositories.MaintenanceRepository
	scheduleRepo       repositories.ScheduleRepository
	vehicleRepo        repositories.VehicleRepository
	userRepo           repositories.UserRepository
	transactionService services.Transactor
	auditService       *services.AuditService
	eventBus           events.Notifier
	db                 database.DB
	Config             config.Config
}

type CreateCaseRequest struct {
	VehicleID uuid.UUID `json:"vehicleId"`
	SlotID    uuid.UUID `json:"slotId"`
	Problem   string    `json:"problem"`
}

type SaveDiagnosisRequest struct {
	Diagnosis     string `json:"diagnosis"`
	WorkPerformed string `json:"workPerformed,omitempty"`
}

type AddPhotoRequest struct {
	StorageKey  string         `json:"storageKey"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type MaintenanceControllerInterface interface {
	CreateCase(ctx context.Context, actor *User, request *CreateCaseRequest) (*MaintenanceCase, error)
	GetCase(ctx context.Context, caseID uuid.UUID) (*MaintenanceCase, error)
	ListActive(ctx context.Context) ([]*MaintenanceCase, error)
	ListForMechanic(ctx context.Context, mechanicID uuid.UUID) ([]*MaintenanceCase, error)
	ListMechanicCandidates(ctx context.Context, caseID uuid.UUID) ([]*User, error)
	AssignMechanic(ctx context.Context, actor *User, caseID, mechanicID uuid.UUID) (*MaintenanceCase, error)
	SaveDiagnosis(ctx context.Context, actor *User, caseID uuid.UUID, request *SaveDiagnosisRequest) (*MaintenanceCase, error)
	OpenPause(ctx context.Context, actor *User, caseID uuid.UUID, reason string) (*Pause, error)
	ClosePause(ctx context.Context, actor *User, caseID uuid.UUID) (*Pause, error)
	AddPhoto(ctx context.Context, actor *User, caseID uuid.UUID, request *AddPhotoRequest) (*CasePhoto, error)
	CloseRepair(ctx context.Context, actor *User, caseID uuid.UUID) (*MaintenanceCase, error)
	Validate(ctx context.Context, actor *User, caseID uuid.UUID) (*MaintenanceCase, error)
	Reject(ctx context.Context, actor *User, caseID uuid.UUID, note string) (*MaintenanceCase, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus events.Notifier,
	config config.Config,
	db database.DB,
) MaintenanceControllerInterface {
	return &MaintenanceController{
		maintenanceRepo:    repos.Maintenance,
		scheduleRepo:       repos.Schedule,
		vehicleRepo:        repos.Vehicle,
		userRepo:           repos.User,
		transactionService: services.Transaction,
		auditService:       services.Audit,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

// CreateCase books a free slot for a vehicle and opens the case in SCHEDULED.
// The slot binding and the case row commit atomically; losing the slot race
// rolls everything back.
func (c *MaintenanceController) CreateCase(
	ctx context.Context,
	actor *User,
	request *CreateCaseRequest,
) (*MaintenanceCase, error) {
	log := logger.New("maintenanceController").Function("CreateCase")

	if request.VehicleID == uuid.Nil || request.SlotID == uuid.Nil {
		return nil, fmt.Errorf("%w: vehicleId and slotId are required", ErrValidation)
	}
	if strings.TrimSpace(request.Problem) == "" {
		return nil, fmt.Errorf("%w: problem description is required", ErrValidation)
	}
	if len(request.Problem) > MaxProblemLength {
		return nil, fmt.Errorf("%w: problem description too long", ErrValidation)
	}

	vehicle, err := c.vehicleRepo.GetByID(ctx, request.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, request.VehicleID)
	}
	if vehicle.Status == VehicleDecommissioned {
		return nil, fmt.Errorf("%w: vehicle is decommissioned", ErrPrecondition)
	}

	slot, err := c.scheduleRepo.GetByID(ctx, request.SlotID)
	if err != nil {
		return nil, fmt.Errorf("%w: slot %s", ErrNotFound, request.SlotID)
	}
	if !slot.IsFree() {
		return nil, ErrSlotUnavailable
	}

	mc := &MaintenanceCase{
		VehicleID:   vehicle.ID,
		RequesterID: actor.ID,
		WorkshopID:  &slot.WorkshopID,
		Status:      CaseScheduled,
		RequestedAt: time.Now(),
		Problem:     strings.TrimSpace(request.Problem),
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := c.maintenanceRepo.GetActiveByVehicle(ctx, tx, vehicle.ID); err == nil {
			return ErrVehicleBusy
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := c.maintenanceRepo.Create(ctx, tx, mc); err != nil {
			return err
		}

		// Re-check-on-write: the conditional update loses cleanly when a
		// concurrent request reserved the slot after our free check above.
		if err := c.scheduleRepo.Reserve(ctx, tx, slot.ID, mc.ID); err != nil {
			if errors.Is(err, repositories.ErrSlotTaken) {
				return ErrSlotUnavailable
			}
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditCreate, "MaintenanceCase",
			mc.ID.String(),
			fmt.Sprintf("case opened for vehicle %s in slot %s", vehicle.Plate, slot.ID))
	})
	if err != nil {
		return nil, err
	}

	if err := c.eventBus.NotifyAll(events.CASE_SCHEDULED, map[string]any{
		"caseId":    mc.ID.String(),
		"vehicleId": vehicle.ID.String(),
		"plate":     vehicle.Plate,
		"startsAt":  slot.StartsAt,
	}); err != nil {
		log.Warn("failed to publish case scheduled event", "caseID", mc.ID, "error", err)
	}

	return c.maintenanceRepo.GetByID(ctx, mc.ID)
}

func (c *MaintenanceController) GetCase(
	ctx context.Context,
	caseID uuid.UUID,
) (*MaintenanceCase, error) {
	mc, err := c.maintenanceRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("%w: case %s", ErrNotFound, caseID)
	}
	return mc, nil
}

func (c *MaintenanceController) ListActive(ctx context.Context) ([]*MaintenanceCase, error) {
	return c.maintenanceRepo.ListByStatus(ctx, ActiveCaseStatuses)
}

func (c *MaintenanceController) ListForMechanic(
	ctx context.Context,
	mechanicID uuid.UUID,
) ([]*MaintenanceCase, error) {
	return c.maintenanceRepo.ListByMechanic(ctx, mechanicID)
}

// ListMechanicCandidates ranks mechanics for assignment. Ordering is advisory:
// specialty match first, general mechanics second, everyone else last.
func (c *MaintenanceController) ListMechanicCandidates(
	ctx context.Context,
	caseID uuid.UUID,
) ([]*User, error) {
	if _, err := c.maintenanceRepo.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("%w: case %s", ErrNotFound, caseID)
	}

	specialty := SpecialtyGeneral
	if slot, err := c.scheduleRepo.GetByCase(ctx, caseID); err == nil {
		specialty = specialtyForService(slot.ServiceType)
	}

	return c.userRepo.ListMechanicsRanked(ctx, specialty)
}

func specialtyForService(serviceType ServiceType) Specialty {
	switch serviceType {
	case ServiceElectrical:
		return SpecialtyElectrical
	case ServiceMechanical:
		return SpecialtyEngine
	default:
		return SpecialtyGeneral
	}
}

func (c *MaintenanceController) AssignMechanic(
	ctx context.Context,
	actor *User,
	caseID, mechanicID uuid.UUID,
) (*MaintenanceCase, error) {
	if mechanicID == uuid.Nil {
		return nil, fmt.Errorf("%w: mechanicId is required", ErrValidation)
	}

	mechanic, err := c.userRepo.GetByID(ctx, mechanicID)
	if err != nil {
		return nil, fmt.Errorf("%w: mechanic %s", ErrNotFound, mechanicID)
	}
	if mechanic.Role != RoleMechanic || !mechanic.IsActive {
		return nil, fmt.Errorf("%w: selected user is not an active mechanic", ErrValidation)
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		mc, err := c.maintenanceRepo.GetByIDForUpdate(ctx, tx, caseID)
		if err != nil {
			return fmt.Errorf("%w: case %s", ErrNotFound, caseID)
		}

		if err := ApplyCaseTransition(mc, CaseDiagnosing, time.Now()); err != nil {
			return ErrWrongState
		}
		mc.MechanicID = &mechanic.ID

		if err := c.maintenanceRepo.Update(ctx, tx, mc); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "MaintenanceCase",
			mc.ID.String(),
			fmt.Sprintf("mechanic %s assigned", mechanic.DisplayName()))
	})
	if err != nil {
		return nil, err
	}

	return c.maintenanceRepo.GetByID(ctx, caseID)
}

// SaveDiagnosis records the mechanic's findings. The first save while the case
// is DIAGNOSING auto-advances it to REPAIRING; later edits keep the status.
func (c *MaintenanceController) SaveDiagnosis(
	ctx context.Context,
	actor *User,
	caseID uuid.UUID,
	request *SaveDiagnosisRequest,
) (*MaintenanceCase, error) {
	if strings.TrimSpace(request.Diagnosis) == "" {
		return nil, fmt.Errorf("%w: diagnosis is required", ErrValidation)
	}

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		mc, err := c.maintenanceRepo.GetByIDForUpdate(ctx, tx, caseID)
		if err != nil {
			return fmt.Errorf("%w: case %s", ErrNotFound, caseID)
		}

		if mc.MechanicID == nil || *mc.MechanicID != actor.ID {
			return ErrNotAssigned
		}
		if !mc.MechanicEditable() {
			return ErrNotEditable
		}

		mc.Diagnosis = strings.TrimSpace(request.Diagnosis)
		if request.WorkPerformed != "" {
			mc.WorkPerformed = strings.TrimSpace(request.WorkPerformed)
		}

		if mc.Status == CaseDiagnosing {
			if err := ApplyCaseTransition(mc, CaseRepairing, time.Now()); err != nil {
				return ErrWrongState
			}
		}

		if err := c.maintenanceRepo.Update(ctx, tx, mc); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "MaintenanceCase",
			mc.ID.String(), "diagnosis saved")
	})
	if err != nil {
		return nil, err
	}

	return c.maintenanceRepo.GetByID(ctx, caseID)
}

func (c *MaintenanceController) OpenPause(
	ctx context.Context,
	actor *User,
	caseID uuid.UUID,
	reason string,
) (*Pause, error) {
	pause := &Pause{
		CaseID:     caseID,
		MechanicID: actor.ID,
		StartedAt:  time.Now(),
		Reason:     strings.TrimSpace(reason),
	}

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		mc, err := c.maintenanceRepo.GetByIDForUpdate(ctx, tx, caseID)
		if err != nil {
			return fmt.Errorf("%w: case %s", ErrNotFound, caseID)
		}
		if mc.MechanicID == nil || *mc.MechanicID != actor.ID {
			return ErrNotAssigned
		}
		if !mc.MechanicEditable() {
			return ErrNotEditable
		}

		if _, err := c.maintenanceRepo.GetOpenPause(ctx, tx, caseID); err == nil {
			return ErrAlreadyPaused
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := c.maintenanceRepo.CreatePause(ctx, tx, pause); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditCreate, "Pause",
			pause.ID.String(), fmt.Sprintf("work paused on case %s", caseID))
	})
	if err != nil {
		return nil, err
	}

	return pause, nil
}

func (c *MaintenanceController) ClosePause(
	ctx context.Context,
	actor *User,
	caseID uuid.UUID,
) (*Pause, error) {
	var pause *Pause

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		pause, err = c.maintenanceRepo.GetOpenPause(ctx, tx, caseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoActivePause
			}
			return err
		}

		now := time.Now()
		pause.EndedAt = &now

		if err := c.maintenanceRepo.UpdatePause(ctx, tx, pause); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "Pause",
			pause.ID.String(), fmt.Sprintf("work resumed on case %s", caseID))
	})
	if err != nil {
		return nil, err
	}

	return pause, nil
}

func (c *MaintenanceController) AddPhoto(
	ctx context.Context,
	actor *User,
	caseID uuid.UUID,
	request *AddPhotoRequest,
) (*CasePhoto, error) {
	if strings.TrimSpace(request.StorageKey) == "" {
		return nil, fmt.Errorf("%w: storageKey is required", ErrValidation)
	}

	photo := &CasePhoto{
		CaseID:      caseID,
		UploaderID:  actor.ID,
		StorageKey:  request.StorageKey,
		Description: request.Description,
	}
	if request.Metadata != nil {
		metadata, err := json.Marshal(request.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid photo metadata", ErrValidation)
		}
		photo.Metadata = datatypes.JSON(metadata)
	}

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		mc, err := c.maintenanceRepo.GetByIDForUpdate(ctx, tx, caseID)
		if err != nil {
			return fmt.Errorf("%w: case %s", ErrNotFound, caseID)
		}
		if !mc.MechanicEditable() {
			return ErrNotEditable
		}

		if err := c.maintenanceRepo.CreatePhoto(ctx, tx, photo); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditCreate, "CasePhoto",
			photo.ID.String(), fmt.Sprintf("photo attached to case %s", caseID))
	})
	if err != nil {
		return nil, err
	}

	return photo, nil
}

// CloseRepair ends the mechanic's involvement. Both diagnosis and work
// performed must be filled in before the case can move to REPAIRED.
func (c *MaintenanceController) CloseRepair(
	ctx context.Context,
	actor *User,
	caseID uuid.UUID,
) (*MaintenanceCase, error) {
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		mc, err := c.maintenanceRepo.GetByIDForUpdate(ctx, tx, caseID)
		if err != nil {
			return fmt.Errorf("%w: case %s", ErrNotFound, caseID)
		}

		if mc.MechanicID == nil || *mc.MechanicID != actor.ID {
			return ErrNotAssigned
		}
		if strings.TrimSpace(mc.Diagnosis) == "" || strings.TrimSpace(mc.WorkPerformed) == "" {
			return ErrIncompleteFields
		}

		if err := ApplyCaseTransition(mc, CaseRepaired, time.Now()); err != nil {
			return ErrWrongState
		}

		if err := c.maintenanceRepo.Update(ctx, tx, mc); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "MaintenanceCase",
			mc.ID.String(), "repair closed by mechanic")
	})
	if err != nil {
		return nil, err
	}

	return c.maintenanceRepo.GetByID(ctx, caseID)
}

// Validate is the supervisor's acceptance. The case and the vehicle move
// together: case to VALIDATED, vehicle back to AVAILABLE.
func (c *MaintenanceController) Validate(
	ctx context.Context,
	actor *User,
	caseID uuid.UUID,
) (*MaintenanceCase, error) {
	log := logger.New("maintenanceController").Function("Validate")

	var mc *MaintenanceCase
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		mc, err = c.maintenanceRepo.GetByIDForUpdate(ctx, tx, caseID)
		if err != nil {
			return fmt.Errorf("%w: case %s", ErrNotFound, caseID)
		}

		if err := ApplyCaseTransition(mc, CaseValidated, time.Now()); err != nil {
			return ErrWrongState
		}
		mc.SupervisorID = &actor.ID

		if err := c.maintenanceRepo.Update(ctx, tx, mc); err != nil {
			return err
		}

		if err := c.vehicleRepo.UpdateStatus(ctx, tx, mc.VehicleID, VehicleInService, VehicleAvailable); err != nil {
			if errors.Is(err, repositories.ErrStaleVehicleStatus) {
				return fmt.Errorf("%w: vehicle is not in service", ErrPrecondition)
			}
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "MaintenanceCase",
			mc.ID.String(), "repair validated by supervisor")
	})
	if err != nil {
		return nil, err
	}

	if err := c.eventBus.NotifyUser(mc.RequesterID, events.CASE_VALIDATED, map[string]any{
		"caseId": mc.ID.String(),
	}); err != nil {
		log.Warn("failed to publish case validated event", "caseID", mc.ID, "error", err)
	}

	return c.maintenanceRepo.GetByID(ctx, caseID)
}

// Reject sends a repaired case back to DIAGNOSING with a tagged observation
// holding the supervisor's note. Vehicle status is untouched.
func (c *MaintenanceController) Reject(
	ctx context.Context,
	actor *User,
	caseID uuid.UUID,
	note string,
) (*MaintenanceCase, error) {
	log := logger.New("maintenanceController").Function("Reject")

	note = strings.TrimSpace(note)
	if note == "" {
		return nil, ErrMissingNote
	}
	if len(note) > MaxNoteLength {
		return nil, fmt.Errorf("%w: rejection note too long", ErrValidation)
	}

	var mc *MaintenanceCase
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		mc, err = c.maintenanceRepo.GetByIDForUpdate(ctx, tx, caseID)
		if err != nil {
			return fmt.Errorf("%w: case %s", ErrNotFound, caseID)
		}

		if err := ApplyCaseTransition(mc, CaseDiagnosing, time.Now()); err != nil {
			return ErrWrongState
		}
		mc.SupervisorID = &actor.ID

		if err := c.maintenanceRepo.Update(ctx, tx, mc); err != nil {
			return err
		}

		obs := &Observation{
			CaseID:   mc.ID,
			AuthorID: actor.ID,
			Text:     ObservationTagRejection + note,
		}
		if err := c.maintenanceRepo.CreateObservation(ctx, tx, obs); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "MaintenanceCase",
			mc.ID.String(), "repair rejected by supervisor")
	})
	if err != nil {
		return nil, err
	}

	if mc.MechanicID != nil {
		if err := c.eventBus.NotifyUser(*mc.MechanicID, events.CASE_REJECTED, map[string]any{
			"caseId": mc.ID.String(),
			"note":   note,
		}); err != nil {
			log.Warn("failed to publish case rejected event", "caseID", mc.ID, "error", err)
		}
	}

	return c.maintenanceRepo.GetByID(ctx, caseID)
}
