package supplyController

import (
	"context"
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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition violation")

	ErrNotAssigned    = fmt.Errorf("%w: actor is not the assigned mechanic", ErrPrecondition)
	ErrNotEditable    = fmt.Errorf("%w: case is no longer editable", ErrPrecondition)
	ErrAlreadyDecided = fmt.Errorf("%w: supply request already decided", ErrPrecondition)
)

type SupplyController struct {
	supplyRepo         repositories.SupplyRepository
	maintenanceRepo    repositories.MaintenanceRepository
	transactionService services.Transactor
	auditService       *services.AuditService
	eventBus           events.Notifier
	db                 database.DB
	Config             config.Config
}

type AddSupplyRequest struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
}

type SupplyControllerInterface interface {
	Add(ctx context.Context, actor *User, caseID uuid.UUID, request *AddSupplyRequest) (*Supply, error)
	Decide(ctx context.Context, actor *User, supplyID uuid.UUID, approve bool) (*Supply, error)
	ListPending(ctx context.Context) ([]*Supply, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Supply, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus events.Notifier,
	config config.Config,
	db database.DB,
) SupplyControllerInterface {
	return &SupplyController{
		supplyRepo:         repos.Supply,
		maintenanceRepo:    repos.Maintenance,
		transactionService: services.Transaction,
		auditService:       services.Audit,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

// Add records a parts request against a case. Only the assigned mechanic may
// add supplies, and only while the case is still editable.
func (c *SupplyController) Add(
	ctx context.Context,
	actor *User,
	caseID uuid.UUID,
	request *AddSupplyRequest,
) (*Supply, error) {
	if strings.TrimSpace(request.Name) == "" {
		return nil, fmt.Errorf("%w: supply name is required", ErrValidation)
	}
	if request.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	supply := &Supply{
		CaseID:      caseID,
		Name:        strings.TrimSpace(request.Name),
		Quantity:    request.Quantity,
		RequesterID: actor.ID,
		RequestedAt: time.Now(),
		Status:      ApprovalPending,
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

		if err := c.supplyRepo.Create(ctx, tx, supply); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditCreate, "Supply",
			supply.ID.String(),
			fmt.Sprintf("supply %q requested for case %s", supply.Name, caseID))
	})
	if err != nil {
		return nil, err
	}

	return supply, nil
}

// Decide approves or rejects a pending supply request.
func (c *SupplyController) Decide(
	ctx context.Context,
	actor *User,
	supplyID uuid.UUID,
	approve bool,
) (*Supply, error) {
	log := logger.New("supplyController").Function("Decide")

	supply, err := c.supplyRepo.GetByID(ctx, supplyID)
	if err != nil {
		return nil, fmt.Errorf("%w: supply %s", ErrNotFound, supplyID)
	}

	status := ApprovalApproved
	verdict := "approved"
	if !approve {
		status = ApprovalRejected
		verdict = "rejected"
	}

	if err := supply.ApplyDecision(actor.ID, status, time.Now()); err != nil {
		return nil, ErrAlreadyDecided
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.supplyRepo.Decide(ctx, tx, supplyID, actor.ID, status, time.Now()); err != nil {
			if errors.Is(err, repositories.ErrSupplyDecided) {
				return ErrAlreadyDecided
			}
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditEdit, "Supply",
			supplyID.String(),
			fmt.Sprintf("supply %q %s", supply.Name, verdict))
	})
	if err != nil {
		return nil, err
	}

	if err := c.eventBus.NotifyUser(supply.RequesterID, events.SUPPLY_DECIDED, map[string]any{
		"supplyId": supplyID.String(),
		"status":   string(status),
	}); err != nil {
		log.Warn("failed to publish supply decided event", "supplyID", supplyID, "error", err)
	}

	return c.supplyRepo.GetByID(ctx, supplyID)
}

func (c *SupplyController) ListPending(ctx context.Context) ([]*Supply, error) {
	return c.supplyRepo.ListPending(ctx)
}

func (c *SupplyController) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Supply, error) {
	return c.supplyRepo.ListByCase(ctx, caseID)
}
