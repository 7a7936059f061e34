package scheduleController

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetops/config"
	"fleetops/internal/database"
	"fleetops/internal/logger"
	. "fleetops/internal/models"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GenerationMode string

const (
	ModeFixed  GenerationMode = "FIXED"
	ModeBlocks GenerationMode = "BLOCKS"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition violation")

	ErrSlotReserved = fmt.Errorf("%w: slot is reserved and cannot be deleted", ErrPrecondition)
)

type ScheduleController struct {
	scheduleRepo       repositories.ScheduleRepository
	transactionService services.Transactor
	auditService       *services.AuditService
	db                 database.DB
	Config             config.Config
}

type GenerateSlotsRequest struct {
	WorkshopID  uuid.UUID      `json:"workshopId"`
	DateFrom    string         `json:"dateFrom"` // YYYY-MM-DD
	DateTo      string         `json:"dateTo"`   // inclusive
	Weekdays    []time.Weekday `json:"weekdays"`
	Open        string         `json:"open"`  // HH:MM
	Close       string         `json:"close"` // HH:MM
	Mode        GenerationMode `json:"mode"`
	SlotMinutes int            `json:"slotMinutes,omitempty"` // fixed mode only
	ServiceType ServiceType    `json:"serviceType"`
	LunchStart  string         `json:"lunchStart,omitempty"` // HH:MM, optional
	LunchEnd    string         `json:"lunchEnd,omitempty"`
}

type DeleteFreeSlotsRequest struct {
	WorkshopID  uuid.UUID   `json:"workshopId"`
	DateFrom    string      `json:"dateFrom"`
	DateTo      string      `json:"dateTo"`
	ServiceType ServiceType `json:"serviceType,omitempty"`
}

type ScheduleControllerInterface interface {
	GenerateSlots(ctx context.Context, actor *User, request *GenerateSlotsRequest) ([]*ScheduleSlot, error)
	DeleteFreeSlots(ctx context.Context, actor *User, request *DeleteFreeSlotsRequest) (int64, error)
	DeleteSlot(ctx context.Context, actor *User, slotID uuid.UUID) error
	ListFree(ctx context.Context, workshopID uuid.UUID, serviceType ServiceType) ([]*ScheduleSlot, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ScheduleControllerInterface {
	return &ScheduleController{
		scheduleRepo:       repos.Schedule,
		transactionService: services.Transaction,
		auditService:       services.Audit,
		db:                 db,
		Config:             config,
	}
}

// dayWindow is the parsed per-day generation parameters. Times are minutes
// since midnight.
type dayWindow struct {
	open, close          int
	lunchStart, lunchEnd int // -1 when no lunch window
	slotMinutes          int
	mode                 GenerationMode
}

// buildDayGrid computes the slot windows for one day. Fixed mode walks the
// open window in slot-length steps; a candidate overlapping lunch moves the
// cursor to lunch end, and a candidate running past close is dropped. Block
// mode emits morning and afternoon blocks around lunch, or one full-day block
// when no lunch window is set.
func buildDayGrid(w dayWindow) [][2]int {
	var grid [][2]int

	if w.mode == ModeBlocks {
		if w.lunchStart >= 0 {
			if w.lunchStart > w.open {
				grid = append(grid, [2]int{w.open, w.lunchStart})
			}
			if w.close > w.lunchEnd {
				grid = append(grid, [2]int{w.lunchEnd, w.close})
			}
		} else if w.close > w.open {
			grid = append(grid, [2]int{w.open, w.close})
		}
		return grid
	}

	cursor := w.open
	for cursor+w.slotMinutes <= w.close {
		end := cursor + w.slotMinutes
		if w.lunchStart >= 0 && cursor < w.lunchEnd && end > w.lunchStart {
			cursor = w.lunchEnd
			continue
		}
		grid = append(grid, [2]int{cursor, end})
		cursor = end
	}

	return grid
}

func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

func (c *ScheduleController) parseWindow(request *GenerateSlotsRequest) (dayWindow, error) {
	w := dayWindow{lunchStart: -1, lunchEnd: -1, mode: request.Mode, slotMinutes: request.SlotMinutes}

	var err error
	if w.open, err = parseClock(request.Open); err != nil {
		return w, err
	}
	if w.close, err = parseClock(request.Close); err != nil {
		return w, err
	}
	if w.close <= w.open {
		return w, errors.New("closing time must be after opening time")
	}

	if request.LunchStart != "" || request.LunchEnd != "" {
		if w.lunchStart, err = parseClock(request.LunchStart); err != nil {
			return w, err
		}
		if w.lunchEnd, err = parseClock(request.LunchEnd); err != nil {
			return w, err
		}
		if w.lunchEnd <= w.lunchStart {
			return w, errors.New("lunch end must be after lunch start")
		}
	}

	if request.Mode == ModeFixed && w.slotMinutes <= 0 {
		return w, errors.New("slotMinutes must be positive for fixed mode")
	}

	return w, nil
}

// GenerateSlots produces the slot grid for every matching day in the range
// and creates the rows in one bulk insert. An empty grid is a no-op, not an
// error.
func (c *ScheduleController) GenerateSlots(
	ctx context.Context,
	actor *User,
	request *GenerateSlotsRequest,
) ([]*ScheduleSlot, error) {
	log := logger.New("scheduleController").Function("GenerateSlots")

	if request.WorkshopID == uuid.Nil {
		return nil, fmt.Errorf("%w: workshopId is required", ErrValidation)
	}
	if request.ServiceType == "" {
		return nil, fmt.Errorf("%w: serviceType is required", ErrValidation)
	}
	if request.Mode != ModeFixed && request.Mode != ModeBlocks {
		return nil, fmt.Errorf("%w: mode must be FIXED or BLOCKS", ErrValidation)
	}

	window, err := c.parseWindow(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	from, err := parseDate(request.DateFrom)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	to, err := parseDate(request.DateTo)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: dateTo must not precede dateFrom", ErrValidation)
	}

	wanted := make(map[time.Weekday]bool, len(request.Weekdays))
	for _, wd := range request.Weekdays {
		wanted[wd] = true
	}
	if len(wanted) == 0 {
		return nil, fmt.Errorf("%w: at least one weekday is required", ErrValidation)
	}

	var slots []*ScheduleSlot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if !wanted[day.Weekday()] {
			continue
		}
		for _, span := range buildDayGrid(window) {
			slots = append(slots, &ScheduleSlot{
				WorkshopID:  request.WorkshopID,
				ServiceType: request.ServiceType,
				StartsAt:    day.Add(time.Duration(span[0]) * time.Minute),
				EndsAt:      day.Add(time.Duration(span[1]) * time.Minute),
			})
		}
	}

	if len(slots) == 0 {
		log.Warn("slot generation produced no slots",
			"workshopID", request.WorkshopID, "from", request.DateFrom, "to", request.DateTo)
		return slots, nil
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.scheduleRepo.CreateSlots(ctx, tx, slots); err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditCreate, "ScheduleSlot", "",
			fmt.Sprintf("generated %d slots for workshop %s", len(slots), request.WorkshopID))
	})
	if err != nil {
		return nil, err
	}

	return slots, nil
}

// DeleteFreeSlots reclaims unreserved slots in a date range. Reserved slots
// survive, whatever the range.
func (c *ScheduleController) DeleteFreeSlots(
	ctx context.Context,
	actor *User,
	request *DeleteFreeSlotsRequest,
) (int64, error) {
	if request.WorkshopID == uuid.Nil {
		return 0, fmt.Errorf("%w: workshopId is required", ErrValidation)
	}

	from, err := parseDate(request.DateFrom)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	to, err := parseDate(request.DateTo)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	// End bound is exclusive; extend by one day so the range is inclusive.
	to = to.AddDate(0, 0, 1)

	var deleted int64
	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		deleted, err = c.scheduleRepo.DeleteFreeInRange(
			ctx, tx, request.WorkshopID, from, to, request.ServiceType,
		)
		if err != nil {
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditDelete, "ScheduleSlot", "",
			fmt.Sprintf("deleted %d free slots for workshop %s", deleted, request.WorkshopID))
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// DeleteSlot removes a single slot; reserved slots are refused.
func (c *ScheduleController) DeleteSlot(
	ctx context.Context,
	actor *User,
	slotID uuid.UUID,
) error {
	if _, err := c.scheduleRepo.GetByID(ctx, slotID); err != nil {
		return fmt.Errorf("%w: slot %s", ErrNotFound, slotID)
	}

	return c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.scheduleRepo.DeleteFree(ctx, tx, slotID); err != nil {
			if errors.Is(err, repositories.ErrSlotReserved) {
				return ErrSlotReserved
			}
			return err
		}

		return c.auditService.Record(ctx, tx, actor.ID, AuditDelete, "ScheduleSlot",
			slotID.String(), "slot deleted")
	})
}

func (c *ScheduleController) ListFree(
	ctx context.Context,
	workshopID uuid.UUID,
	serviceType ServiceType,
) ([]*ScheduleSlot, error) {
	return c.scheduleRepo.ListFree(ctx, workshopID, serviceType, time.Now())
}
