package jobs

import (
	"context"
	"time"

	"fleetops/internal/events"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// StaleSlotJob counts unreserved schedule slots whose window has already
// passed and notifies coordinators. It never deletes anything; reclaiming
// slots stays a coordinator action through the schedule endpoints.
type StaleSlotJob struct {
	scheduleRepo repositories.ScheduleRepository
	eventBus     events.Notifier
	log          logger.Logger
}

func NewStaleSlotJob(
	scheduleRepo repositories.ScheduleRepository,
	eventBus events.Notifier,
) *StaleSlotJob {
	return &StaleSlotJob{
		scheduleRepo: scheduleRepo,
		eventBus:     eventBus,
		log:          logger.New("staleSlotJob"),
	}
}

func (j *StaleSlotJob) Name() string {
	return "HourlyStaleSlotSweep"
}

func (j *StaleSlotJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	stale, err := j.scheduleRepo.CountFreeBefore(ctx, time.Now())
	if err != nil {
		return log.Err("failed to count stale slots", err)
	}

	if stale == 0 {
		return nil
	}

	if err := j.eventBus.NotifyAll(events.SLOTS_RECLAIMABLE, map[string]any{
		"count": stale,
	}); err != nil {
		log.Warn("failed to publish stale slot notification", "count", stale, "error", err)
	}

	log.Info("Stale slot sweep completed", "stale", stale)
	return nil
}

func (j *StaleSlotJob) Schedule() services.Schedule {
	return services.Hourly
}
