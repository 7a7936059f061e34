package jobs

import (
	"context"
	"fmt"
	"time"

	"fleetops/internal/events"
	"fleetops/internal/models"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// DocumentExpiryJob sweeps vehicle documents daily and notifies coordinators
// about anything expiring within the warning window.
type DocumentExpiryJob struct {
	documentRepo repositories.DocumentRepository
	eventBus     events.Notifier
	auditService *services.AuditService
	warnWindow   time.Duration
	log          logger.Logger
}

func NewDocumentExpiryJob(
	documentRepo repositories.DocumentRepository,
	eventBus events.Notifier,
	auditService *services.AuditService,
) *DocumentExpiryJob {
	return &DocumentExpiryJob{
		documentRepo: documentRepo,
		eventBus:     eventBus,
		auditService: auditService,
		warnWindow:   30 * 24 * time.Hour,
		log:          logger.New("documentExpiryJob"),
	}
}

func (j *DocumentExpiryJob) Name() string {
	return "DailyDocumentExpiry"
}

func (j *DocumentExpiryJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	cutoff := time.Now().Add(j.warnWindow)
	docs, err := j.documentRepo.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		return log.Err("failed to list expiring documents", err)
	}

	if len(docs) == 0 {
		log.Info("No documents expiring within window")
		return nil
	}

	for _, doc := range docs {
		plate := ""
		if doc.Vehicle != nil {
			plate = doc.Vehicle.Plate
		}

		if err := j.eventBus.NotifyAll(events.DOCUMENT_EXPIRING, map[string]any{
			"documentId": doc.ID.String(),
			"vehicleId":  doc.VehicleID.String(),
			"plate":      plate,
			"name":       doc.Name,
			"expiresAt":  doc.ExpiresAt,
		}); err != nil {
			log.Warn("failed to publish expiry notification", "documentID", doc.ID, "error", err)
		}
	}

	j.auditService.RecordSystem(ctx, models.AuditAccess, "VehicleDocument", "",
		fmt.Sprintf("expiry sweep flagged %d documents", len(docs)))

	log.Info("Document expiry sweep completed", "expiring", len(docs))
	return nil
}

func (j *DocumentExpiryJob) Schedule() services.Schedule {
	return services.Daily
}
