package services

import (
	"context"
	"time"

	"fleetops/internal/database"
	"fleetops/internal/logger"
	"fleetops/internal/models"
	"fleetops/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditService writes the append-only audit trail. State-changing actions are
// recorded inside the caller's transaction so the action and its trail commit
// together; logins and record views are recorded best-effort.
type AuditService struct {
	db        database.DB
	auditRepo repositories.AuditRepository
	log       logger.Logger
}

func NewAuditService(db database.DB, auditRepo repositories.AuditRepository) *AuditService {
	return &AuditService{
		db:        db,
		auditRepo: auditRepo,
		log:       logger.New("AuditService"),
	}
}

func (s *AuditService) Record(
	ctx context.Context,
	tx *gorm.DB,
	actorID uuid.UUID,
	kind models.AuditKind,
	entityType string,
	entityID string,
	description string,
) error {
	event := &models.AuditEvent{
		ActorID:     &actorID,
		Kind:        kind,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		OccurredAt:  time.Now(),
	}

	return s.auditRepo.Create(ctx, tx, event)
}

// RecordBestEffort writes outside any transaction and only logs failures.
// Used for LOGIN and ACCESS events where the action itself must not fail
// because the trail write did.
func (s *AuditService) RecordBestEffort(
	ctx context.Context,
	actorID uuid.UUID,
	kind models.AuditKind,
	entityType string,
	entityID string,
	description string,
) {
	log := s.log.Function("RecordBestEffort")

	event := &models.AuditEvent{
		ActorID:     &actorID,
		Kind:        kind,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		OccurredAt:  time.Now(),
	}

	if err := s.auditRepo.Create(ctx, s.db.SQLWithContext(ctx), event); err != nil {
		log.Warn("failed to record audit event", "kind", kind, "entityType", entityType, "error", err)
	}
}

// RecordSystem writes a best-effort event with no acting user, for scheduled
// jobs.
func (s *AuditService) RecordSystem(
	ctx context.Context,
	kind models.AuditKind,
	entityType string,
	entityID string,
	description string,
) {
	log := s.log.Function("RecordSystem")

	event := &models.AuditEvent{
		Kind:        kind,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		OccurredAt:  time.Now(),
	}

	if err := s.auditRepo.Create(ctx, s.db.SQLWithContext(ctx), event); err != nil {
		log.Warn("failed to record audit event", "kind", kind, "entityType", entityType, "error", err)
	}
}

func (s *AuditService) Search(
	ctx context.Context,
	filter repositories.AuditFilter,
) ([]*models.AuditEvent, error) {
	return s.auditRepo.Search(ctx, filter)
}
