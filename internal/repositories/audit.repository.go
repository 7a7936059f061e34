package repositories

import (
	"context"
	"time"

	"fleetops/internal/database"
	"fleetops/internal/logger"
	. "fleetops/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const AUDIT_SEARCH_DEFAULT_LIMIT = 100

// AuditFilter narrows an audit search. Zero values mean "no filter".
type AuditFilter struct {
	ActorID    *uuid.UUID
	Kind       AuditKind
	EntityType string
	EntityID   string
	Contains   string
	From       time.Time
	To         time.Time
	Limit      int
}

type AuditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, event *AuditEvent) error
	Search(ctx context.Context, filter AuditFilter) ([]*AuditEvent, error)
}

type auditRepository struct {
	db  database.DB
	log logger.Logger
}

func NewAuditRepository(db database.DB) AuditRepository {
	return &auditRepository{
		db:  db,
		log: logger.New("auditRepository"),
	}
}

func (r *auditRepository) Create(ctx context.Context, tx *gorm.DB, event *AuditEvent) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(event).Error; err != nil {
		return log.Err("failed to create audit event", err, "kind", event.Kind)
	}

	return nil
}

func (r *auditRepository) Search(
	ctx context.Context,
	filter AuditFilter,
) ([]*AuditEvent, error) {
	log := r.log.Function("Search")

	query := r.db.SQLWithContext(ctx).Preload("Actor")

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Contains != "" {
		query = query.Where("description ILIKE ?", "%"+filter.Contains+"%")
	}
	if !filter.From.IsZero() {
		query = query.Where("occurred_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("occurred_at < ?", filter.To)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = AUDIT_SEARCH_DEFAULT_LIMIT
	}

	var events []*AuditEvent
	if err := query.
		Order("occurred_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, log.Err("failed to search audit events", err)
	}

	return events, nil
}
