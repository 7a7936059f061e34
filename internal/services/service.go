package services

import (
	"fleetops/config"
	"fleetops/internal/database"
	"fleetops/internal/events"
	"fleetops/internal/repositories"
)

type Service struct {
	Transaction *TransactionService
	Scheduler   *SchedulerService
	Audit       *AuditService
	Token       *TokenService
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Service, error) {
	repos := repositories.New(db)

	transactionService := NewTransactionService(db)
	schedulerService := NewSchedulerService()
	auditService := NewAuditService(db, repos.Audit)
	tokenService := NewTokenService(config)

	return Service{
		Transaction: transactionService,
		Scheduler:   schedulerService,
		Audit:       auditService,
		Token:       tokenService,
	}, nil
}
