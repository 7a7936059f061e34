package app

import (
	"context"

	"fleetops/config"
	"fleetops/internal/controllers"
	"fleetops/internal/database"
	"fleetops/internal/events"
	"fleetops/internal/handlers/middleware"
	"fleetops/internal/jobs"
	"fleetops/internal/logger"
	"fleetops/internal/repositories"
	"fleetops/internal/services"
	"fleetops/internal/websockets"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config

	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	repos := repositories.New(db)

	appServices, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	websocket, err := websockets.New(db, eventBus, config, appServices.Token, repos.User)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	appMiddleware := middleware.New(db, eventBus, config, repos, appServices.Token)
	appControllers := controllers.New(appServices, repos, eventBus, config, db)

	if config.SchedulerEnabled {
		documentExpiryJob := jobs.NewDocumentExpiryJob(repos.Document, eventBus, appServices.Audit)
		if err := appServices.Scheduler.AddJob(documentExpiryJob); err != nil {
			return &App{}, log.Err("failed to register document expiry job", err)
		}

		staleSlotJob := jobs.NewStaleSlotJob(repos.Schedule, eventBus)
		if err := appServices.Scheduler.AddJob(staleSlotJob); err != nil {
			return &App{}, log.Err("failed to register stale slot job", err)
		}

		if err := appServices.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
		log.Info("Scheduler started", "jobs", appServices.Scheduler.GetJobCount())
	}

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  appMiddleware,
		Websocket:   websocket,
		EventBus:    eventBus,
		Services:    appServices,
		Repos:       repos,
		Controllers: appControllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")

	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Audit,
		a.Services.Token,
		a.Controllers.Auth,
		a.Controllers.Maintenance,
		a.Controllers.Gate,
		a.Controllers.Schedule,
		a.Controllers.Backup,
		a.Controllers.Supply,
		a.Controllers.Vehicle,
		a.Controllers.Report,
		a.Repos.User,
		a.Repos.Vehicle,
		a.Repos.Maintenance,
		a.Repos.Schedule,
		a.Repos.Backup,
		a.Repos.Supply,
		a.Repos.Audit,
		a.Repos.Document,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
