package middleware

import (
	"fleetops/config"
	"fleetops/internal/database"
	"fleetops/internal/events"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type Middleware struct {
	DB           database.DB
	userRepo     repositories.UserRepository
	tokenService *services.TokenService
	Config       config.Config
	log          logger.Logger
	eventBus     *events.EventBus
}

func New(
	db database.DB,
	eventBus *events.EventBus,
	config config.Config,
	repos repositories.Repository,
	tokenService *services.TokenService,
) Middleware {
	log := logger.New("middleware")

	return Middleware{
		DB:           db,
		userRepo:     repos.User,
		tokenService: tokenService,
		Config:       config,
		log:          log,
		eventBus:     eventBus,
	}
}
