package handlers

import (
	"fleetops/internal/app"
	"fleetops/internal/handlers/middleware"
	"fleetops/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	setupWebSocketRoute(router, app)

	api := router.Group("/api")
	HealthHandler(api, app.Config)
	NewAuthHandler(*app, api).Register()
	NewMaintenanceHandler(*app, api).Register()
	NewGateHandler(*app, api).Register()
	NewScheduleHandler(*app, api).Register()
	NewBackupHandler(*app, api).Register()
	NewSupplyHandler(*app, api).Register()
	NewVehicleHandler(*app, api).Register()
	NewReportHandler(*app, api).Register()

	return nil
}

func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		app.Websocket.HandleWebSocket(c)
	}))
}

// paramUUID parses a UUID route parameter; uuid.Nil signals a malformed value.
func paramUUID(c *fiber.Ctx, name string) uuid.UUID {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil
	}
	return id
}
