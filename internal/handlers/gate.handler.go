package handlers

import (
	"fleetops/internal/app"
	gateController "fleetops/internal/controllers/gate"
	"fleetops/internal/handlers/middleware"
	"fleetops/internal/logger"
	"fleetops/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GateHandler struct {
	Handler
	gateController gateController.GateControllerInterface
}

func NewGateHandler(app app.App, router fiber.Router) *GateHandler {
	log := logger.New("handlers").File("gate_handler")
	return &GateHandler{
		gateController: app.Controllers.Gate,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *GateHandler) Register() {
	gate := h.router.Group("/gate", h.middleware.RequireAuth())

	gate.Post("/check-in", h.middleware.RequireAction(policy.ActionCheckIn), h.checkIn)
	gate.Post("/check-out", h.middleware.RequireAction(policy.ActionCheckOut), h.checkOut)
	gate.Post("/swap", h.middleware.RequireAction(policy.ActionGateSwap), h.swap)
	gate.Post(
		"/backup/handover",
		h.middleware.RequireAction(policy.ActionHandoverBackup),
		h.handoverBackup,
	)
	gate.Post(
		"/backup/return",
		h.middleware.RequireAction(policy.ActionReturnBackup),
		h.returnBackup,
	)
}

func (h *GateHandler) checkIn(c *fiber.Ctx) error {
	var request gateController.CheckInRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	mc, err := h.gateController.CheckIn(c.UserContext(), middleware.GetUser(c), &request)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"case": mc})
}

func (h *GateHandler) checkOut(c *fiber.Ctx) error {
	var request gateController.CheckOutRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	mc, err := h.gateController.CheckOut(c.UserContext(), middleware.GetUser(c), &request)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"case": mc})
}

func (h *GateHandler) swap(c *fiber.Ctx) error {
	var request struct {
		DriverID uuid.UUID `json:"driverId"`
	}
	if err := c.BodyParser(&request); err != nil || request.DriverID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	mc, err := h.gateController.Swap(c.UserContext(), middleware.GetUser(c), request.DriverID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"case": mc})
}

func (h *GateHandler) handoverBackup(c *fiber.Ctx) error {
	var request struct {
		Plate string `json:"plate"`
	}
	if err := c.BodyParser(&request); err != nil || request.Plate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	vehicle, err := h.gateController.HandoverBackup(
		c.UserContext(),
		middleware.GetUser(c),
		request.Plate,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"vehicle": vehicle})
}

func (h *GateHandler) returnBackup(c *fiber.Ctx) error {
	var request struct {
		Plate  string     `json:"plate"`
		SiteID *uuid.UUID `json:"siteId,omitempty"`
	}
	if err := c.BodyParser(&request); err != nil || request.Plate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	vehicle, err := h.gateController.ReturnBackup(
		c.UserContext(),
		middleware.GetUser(c),
		request.Plate,
		request.SiteID,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"vehicle": vehicle})
}
