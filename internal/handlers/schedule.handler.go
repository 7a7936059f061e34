package handlers

import (
	"fleetops/internal/app"
	scheduleController "fleetops/internal/controllers/schedule"
	"fleetops/internal/handlers/middleware"
	"fleetops/internal/logger"
	"fleetops/internal/models"
	"fleetops/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ScheduleHandler struct {
	Handler
	scheduleController scheduleController.ScheduleControllerInterface
}

func NewScheduleHandler(app app.App, router fiber.Router) *ScheduleHandler {
	log := logger.New("handlers").File("schedule_handler")
	return &ScheduleHandler{
		scheduleController: app.Controllers.Schedule,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ScheduleHandler) Register() {
	slots := h.router.Group("/slots", h.middleware.RequireAuth())

	slots.Get("/", h.middleware.RequireAction(policy.ActionViewSchedule), h.listFree)
	slots.Post("/generate", h.middleware.RequireAction(policy.ActionGenerateSlots), h.generate)
	slots.Delete("/", h.middleware.RequireAction(policy.ActionDeleteSlot), h.deleteRange)
	slots.Delete("/:id", h.middleware.RequireAction(policy.ActionDeleteSlot), h.deleteSlot)
}

func (h *ScheduleHandler) listFree(c *fiber.Ctx) error {
	workshopID, err := uuid.Parse(c.Query("workshopId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "workshopId query parameter is required",
		})
	}

	serviceType := models.ServiceType(c.Query("serviceType"))

	slots, err := h.scheduleController.ListFree(c.UserContext(), workshopID, serviceType)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

func (h *ScheduleHandler) generate(c *fiber.Ctx) error {
	var request scheduleController.GenerateSlotsRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	slots, err := h.scheduleController.GenerateSlots(
		c.UserContext(),
		middleware.GetUser(c),
		&request,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"slots": slots,
		"count": len(slots),
	})
}

func (h *ScheduleHandler) deleteRange(c *fiber.Ctx) error {
	var request scheduleController.DeleteFreeSlotsRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	deleted, err := h.scheduleController.DeleteFreeSlots(
		c.UserContext(),
		middleware.GetUser(c),
		&request,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}

func (h *ScheduleHandler) deleteSlot(c *fiber.Ctx) error {
	slotID := paramUUID(c, "id")
	if slotID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot ID"})
	}

	if err := h.scheduleController.DeleteSlot(c.UserContext(), middleware.GetUser(c), slotID); err != nil {
		return h.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
