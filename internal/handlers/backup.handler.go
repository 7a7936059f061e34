package handlers

import (
	"fleetops/internal/app"
	backupController "fleetops/internal/controllers/backup"
	"fleetops/internal/handlers/middleware"
	"fleetops/internal/logger"
	"fleetops/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BackupHandler struct {
	Handler
	backupController backupController.BackupControllerInterface
}

func NewBackupHandler(app app.App, router fiber.Router) *BackupHandler {
	log := logger.New("handlers").File("backup_handler")
	return &BackupHandler{
		backupController: app.Controllers.Backup,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *BackupHandler) Register() {
	backups := h.router.Group("/backups", h.middleware.RequireAuth())

	backups.Post("/", h.middleware.RequireAction(policy.ActionRequestBackup), h.request)
	backups.Delete("/:id", h.middleware.RequireAction(policy.ActionCancelBackup), h.cancel)
	backups.Post("/:id/fulfill", h.middleware.RequireAction(policy.ActionFulfillBackup), h.fulfill)
	backups.Get("/pending", h.middleware.RequireAction(policy.ActionFulfillBackup), h.listPending)
	backups.Get("/loaners", h.middleware.RequireAction(policy.ActionFulfillBackup), h.listLoaners)
}

func (h *BackupHandler) request(c *fiber.Ctx) error {
	var request struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	backup, err := h.backupController.Request(c.UserContext(), middleware.GetUser(c), request.Reason)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": backup})
}

func (h *BackupHandler) cancel(c *fiber.Ctx) error {
	requestID := paramUUID(c, "id")
	if requestID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	backup, err := h.backupController.Cancel(c.UserContext(), middleware.GetUser(c), requestID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"request": backup})
}

func (h *BackupHandler) fulfill(c *fiber.Ctx) error {
	requestID := paramUUID(c, "id")
	if requestID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	var request struct {
		VehicleID uuid.UUID `json:"vehicleId"`
	}
	if err := c.BodyParser(&request); err != nil || request.VehicleID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	backup, err := h.backupController.Fulfill(
		c.UserContext(),
		middleware.GetUser(c),
		requestID,
		request.VehicleID,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"request": backup})
}

func (h *BackupHandler) listPending(c *fiber.Ctx) error {
	requests, err := h.backupController.ListPending(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"requests": requests})
}

func (h *BackupHandler) listLoaners(c *fiber.Ctx) error {
	vehicles, err := h.backupController.ListAvailableLoaners(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"vehicles": vehicles})
}
