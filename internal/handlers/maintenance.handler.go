package handlers

import (
	"fleetops/internal/app"
	maintenanceController "fleetops/internal/controllers/maintenance"
	"fleetops/internal/handlers/middleware"
	"fleetops/internal/logger"
	"fleetops/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MaintenanceHandler struct {
	Handler
	maintenanceController maintenanceController.MaintenanceControllerInterface
}

func NewMaintenanceHandler(app app.App, router fiber.Router) *MaintenanceHandler {
	log := logger.New("handlers").File("maintenance_handler")
	return &MaintenanceHandler{
		maintenanceController: app.Controllers.Maintenance,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *MaintenanceHandler) Register() {
	cases := h.router.Group("/cases", h.middleware.RequireAuth())

	cases.Post("/", h.middleware.RequireAction(policy.ActionCreateCase), h.createCase)
	cases.Get("/active", h.listActive)
	cases.Get("/mine", h.listMine)
	cases.Get("/:id", h.getCase)

	cases.Get(
		"/:id/mechanics",
		h.middleware.RequireAction(policy.ActionAssignMechanic),
		h.listMechanicCandidates,
	)
	cases.Post(
		"/:id/assign",
		h.middleware.RequireAction(policy.ActionAssignMechanic),
		h.assignMechanic,
	)

	cases.Put(
		"/:id/diagnosis",
		h.middleware.RequireAction(policy.ActionEditDiagnosis),
		h.saveDiagnosis,
	)
	cases.Post("/:id/pause", h.middleware.RequireAction(policy.ActionManagePause), h.openPause)
	cases.Delete("/:id/pause", h.middleware.RequireAction(policy.ActionManagePause), h.closePause)
	cases.Post("/:id/photos", h.middleware.RequireAction(policy.ActionAddPhoto), h.addPhoto)
	cases.Post("/:id/close", h.middleware.RequireAction(policy.ActionCloseRepair), h.closeRepair)

	cases.Post("/:id/validate", h.middleware.RequireAction(policy.ActionValidateCase), h.validate)
	cases.Post("/:id/reject", h.middleware.RequireAction(policy.ActionRejectCase), h.reject)
}

func (h *MaintenanceHandler) createCase(c *fiber.Ctx) error {
	var request maintenanceController.CreateCaseRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	mc, err := h.maintenanceController.CreateCase(c.UserContext(), middleware.GetUser(c), &request)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"case": mc})
}

func (h *MaintenanceHandler) listActive(c *fiber.Ctx) error {
	cases, err := h.maintenanceController.ListActive(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"cases": cases})
}

func (h *MaintenanceHandler) listMine(c *fiber.Ctx) error {
	user := middleware.GetUser(c)

	cases, err := h.maintenanceController.ListForMechanic(c.UserContext(), user.ID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"cases": cases})
}

func (h *MaintenanceHandler) getCase(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	mc, err := h.maintenanceController.GetCase(c.UserContext(), caseID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"case": mc})
}

func (h *MaintenanceHandler) listMechanicCandidates(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	mechanics, err := h.maintenanceController.ListMechanicCandidates(c.UserContext(), caseID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"mechanics": mechanics})
}

func (h *MaintenanceHandler) assignMechanic(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	var request struct {
		MechanicID uuid.UUID `json:"mechanicId"`
	}
	if err := c.BodyParser(&request); err != nil || request.MechanicID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	mc, err := h.maintenanceController.AssignMechanic(
		c.UserContext(),
		middleware.GetUser(c),
		caseID,
		request.MechanicID,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"case": mc})
}

func (h *MaintenanceHandler) saveDiagnosis(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	var request maintenanceController.SaveDiagnosisRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	mc, err := h.maintenanceController.SaveDiagnosis(
		c.UserContext(),
		middleware.GetUser(c),
		caseID,
		&request,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"case": mc})
}

func (h *MaintenanceHandler) openPause(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	var request struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	pause, err := h.maintenanceController.OpenPause(
		c.UserContext(),
		middleware.GetUser(c),
		caseID,
		request.Reason,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"pause": pause})
}

func (h *MaintenanceHandler) closePause(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	pause, err := h.maintenanceController.ClosePause(c.UserContext(), middleware.GetUser(c), caseID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"pause": pause})
}

func (h *MaintenanceHandler) addPhoto(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	var request maintenanceController.AddPhotoRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	photo, err := h.maintenanceController.AddPhoto(
		c.UserContext(),
		middleware.GetUser(c),
		caseID,
		&request,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"photo": photo})
}

func (h *MaintenanceHandler) closeRepair(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	mc, err := h.maintenanceController.CloseRepair(c.UserContext(), middleware.GetUser(c), caseID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"case": mc})
}

func (h *MaintenanceHandler) validate(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	mc, err := h.maintenanceController.Validate(c.UserContext(), middleware.GetUser(c), caseID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"case": mc})
}

func (h *MaintenanceHandler) reject(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	var request struct {
		Note string `json:"note"`
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	mc, err := h.maintenanceController.Reject(
		c.UserContext(),
		middleware.GetUser(c),
		caseID,
		request.Note,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"case": mc})
}
