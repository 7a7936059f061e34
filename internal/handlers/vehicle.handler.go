package handlers

import (
	"fleetops/internal/app"
	vehicleController "fleetops/internal/controllers/vehicle"
	"fleetops/internal/handlers/middleware"
	"fleetops/internal/logger"
	"fleetops/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type VehicleHandler struct {
	Handler
	vehicleController vehicleController.VehicleControllerInterface
}

func NewVehicleHandler(app app.App, router fiber.Router) *VehicleHandler {
	log := logger.New("handlers").File("vehicle_handler")
	return &VehicleHandler{
		vehicleController: app.Controllers.Vehicle,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *VehicleHandler) Register() {
	vehicles := h.router.Group("/vehicles", h.middleware.RequireAuth())

	vehicles.Post("/", h.middleware.RequireAction(policy.ActionManageVehicles), h.create)
	vehicles.Get("/", h.list)
	vehicles.Post("/swap", h.middleware.RequireAction(policy.ActionSwapVehicle), h.swapDrivers)
	vehicles.Delete(
		"/documents/:id",
		h.middleware.RequireAction(policy.ActionManageDocuments),
		h.deleteDocument,
	)
	vehicles.Get("/:id", h.get)
	vehicles.Post(
		"/:id/decommission",
		h.middleware.RequireAction(policy.ActionManageVehicles),
		h.decommission,
	)
	vehicles.Post(
		"/:id/documents",
		h.middleware.RequireAction(policy.ActionManageDocuments),
		h.addDocument,
	)
	vehicles.Get("/:id/documents", h.listDocuments)
	vehicles.Get("/:id/history", h.history)
}

func (h *VehicleHandler) create(c *fiber.Ctx) error {
	var request vehicleController.CreateVehicleRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	vehicle, err := h.vehicleController.Create(c.UserContext(), middleware.GetUser(c), &request)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"vehicle": vehicle})
}

func (h *VehicleHandler) list(c *fiber.Ctx) error {
	vehicles, err := h.vehicleController.List(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"vehicles": vehicles})
}

func (h *VehicleHandler) get(c *fiber.Ctx) error {
	vehicleID := paramUUID(c, "id")
	if vehicleID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}

	vehicle, err := h.vehicleController.Get(c.UserContext(), vehicleID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"vehicle": vehicle})
}

func (h *VehicleHandler) decommission(c *fiber.Ctx) error {
	vehicleID := paramUUID(c, "id")
	if vehicleID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}

	vehicle, err := h.vehicleController.Decommission(c.UserContext(), middleware.GetUser(c), vehicleID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"vehicle": vehicle})
}

func (h *VehicleHandler) swapDrivers(c *fiber.Ctx) error {
	var request struct {
		VehicleAID uuid.UUID `json:"vehicleAId"`
		VehicleBID uuid.UUID `json:"vehicleBId"`
	}
	if err := c.BodyParser(&request); err != nil ||
		request.VehicleAID == uuid.Nil || request.VehicleBID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	err := h.vehicleController.SwapDrivers(
		c.UserContext(),
		middleware.GetUser(c),
		request.VehicleAID,
		request.VehicleBID,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *VehicleHandler) addDocument(c *fiber.Ctx) error {
	vehicleID := paramUUID(c, "id")
	if vehicleID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}

	var request vehicleController.AddDocumentRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	document, err := h.vehicleController.AddDocument(
		c.UserContext(),
		middleware.GetUser(c),
		vehicleID,
		&request,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": document})
}

func (h *VehicleHandler) listDocuments(c *fiber.Ctx) error {
	vehicleID := paramUUID(c, "id")
	if vehicleID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}

	documents, err := h.vehicleController.ListDocuments(c.UserContext(), vehicleID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"documents": documents})
}

func (h *VehicleHandler) deleteDocument(c *fiber.Ctx) error {
	documentID := paramUUID(c, "id")
	if documentID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document ID"})
	}

	if err := h.vehicleController.DeleteDocument(c.UserContext(), middleware.GetUser(c), documentID); err != nil {
		return h.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *VehicleHandler) history(c *fiber.Ctx) error {
	vehicleID := paramUUID(c, "id")
	if vehicleID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}

	cases, err := h.vehicleController.History(c.UserContext(), vehicleID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"cases": cases})
}
