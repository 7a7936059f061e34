package handlers

import (
	"fleetops/internal/app"
	supplyController "fleetops/internal/controllers/supply"
	"fleetops/internal/handlers/middleware"
	"fleetops/internal/logger"
	"fleetops/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SupplyHandler struct {
	Handler
	supplyController supplyController.SupplyControllerInterface
}

func NewSupplyHandler(app app.App, router fiber.Router) *SupplyHandler {
	log := logger.New("handlers").File("supply_handler")
	return &SupplyHandler{
		supplyController: app.Controllers.Supply,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *SupplyHandler) Register() {
	cases := h.router.Group("/cases", h.middleware.RequireAuth())
	cases.Post("/:id/supplies", h.middleware.RequireAction(policy.ActionRequestSupply), h.add)
	cases.Get("/:id/supplies", h.listByCase)

	supplies := h.router.Group("/supplies", h.middleware.RequireAuth())
	supplies.Get("/pending", h.middleware.RequireAction(policy.ActionDecideSupply), h.listPending)
	supplies.Post("/:id/decide", h.middleware.RequireAction(policy.ActionDecideSupply), h.decide)
}

func (h *SupplyHandler) add(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	var request supplyController.AddSupplyRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	supply, err := h.supplyController.Add(c.UserContext(), middleware.GetUser(c), caseID, &request)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"supply": supply})
}

func (h *SupplyHandler) listByCase(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	supplies, err := h.supplyController.ListByCase(c.UserContext(), caseID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"supplies": supplies})
}

func (h *SupplyHandler) listPending(c *fiber.Ctx) error {
	supplies, err := h.supplyController.ListPending(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"supplies": supplies})
}

func (h *SupplyHandler) decide(c *fiber.Ctx) error {
	supplyID := paramUUID(c, "id")
	if supplyID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid supply ID"})
	}

	var request struct {
		Approve bool `json:"approve"`
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	supply, err := h.supplyController.Decide(
		c.UserContext(),
		middleware.GetUser(c),
		supplyID,
		request.Approve,
	)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"supply": supply})
}
