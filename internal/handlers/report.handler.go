package handlers

import (
	"time"

	"fleetops/internal/app"
	reportController "fleetops/internal/controllers/report"
	"fleetops/internal/handlers/middleware"
	"fleetops/internal/logger"
	"fleetops/internal/models"
	"fleetops/internal/policy"
	"fleetops/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	Handler
	reportController reportController.ReportControllerInterface
}

func NewReportHandler(app app.App, router fiber.Router) *ReportHandler {
	log := logger.New("handlers").File("report_handler")
	return &ReportHandler{
		reportController: app.Controllers.Report,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ReportHandler) Register() {
	reports := h.router.Group("/reports", h.middleware.RequireAuth())

	reports.Get("/status", h.middleware.RequireAction(policy.ActionViewReports), h.statusSummary)
	reports.Get("/monthly", h.middleware.RequireAction(policy.ActionViewReports), h.monthlyReport)
	reports.Get(
		"/backup-pairings",
		h.middleware.RequireAction(policy.ActionViewReports),
		h.backupPairings,
	)
	reports.Get(
		"/cases/:id/rejections",
		h.middleware.RequireAction(policy.ActionViewReports),
		h.caseRejections,
	)
	reports.Get("/audit", h.middleware.RequireAction(policy.ActionViewAudit), h.searchAudit)
}

// parseQueryTime accepts RFC 3339 timestamps and plain dates.
func parseQueryTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (h *ReportHandler) statusSummary(c *fiber.Ctx) error {
	summary, err := h.reportController.StatusSummary(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"summary": summary})
}

func (h *ReportHandler) monthlyReport(c *fiber.Ctx) error {
	year := c.QueryInt("year")
	month := c.QueryInt("month")
	if year == 0 || month == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "year and month query parameters are required",
		})
	}

	report, err := h.reportController.MonthlyReport(c.UserContext(), year, month)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"report": report})
}

func (h *ReportHandler) backupPairings(c *fiber.Ctx) error {
	from, ok := parseQueryTime(c.Query("from"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "from query parameter is required",
		})
	}
	to, ok := parseQueryTime(c.Query("to"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "to query parameter is required",
		})
	}

	pairings, err := h.reportController.BackupPairings(c.UserContext(), from, to)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"pairings": pairings})
}

func (h *ReportHandler) caseRejections(c *fiber.Ctx) error {
	caseID := paramUUID(c, "id")
	if caseID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	rejections, err := h.reportController.CaseRejections(c.UserContext(), caseID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"rejections": rejections})
}

func (h *ReportHandler) searchAudit(c *fiber.Ctx) error {
	filter := repositories.AuditFilter{
		Kind:       models.AuditKind(c.Query("kind")),
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		Contains:   c.Query("q"),
		Limit:      c.QueryInt("limit"),
	}

	if actorID, err := uuid.Parse(c.Query("actorId")); err == nil {
		filter.ActorID = &actorID
	}
	if from, ok := parseQueryTime(c.Query("from")); ok {
		filter.From = from
	}
	if to, ok := parseQueryTime(c.Query("to")); ok {
		filter.To = to
	}

	events, err := h.reportController.SearchAudit(c.UserContext(), middleware.GetUser(c), filter)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"events": events})
}
