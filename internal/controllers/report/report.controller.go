package reportController

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fleetops/config"
	"fleetops/internal/database"
	. "fleetops/internal/models"
	"fleetops/internal/repositories"
	"fleetops/internal/services"

	"github.com/google/uuid"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

type ReportController struct {
	maintenanceRepo repositories.MaintenanceRepository
	backupRepo      repositories.BackupRepository
	auditService    *services.AuditService
	db              database.DB
	Config          config.Config
}

// BackupPairing links a fulfilled loaner request to the maintenance case that
// kept the driver's primary vehicle in the workshop at that time.
type BackupPairing struct {
	Request *BackupRequest   `json:"request"`
	Case    *MaintenanceCase `json:"case,omitempty"`
}

type StatusSummary struct {
	Counts map[CaseStatus]int64 `json:"counts"`
	Open   int64                `json:"open"`
}

type SupplyUsage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MonthlyRow is one finished case in export shape, with the loaner that
// covered the driver while the vehicle was in the workshop.
type MonthlyRow struct {
	CaseID          uuid.UUID  `json:"caseId"`
	Plate           string     `json:"plate"`
	Driver          string     `json:"driver"`
	Problem         string     `json:"problem"`
	ArrivedAt       *time.Time `json:"arrivedAt,omitempty"`
	DepartedAt      *time.Time `json:"departedAt,omitempty"`
	HoursInWorkshop float64    `json:"hoursInWorkshop"`
	LoanerPlate     string     `json:"loanerPlate,omitempty"`
}

type MonthlySummary struct {
	Year                int           `json:"year"`
	Month               int           `json:"month"`
	FinishedCases       int           `json:"finishedCases"`
	ApprovedSupplies    int           `json:"approvedSupplies"`
	MeanHoursInWorkshop float64       `json:"meanHoursInWorkshop"`
	TopSupplies         []SupplyUsage `json:"topSupplies"`
}

type MonthlyReport struct {
	Summary MonthlySummary `json:"summary"`
	Rows    []MonthlyRow   `json:"rows"`
}

type ReportControllerInterface interface {
	StatusSummary(ctx context.Context) (*StatusSummary, error)
	MonthlyReport(ctx context.Context, year, month int) (*MonthlyReport, error)
	BackupPairings(ctx context.Context, from, to time.Time) ([]*BackupPairing, error)
	CaseRejections(ctx context.Context, caseID uuid.UUID) ([]*Observation, error)
	SearchAudit(ctx context.Context, actor *User, filter repositories.AuditFilter) ([]*AuditEvent, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ReportControllerInterface {
	return &ReportController{
		maintenanceRepo: repos.Maintenance,
		backupRepo:      repos.Backup,
		auditService:    services.Audit,
		db:              db,
		Config:          config,
	}
}

func (c *ReportController) StatusSummary(ctx context.Context) (*StatusSummary, error) {
	counts, err := c.maintenanceRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	summary := &StatusSummary{Counts: counts}
	for _, status := range ActiveCaseStatuses {
		summary.Open += counts[status]
	}

	return summary, nil
}

// MonthlyReport assembles the month's maintenance figures: finished cases as
// export rows with their loaner pairings, plus the aggregate KPIs.
func (c *ReportController) MonthlyReport(
	ctx context.Context,
	year, month int,
) (*MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	}
	if year < 2000 {
		return nil, fmt.Errorf("%w: year %d is out of range", ErrValidation, year)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	cases, err := c.maintenanceRepo.ListFinalizedInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	requests, err := c.backupRepo.ListFulfilledInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return summarizeMonth(year, month, cases, pairLoanerPlates(cases, requests)), nil
}

// pairLoanerPlates maps each finished case to the loaner that covered it,
// using the same workshop-window heuristic as the pairing report.
func pairLoanerPlates(
	cases []*MaintenanceCase,
	requests []*BackupRequest,
) map[uuid.UUID]string {
	plates := make(map[uuid.UUID]string)
	for _, request := range requests {
		if request.FulfilledAt == nil || request.Vehicle == nil {
			continue
		}

		driverCases := make([]*MaintenanceCase, 0, 1)
		for _, mc := range cases {
			if mc.RequesterID == request.DriverID {
				driverCases = append(driverCases, mc)
			}
		}

		if mc := matchCaseForLoan(driverCases, *request.FulfilledAt); mc != nil {
			plates[mc.ID] = request.Vehicle.Plate
		}
	}
	return plates
}

func summarizeMonth(
	year, month int,
	cases []*MaintenanceCase,
	loanerPlates map[uuid.UUID]string,
) *MonthlyReport {
	summary := MonthlySummary{
		Year:          year,
		Month:         month,
		FinishedCases: len(cases),
	}

	rows := make([]MonthlyRow, 0, len(cases))
	supplyCounts := make(map[string]int)
	var totalHours float64
	var timedCases int

	for _, mc := range cases {
		row := MonthlyRow{
			CaseID:      mc.ID,
			Problem:     mc.Problem,
			ArrivedAt:   mc.ArrivedAt,
			DepartedAt:  mc.DepartedAt,
			LoanerPlate: loanerPlates[mc.ID],
		}
		if mc.Vehicle != nil {
			row.Plate = mc.Vehicle.Plate
		}
		if mc.Requester != nil {
			row.Driver = mc.Requester.DisplayName()
		}
		if mc.ArrivedAt != nil && mc.DepartedAt != nil {
			row.HoursInWorkshop = mc.DepartedAt.Sub(*mc.ArrivedAt).Hours()
			totalHours += row.HoursInWorkshop
			timedCases++
		}
		rows = append(rows, row)

		for _, supply := range mc.Supplies {
			if supply.Status != ApprovalApproved {
				continue
			}
			summary.ApprovedSupplies++
			supplyCounts[supply.Name]++
		}
	}

	if timedCases > 0 {
		summary.MeanHoursInWorkshop = totalHours / float64(timedCases)
	}
	summary.TopSupplies = topSupplies(supplyCounts, 5)

	return &MonthlyReport{Summary: summary, Rows: rows}
}

// topSupplies orders supply usage by count, breaking ties by name so the
// ranking is stable.
func topSupplies(counts map[string]int, limit int) []SupplyUsage {
	usages := make([]SupplyUsage, 0, len(counts))
	for name, count := range counts {
		usages = append(usages, SupplyUsage{Name: name, Count: count})
	}

	sort.Slice(usages, func(i, j int) bool {
		if usages[i].Count != usages[j].Count {
			return usages[i].Count > usages[j].Count
		}
		return usages[i].Name < usages[j].Name
	})

	if len(usages) > limit {
		usages = usages[:limit]
	}
	return usages
}

// BackupPairings reconstructs which maintenance case each fulfilled loaner
// covered. Loan and case close at different times and are never linked
// directly, so the pairing matches the fulfillment timestamp against the
// case's workshop window for the same driver.
func (c *ReportController) BackupPairings(
	ctx context.Context,
	from, to time.Time,
) ([]*BackupPairing, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: end of range must be after start", ErrValidation)
	}

	requests, err := c.backupRepo.ListFulfilledInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	pairings := make([]*BackupPairing, 0, len(requests))
	for _, request := range requests {
		pairing := &BackupPairing{Request: request}

		cases, err := c.maintenanceRepo.ListByRequester(ctx, request.DriverID)
		if err != nil {
			return nil, err
		}
		pairing.Case = matchCaseForLoan(cases, *request.FulfilledAt)

		pairings = append(pairings, pairing)
	}

	return pairings, nil
}

// matchCaseForLoan finds the case whose workshop window contains the loan's
// fulfillment time. A case still in the workshop has no departure yet and its
// window is open-ended.
func matchCaseForLoan(cases []*MaintenanceCase, fulfilledAt time.Time) *MaintenanceCase {
	for _, mc := range cases {
		if mc.ArrivedAt == nil || fulfilledAt.Before(*mc.ArrivedAt) {
			continue
		}
		if mc.DepartedAt != nil && fulfilledAt.After(*mc.DepartedAt) {
			continue
		}
		return mc
	}
	return nil
}

func (c *ReportController) CaseRejections(
	ctx context.Context,
	caseID uuid.UUID,
) ([]*Observation, error) {
	if _, err := c.maintenanceRepo.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("%w: case %s", ErrNotFound, caseID)
	}

	return c.maintenanceRepo.ListRejections(ctx, caseID)
}

func (c *ReportController) SearchAudit(
	ctx context.Context,
	actor *User,
	filter repositories.AuditFilter,
) ([]*AuditEvent, error) {
	events, err := c.auditService.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	c.auditService.RecordBestEffort(ctx, actor.ID, AuditAccess, "AuditEvent", "",
		"audit trail searched")

	return events, nil
}
