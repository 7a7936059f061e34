package reportController

import (
	"testing"
	"time"

	. "fleetops/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCaseForLoan(t *testing.T) {
	base := time.Date(2025, 5, 12, 8, 0, 0, 0, time.UTC)
	arrived := base
	departed := base.Add(48 * time.Hour)

	closedCase := &MaintenanceCase{ArrivedAt: &arrived, DepartedAt: &departed}
	openCase := &MaintenanceCase{ArrivedAt: &arrived}

	t.Run("loan inside the workshop window matches", func(t *testing.T) {
		got := matchCaseForLoan([]*MaintenanceCase{closedCase}, base.Add(2*time.Hour))
		assert.Equal(t, closedCase, got)
	})

	t.Run("loan before arrival does not match", func(t *testing.T) {
		got := matchCaseForLoan([]*MaintenanceCase{closedCase}, base.Add(-time.Hour))
		assert.Nil(t, got)
	})

	t.Run("loan after departure does not match", func(t *testing.T) {
		got := matchCaseForLoan([]*MaintenanceCase{closedCase}, departed.Add(time.Hour))
		assert.Nil(t, got)
	})

	t.Run("open case window is open-ended", func(t *testing.T) {
		got := matchCaseForLoan([]*MaintenanceCase{openCase}, base.Add(200*time.Hour))
		assert.Equal(t, openCase, got)
	})

	t.Run("case that never arrived is skipped", func(t *testing.T) {
		got := matchCaseForLoan([]*MaintenanceCase{{}}, base)
		assert.Nil(t, got)
	})
}

func finishedCase(
	requesterID uuid.UUID,
	plate string,
	arrived, departed time.Time,
	supplies ...Supply,
) *MaintenanceCase {
	mc := &MaintenanceCase{
		RequesterID: requesterID,
		Status:      CaseFinalized,
		ArrivedAt:   &arrived,
		DepartedAt:  &departed,
		Vehicle:     &Vehicle{Plate: plate},
		Supplies:    supplies,
	}
	mc.ID = uuid.New()
	return mc
}

func TestPairLoanerPlates(t *testing.T) {
	driverID := uuid.New()
	arrived := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	departed := arrived.Add(72 * time.Hour)
	mc := finishedCase(driverID, "TRK-1001", arrived, departed)

	fulfilled := arrived.Add(3 * time.Hour)
	request := &BackupRequest{
		DriverID:    driverID,
		FulfilledAt: &fulfilled,
		Vehicle:     &Vehicle{Plate: "BCK-2001"},
	}

	t.Run("loan inside the case window pairs by plate", func(t *testing.T) {
		plates := pairLoanerPlates([]*MaintenanceCase{mc}, []*BackupRequest{request})
		assert.Equal(t, "BCK-2001", plates[mc.ID])
	})

	t.Run("loan for a different driver does not pair", func(t *testing.T) {
		other := &BackupRequest{
			DriverID:    uuid.New(),
			FulfilledAt: &fulfilled,
			Vehicle:     &Vehicle{Plate: "BCK-2002"},
		}
		plates := pairLoanerPlates([]*MaintenanceCase{mc}, []*BackupRequest{other})
		assert.Empty(t, plates)
	})

	t.Run("request without fulfillment or vehicle is skipped", func(t *testing.T) {
		plates := pairLoanerPlates([]*MaintenanceCase{mc}, []*BackupRequest{
			{DriverID: driverID},
			{DriverID: driverID, FulfilledAt: &fulfilled},
		})
		assert.Empty(t, plates)
	})
}

func TestSummarizeMonth(t *testing.T) {
	driverID := uuid.New()
	arrived := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	first := finishedCase(driverID, "TRK-1001", arrived, arrived.Add(48*time.Hour),
		Supply{Name: "brake pads", Status: ApprovalApproved},
		Supply{Name: "oil filter", Status: ApprovalApproved},
		Supply{Name: "windshield", Status: ApprovalRejected},
	)
	second := finishedCase(driverID, "TRK-1002", arrived.Add(24*time.Hour), arrived.Add(48*time.Hour),
		Supply{Name: "brake pads", Status: ApprovalApproved},
	)

	report := summarizeMonth(2025, 6, []*MaintenanceCase{first, second}, map[uuid.UUID]string{
		first.ID: "BCK-2001",
	})

	t.Run("counts finished cases and approved supplies", func(t *testing.T) {
		assert.Equal(t, 2, report.Summary.FinishedCases)
		assert.Equal(t, 3, report.Summary.ApprovedSupplies)
	})

	t.Run("mean hours averages the workshop windows", func(t *testing.T) {
		assert.InDelta(t, 36.0, report.Summary.MeanHoursInWorkshop, 0.001)
	})

	t.Run("top supplies rank by usage", func(t *testing.T) {
		require.NotEmpty(t, report.Summary.TopSupplies)
		assert.Equal(t, SupplyUsage{Name: "brake pads", Count: 2}, report.Summary.TopSupplies[0])
	})

	t.Run("rows carry plate, hours, and loaner pairing", func(t *testing.T) {
		require.Len(t, report.Rows, 2)
		assert.Equal(t, "TRK-1001", report.Rows[0].Plate)
		assert.InDelta(t, 48.0, report.Rows[0].HoursInWorkshop, 0.001)
		assert.Equal(t, "BCK-2001", report.Rows[0].LoanerPlate)
		assert.Empty(t, report.Rows[1].LoanerPlate)
	})

	t.Run("empty month produces a zero summary", func(t *testing.T) {
		empty := summarizeMonth(2025, 7, nil, nil)
		assert.Zero(t, empty.Summary.FinishedCases)
		assert.Zero(t, empty.Summary.MeanHoursInWorkshop)
		assert.Empty(t, empty.Rows)
	})
}
