package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionCase(t *testing.T) {
	tests := []struct {
		name    string
		from    CaseStatus
		to      CaseStatus
		allowed bool
	}{
		{"requested to scheduled", CaseRequested, CaseScheduled, true},
		{"scheduled to checked in", CaseScheduled, CaseCheckedIn, true},
		{"checked in to diagnosing", CaseCheckedIn, CaseDiagnosing, true},
		{"diagnosing to repairing", CaseDiagnosing, CaseRepairing, true},
		{"repairing to repaired", CaseRepairing, CaseRepaired, true},
		{"repaired to validated", CaseRepaired, CaseValidated, true},
		{"repaired back to diagnosing on rejection", CaseRepaired, CaseDiagnosing, true},
		{"validated to finalized", CaseValidated, CaseFinalized, true},
		{"no shortcut scheduled to repaired", CaseScheduled, CaseRepaired, false},
		{"no skipping check-in", CaseScheduled, CaseDiagnosing, false},
		{"finalized is terminal", CaseFinalized, CaseDiagnosing, false},
		{"no self transition", CaseRepairing, CaseRepairing, false},
		{"validated cannot be rejected", CaseValidated, CaseDiagnosing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionCase(tt.from, tt.to))
		})
	}
}

func TestApplyCaseTransition(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

	t.Run("stamps arrival on check-in", func(t *testing.T) {
		mc := &MaintenanceCase{Status: CaseScheduled}
		err := ApplyCaseTransition(mc, CaseCheckedIn, now)
		assert.NoError(t, err)
		assert.Equal(t, CaseCheckedIn, mc.Status)
		assert.NotNil(t, mc.ArrivedAt)
		assert.Equal(t, now, *mc.ArrivedAt)
	})

	t.Run("stamps validation time", func(t *testing.T) {
		mc := &MaintenanceCase{Status: CaseRepaired}
		err := ApplyCaseTransition(mc, CaseValidated, now)
		assert.NoError(t, err)
		assert.Equal(t, now, *mc.ValidatedAt)
	})

	t.Run("stamps departure on finalize", func(t *testing.T) {
		mc := &MaintenanceCase{Status: CaseValidated}
		err := ApplyCaseTransition(mc, CaseFinalized, now)
		assert.NoError(t, err)
		assert.Equal(t, now, *mc.DepartedAt)
	})

	t.Run("rejection keeps timestamps", func(t *testing.T) {
		arrived := now.Add(-2 * time.Hour)
		mc := &MaintenanceCase{Status: CaseRepaired, ArrivedAt: &arrived}
		err := ApplyCaseTransition(mc, CaseDiagnosing, now)
		assert.NoError(t, err)
		assert.Equal(t, CaseDiagnosing, mc.Status)
		assert.Equal(t, arrived, *mc.ArrivedAt)
		assert.Nil(t, mc.ValidatedAt)
	})

	t.Run("rejects illegal edge without mutation", func(t *testing.T) {
		mc := &MaintenanceCase{Status: CaseScheduled}
		err := ApplyCaseTransition(mc, CaseRepaired, now)
		assert.Error(t, err)
		assert.Equal(t, CaseScheduled, mc.Status)
		assert.Nil(t, mc.ArrivedAt)
	})
}

func TestMechanicEditable(t *testing.T) {
	editable := []CaseStatus{CaseRequested, CaseScheduled, CaseCheckedIn, CaseDiagnosing, CaseRepairing}
	for _, status := range editable {
		assert.True(t, (&MaintenanceCase{Status: status}).MechanicEditable(), string(status))
	}

	closed := []CaseStatus{CaseRepaired, CaseValidated, CaseFinalized}
	for _, status := range closed {
		assert.False(t, (&MaintenanceCase{Status: status}).MechanicEditable(), string(status))
	}
}

func TestObservationRejectionTag(t *testing.T) {
	obs := &Observation{Text: ObservationTagRejection + "brake noise persists"}
	assert.True(t, obs.IsRejection())
	assert.Equal(t, "brake noise persists", obs.RejectionNote())

	plain := &Observation{Text: "left mirror cracked on arrival"}
	assert.False(t, plain.IsRejection())
}
