package policy

import (
	"testing"

	. "fleetops/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		action  Action
		allowed bool
	}{
		{"driver creates cases", RoleDriver, ActionCreateCase, true},
		{"coordinator creates cases", RoleCoordinator, ActionCreateCase, true},
		{"mechanic cannot create cases", RoleMechanic, ActionCreateCase, false},
		{"supervisor validates", RoleSupervisor, ActionValidateCase, true},
		{"mechanic cannot validate own work", RoleMechanic, ActionValidateCase, false},
		{"guard checks in", RoleGuard, ActionCheckIn, true},
		{"driver cannot check in", RoleDriver, ActionCheckIn, false},
		{"guard processes the exchange", RoleGuard, ActionGateSwap, true},
		{"coordinator cannot process the exchange", RoleCoordinator, ActionGateSwap, false},
		{"driver requests backup", RoleDriver, ActionRequestBackup, true},
		{"coordinator fulfills backup", RoleCoordinator, ActionFulfillBackup, true},
		{"guard cannot fulfill backup", RoleGuard, ActionFulfillBackup, false},
		{"workshop chief decides supplies", RoleWorkshopChief, ActionDecideSupply, true},
		{"mechanic cannot decide supplies", RoleMechanic, ActionDecideSupply, false},
		{"workshop chief generates slots", RoleWorkshopChief, ActionGenerateSlots, true},
		{"driver views the schedule to pick a slot", RoleDriver, ActionViewSchedule, true},
		{"guard views the schedule for expected arrivals", RoleGuard, ActionViewSchedule, true},
		{"driver cannot generate slots", RoleDriver, ActionGenerateSlots, false},
		{"supervisor views audit", RoleSupervisor, ActionViewAudit, true},
		{"driver cannot view audit", RoleDriver, ActionViewAudit, false},
		{"unknown action is denied", RoleCoordinator, Action("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, Can(tt.role, tt.action))
		})
	}
}

func TestEveryActionHasAtLeastOneRole(t *testing.T) {
	for action, roles := range allowed {
		assert.NotEmpty(t, roles, string(action))
	}
}
