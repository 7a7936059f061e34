// Package policy holds the static role/action authorization matrix. Every
// mutating route names an Action and the middleware checks the caller's role
// against this table before the handler runs.
package policy

import (
	. "fleetops/internal/models"
)

type Action string

const (
	ActionCreateCase     Action = "case.create"
	ActionAssignMechanic Action = "case.assign_mechanic"
	ActionEditDiagnosis  Action = "case.edit_diagnosis"
	ActionCloseRepair    Action = "case.close_repair"
	ActionValidateCase   Action = "case.validate"
	ActionRejectCase     Action = "case.reject"
	ActionManagePause    Action = "case.pause"
	ActionAddPhoto       Action = "case.photo"

	ActionCheckIn        Action = "gate.check_in"
	ActionCheckOut       Action = "gate.check_out"
	ActionGateSwap       Action = "gate.swap"
	ActionSwapVehicle    Action = "gate.swap_vehicle"
	ActionHandoverBackup Action = "gate.handover_backup"
	ActionReturnBackup   Action = "gate.return_backup"

	ActionGenerateSlots Action = "schedule.generate"
	ActionDeleteSlot    Action = "schedule.delete_slot"
	ActionViewSchedule  Action = "schedule.view"

	ActionRequestBackup Action = "backup.request"
	ActionCancelBackup  Action = "backup.cancel"
	ActionFulfillBackup Action = "backup.fulfill"

	ActionRequestSupply Action = "supply.request"
	ActionDecideSupply  Action = "supply.decide"

	ActionManageVehicles  Action = "vehicle.manage"
	ActionManageDocuments Action = "vehicle.documents"

	ActionViewReports Action = "report.view"
	ActionViewAudit   Action = "audit.view"
)

// allowed maps each action to the roles permitted to perform it.
var allowed = map[Action][]Role{
	ActionCreateCase:     {RoleDriver, RoleCoordinator},
	ActionAssignMechanic: {RoleCoordinator, RoleWorkshopChief},
	ActionEditDiagnosis:  {RoleMechanic},
	ActionCloseRepair:    {RoleMechanic},
	ActionValidateCase:   {RoleSupervisor},
	ActionRejectCase:     {RoleSupervisor},
	ActionManagePause:    {RoleMechanic},
	ActionAddPhoto:       {RoleMechanic, RoleGuard},

	ActionCheckIn:        {RoleGuard},
	ActionCheckOut:       {RoleGuard},
	ActionGateSwap:       {RoleGuard},
	ActionSwapVehicle:    {RoleCoordinator},
	ActionHandoverBackup: {RoleGuard},
	ActionReturnBackup:   {RoleGuard},

	ActionGenerateSlots: {RoleCoordinator, RoleWorkshopChief},
	ActionDeleteSlot:    {RoleCoordinator, RoleWorkshopChief},
	ActionViewSchedule: {
		RoleCoordinator, RoleWorkshopChief, RoleSupervisor, RoleMechanic,
		RoleDriver, RoleGuard,
	},

	ActionRequestBackup: {RoleDriver},
	ActionCancelBackup:  {RoleDriver},
	ActionFulfillBackup: {RoleCoordinator},

	ActionRequestSupply: {RoleMechanic},
	ActionDecideSupply:  {RoleWorkshopChief},

	ActionManageVehicles:  {RoleCoordinator},
	ActionManageDocuments: {RoleCoordinator},

	ActionViewReports: {RoleCoordinator, RoleSupervisor, RoleWorkshopChief},
	ActionViewAudit:   {RoleCoordinator, RoleSupervisor},
}

// Can reports whether the role may perform the action. Unknown actions are
// denied.
func Can(role Role, action Action) bool {
	for _, r := range allowed[action] {
		if r == role {
			return true
		}
	}
	return false
}

// RolesFor returns the roles permitted to perform the action.
func RolesFor(action Action) []Role {
	return allowed[action]
}
