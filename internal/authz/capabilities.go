package authz

import "github.com/planvera/planvera/internal/models"

// capabilities is the static table mapping each role kind to the actions it
// grants within its assignment scope. Absence of an entry is a deny:
// the evaluator never treats a missing grant as permission.
//
// RolePlatformAdmin does not appear here; it bypasses scope matching
// entirely and is reserved for platform operators.
var capabilities = map[models.RoleKind]map[string]struct{}{
	models.RoleTenantAdmin: actionSet(
		ActionTenantView, ActionTenantManage,
		ActionProgramView, ActionProgramCreate, ActionProgramUpdate, ActionProgramDelete,
		ActionProjectRead, ActionProjectCreate, ActionProjectUpdate, ActionProjectDelete, ActionProjectSetDefault,
		ActionAssignmentView, ActionAssignmentGrant, ActionAssignmentRevoke,
		ActionAuditView,
	),
	models.RoleProgramManager: actionSet(
		ActionProgramView, ActionProgramUpdate,
		ActionProjectRead, ActionProjectCreate, ActionProjectUpdate, ActionProjectDelete, ActionProjectSetDefault,
		ActionAssignmentView, ActionAssignmentGrant, ActionAssignmentRevoke,
	),
	models.RoleProjectManager: actionSet(
		ActionProgramView,
		ActionProjectRead, ActionProjectUpdate,
		ActionAssignmentView,
	),
	models.RoleProjectMember: actionSet(
		ActionProgramView,
		ActionProjectRead,
	),
	models.RoleReadonly: actionSet(
		ActionTenantView,
		ActionProgramView,
		ActionProjectRead,
	),
}

// Grants reports whether the role kind allows the action.
func Grants(role models.RoleKind, action string) bool {
	if role == models.RolePlatformAdmin {
		return true
	}
	granted, ok := capabilities[role]
	if !ok {
		return false
	}
	_, ok = granted[action]
	return ok
}

// RoleActions returns the actions granted to a role kind, for introspection
// endpoints. The returned slice is a copy.
func RoleActions(role models.RoleKind) []string {
	granted, ok := capabilities[role]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(granted))
	for action := range granted {
		out = append(out, action)
	}
	return out
}

func actionSet(actions ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(actions))
	for _, action := range actions {
		set[action] = struct{}{}
	}
	return set
}
