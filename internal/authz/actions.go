package authz

// Action identifiers understood by the evaluator. The catalog is static:
// roles map onto these identifiers through the capability table and unknown
// identifiers are rejected rather than silently denied, so a typo in a route
// registration surfaces as an error instead of a permanent deny.
const (
	ActionTenantView   = "tenant.view"
	ActionTenantManage = "tenant.manage"
	// ActionTenantCreate is deliberately granted to no role in the
	// capability table; only platform operators reach it through the
	// platform_admin bypass.
	ActionTenantCreate = "tenant.create"

	ActionProgramView   = "program.view"
	ActionProgramCreate = "program.create"
	ActionProgramUpdate = "program.update"
	ActionProgramDelete = "program.delete"

	ActionProjectRead       = "project.read"
	ActionProjectCreate     = "project.create"
	ActionProjectUpdate     = "project.update"
	ActionProjectDelete     = "project.delete"
	ActionProjectSetDefault = "project.set_default"

	ActionAssignmentView   = "assignment.view"
	ActionAssignmentGrant  = "assignment.grant"
	ActionAssignmentRevoke = "assignment.revoke"

	ActionAuditView = "audit.view"
)

// actionCatalog records every known action and whether it mutates state.
// Mutating decisions are always written to the audit trail; allowed
// read-only decisions are only logged at debug fidelity.
var actionCatalog = map[string]bool{
	ActionTenantView:   false,
	ActionTenantManage: true,
	ActionTenantCreate: true,

	ActionProgramView:   false,
	ActionProgramCreate: true,
	ActionProgramUpdate: true,
	ActionProgramDelete: true,

	ActionProjectRead:       false,
	ActionProjectCreate:     true,
	ActionProjectUpdate:     true,
	ActionProjectDelete:     true,
	ActionProjectSetDefault: true,

	ActionAssignmentView:   false,
	ActionAssignmentGrant:  true,
	ActionAssignmentRevoke: true,

	ActionAuditView: false,
}

// KnownAction reports whether the identifier is part of the catalog.
func KnownAction(action string) bool {
	_, ok := actionCatalog[action]
	return ok
}

// IsMutating reports whether the action changes state. Unknown actions are
// treated as mutating so nothing slips past the audit trail.
func IsMutating(action string) bool {
	mutating, ok := actionCatalog[action]
	if !ok {
		return true
	}
	return mutating
}
