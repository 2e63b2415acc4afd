package scope

// The constructors below build scopes from identifiers that have already
// been validated against the hierarchy (service-layer ownership checks,
// stored audit rows). Request handling must always go through
// Resolver.Resolve instead; these do not verify the ancestor chain.

// Tenant builds a tenant-level scope.
func Tenant(tenantID string) Scope {
	return Scope{tenantID: tenantID}
}

// Program builds a program-level scope.
func Program(tenantID, programID string) Scope {
	return Scope{tenantID: tenantID, programID: programID}
}

// Project builds a project-level scope.
func Project(tenantID, programID, projectID string) Scope {
	return Scope{tenantID: tenantID, programID: programID, projectID: projectID}
}
