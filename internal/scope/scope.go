// Package scope resolves the tenant/program/project triple that governs a
// single operation. A Scope is constructed once per request, is immutable,
// and is threaded explicitly through every call; there is no ambient
// "current scope" anywhere in the process.
package scope

// Level identifies how deep in the hierarchy a scope reaches.
type Level int

const (
	LevelTenant Level = iota + 1
	LevelProgram
	LevelProject
)

func (l Level) String() string {
	switch l {
	case LevelTenant:
		return "tenant"
	case LevelProgram:
		return "program"
	case LevelProject:
		return "project"
	default:
		return "unknown"
	}
}

// Scope is the resolved identifier triple. Fields are unexported so a scope
// cannot be mutated after resolution; a new operation must re-resolve.
type Scope struct {
	tenantID  string
	programID string
	projectID string
}

// TenantID returns the owning tenant identifier. Always present.
func (s Scope) TenantID() string { return s.tenantID }

// ProgramID returns the program identifier, or "" for tenant-level scopes.
func (s Scope) ProgramID() string { return s.programID }

// ProjectID returns the project identifier, or "" when the scope does not
// reach project level.
func (s Scope) ProjectID() string { return s.projectID }

// Level reports the deepest identifier the scope carries.
func (s Scope) Level() Level {
	switch {
	case s.projectID != "":
		return LevelProject
	case s.programID != "":
		return LevelProgram
	default:
		return LevelTenant
	}
}

// IsZero reports whether the scope was never resolved.
func (s Scope) IsZero() bool { return s.tenantID == "" }
