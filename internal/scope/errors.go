package scope

import "errors"

var (
	// ErrMissingScope indicates the client omitted identifiers required to
	// resolve a scope. A client error; never retried.
	ErrMissingScope = errors.New("scope: missing required identifiers")

	// ErrScopeViolation indicates the supplied identifiers do not form a
	// valid tenant/program/project ancestor chain. A client error; never
	// retried and never silently corrected.
	ErrScopeViolation = errors.New("scope: identifiers violate the tenant/program/project chain")

	// ErrScopeIntegrity indicates an expected default entity is absent from
	// the store. This is a server-side data fault and is logged for operator
	// attention.
	ErrScopeIntegrity = errors.New("scope: store is missing an expected default entity")

	// ErrLookupTimeout indicates the underlying store read timed out. The
	// only retryable condition in the taxonomy; callers may retry with
	// backoff, the resolver itself never does.
	ErrLookupTimeout = errors.New("scope: store lookup timed out")
)
