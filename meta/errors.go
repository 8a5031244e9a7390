package meta

import "fmt"

// ErrBadRequest represents an error wherein an invalid argument has been
// rejected before any work was performed.
type ErrBadRequest struct {
	// Reason is a natural language explanation for why the argument is invalid.
	Reason string
}

func (e *ErrBadRequest) Error() string {
	return fmt.Sprintf("Bad request: %s", e.Reason)
}

// ErrNotFound represents an error wherein a resource presumed to exist could
// not be located.
type ErrNotFound struct {
	// Type identifies the type of the resource that could not be located.
	Type string
	// ID is the identifier of the resource of type Type that could not be
	// located.
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found.", e.Type, e.ID)
}

// ErrConflict represents an error wherein a write cannot be completed because
// it would violate some constraint of the system, for instance storing a
// document whose unique field values are already used by another document of
// the same type.
type ErrConflict struct {
	// Type identifies the type of the resource that the conflict applies to.
	Type string
	// ID is the identifier of the resource that has encountered a conflict.
	ID string
	// Reason is a natural language explanation of the conflict.
	Reason string
}

func (e *ErrConflict) Error() string {
	return e.Reason
}

// ErrAmbiguousResult represents an error wherein a query expected to match at
// most one document matched several. It signals a data-integrity or
// query-misuse problem; no match is ever silently picked.
type ErrAmbiguousResult struct {
	// Type identifies the type of the resource that was queried.
	Type string
}

func (e *ErrAmbiguousResult) Error() string {
	return fmt.Sprintf(
		"Expected to find at most one %s, but found more than one.",
		e.Type,
	)
}
