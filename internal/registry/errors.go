package registry

import "errors"

var (
	// ErrUnknownEntityType is returned for an entity type missing from the format table.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrMissingIdentifier is returned when a registered record has no identifier value.
	// The whole batch is rejected.
	ErrMissingIdentifier = errors.New("record is missing its identifier")

	// ErrNoFallbackAvailable is returned when a required reference must be
	// filled but nothing is registered for the referenced entity type.
	ErrNoFallbackAvailable = errors.New("no registered identifier available")

	// ErrFinalized is returned when a finalized builder is written to.
	ErrFinalized = errors.New("registry is finalized")
)
