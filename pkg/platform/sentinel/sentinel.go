package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record or object does not exist in the store
// - ErrConflict: a conditional write lost against a concurrent writer
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: store or broker temporarily unreachable
// - ErrPermissionDenied: the backend refused the caller's credentials for this resource
// - ErrUnauthenticated: the backend could not authenticate the caller at all
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrUnavailable      = errors.New("unavailable")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("unauthenticated")
)
