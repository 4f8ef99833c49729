package tierguard

import (
	"errors"
	"fmt"

	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/transfer"
	"github.com/xraph/tierguard/validate"
)

var (
	// ErrEntityNotFound is returned when an entity id is not in the catalog.
	ErrEntityNotFound = errors.New("tierguard: entity not found")

	// ErrPermissionNotFound is returned when no explicit record exists.
	ErrPermissionNotFound = errors.New("tierguard: permission not found")

	// ErrAuditEntryNotFound is returned when an audit entry cannot be found.
	ErrAuditEntryNotFound = errors.New("tierguard: audit entry not found")

	// ErrInvalidTier is returned for an unknown user tier.
	ErrInvalidTier = errors.New("tierguard: invalid user tier")

	// ErrInvalidPermission is returned for an unknown permission type.
	ErrInvalidPermission = errors.New("tierguard: invalid permission type")

	// ErrInvalidEntityType is returned for an unknown entity type.
	ErrInvalidEntityType = errors.New("tierguard: invalid entity type")

	// ErrInvalidOperation is returned when a change is never allowed, such
	// as full access for external users or an expiry in the past.
	ErrInvalidOperation = errors.New("tierguard: invalid operation")

	// ErrValidationFailed is returned when blocking validation errors refuse
	// a change.
	ErrValidationFailed = errors.New("tierguard: validation failed")

	// ErrWarningsNotAcknowledged is returned when a commit raises warnings
	// that the caller did not acknowledge.
	ErrWarningsNotAcknowledged = errors.New("tierguard: validation warnings not acknowledged")

	// ErrUnauthorizedActor is returned when the acting user may not modify
	// permissions.
	ErrUnauthorizedActor = errors.New("tierguard: actor is not allowed to modify permissions")

	// ErrUnknownTemplate is returned when a template name is not registered.
	ErrUnknownTemplate = errors.New("tierguard: unknown template")

	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("tierguard: session not found")

	// ErrCommitInProgress is returned when a session is committed twice
	// concurrently.
	ErrCommitInProgress = errors.New("tierguard: commit already in progress")

	// ErrImportFormat is returned for a malformed import document.
	ErrImportFormat = transfer.ErrFormat
)

// ValidationError carries the issues that refused a change or commit. It
// unwraps to ErrValidationFailed when any issue is an error and to
// ErrWarningsNotAcknowledged otherwise.
type ValidationError struct {
	Issues []validate.Issue
}

func (e *ValidationError) Error() string {
	errs, warns := 0, 0
	for _, i := range e.Issues {
		switch i.Type {
		case validate.TypeError:
			errs++
		case validate.TypeWarning:
			warns++
		}
	}
	if errs > 0 {
		return fmt.Sprintf("%s: %d error(s), %d warning(s)", ErrValidationFailed, errs, warns)
	}
	return fmt.Sprintf("%s: %d warning(s)", ErrWarningsNotAcknowledged, warns)
}

func (e *ValidationError) Unwrap() error {
	for _, i := range e.Issues {
		if i.Type == validate.TypeError {
			return ErrValidationFailed
		}
	}
	return ErrWarningsNotAcknowledged
}

// StoreFailure reports a change the persistence layer rejected.
type StoreFailure struct {
	Change change.Change
	Err    error

	// Unaudited is set when the permission write succeeded but its audit
	// entry could not be appended. The change is in effect.
	Unaudited bool
}

func (e *StoreFailure) Error() string {
	if e.Unaudited {
		return fmt.Sprintf("tierguard: %s/%s for %s applied without audit entry: %v",
			e.Change.EntityType, e.Change.EntityID, e.Change.Tier, e.Err)
	}
	return fmt.Sprintf("tierguard: store rejected %s/%s for %s: %v",
		e.Change.EntityType, e.Change.EntityID, e.Change.Tier, e.Err)
}

func (e *StoreFailure) Unwrap() error { return e.Err }
