package tilevault

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := importer.Import(ctx, config)
//	if errors.Is(err, tilevault.ErrHeterogeneousDataset) {
//	    // Report the conflicting values and suggest a rewrite policy.
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTileRead indicates the extractor could not parse a source tile.
	// Fatal for the import that encountered it.
	ErrTileRead = errors.New("invalid or unreadable tile")

	// ErrHeterogeneousDataset indicates a merge produced conflicting values
	// in a field where the caller's policy disallows conflicts.
	ErrHeterogeneousDataset = errors.New("non-homogeneous dataset")

	// ErrUnsupportedMetaUpdate signals that a meta change cannot be applied
	// in place and the working-copy table must be dropped and recreated.
	// This is a routing decision, not a failure.
	ErrUnsupportedMetaUpdate = errors.New("meta update not supported in place")

	// ErrMalformedFormatString indicates a stored format summary string does
	// not match the expected "<compression>-<version>[/<opt>-<optver>]" form.
	ErrMalformedFormatString = errors.New("malformed format summary")

	// ErrApprovalDenied indicates the user denied approval for a destructive
	// operation such as a working-copy table rebuild.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrConnectionFailed indicates the working-copy backend connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method
	// is not supported by the selected backend.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrTriggersLost indicates change-capture triggers could not be restored
	// after a suspension. A table left without triggers silently loses future
	// change detection, so this is always escalated.
	ErrTriggersLost = errors.New("change-capture triggers could not be restored")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrTileRead):
		return ExitInvalidFileFormat
	case errors.Is(err, ErrHeterogeneousDataset):
		return ExitInvalidFileFormat
	case errors.Is(err, ErrMalformedFormatString):
		return ExitInvalidFileFormat
	case errors.Is(err, ErrTriggersLost):
		return ExitWorkingCopyError
	}

	// Check for common connection error patterns
	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
