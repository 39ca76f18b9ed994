package tilevault

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Operation completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration or parameters
	ExitConnectionError   = 11 // Failed to connect to a working-copy backend
	ExitApprovalDenied    = 12 // User denied a destructive-operation approval
	ExitWorkingCopyError  = 13 // Working-copy state is invalid or was corrupted
	ExitInvalidFileFormat = 20 // Tile unreadable, dataset non-homogeneous, or format string malformed
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultForceApprovalCountdown is the countdown duration before forced
	// approval of a destructive operation proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultExtractWorkers is the number of tiles extracted concurrently
	// during import. Extraction is order-independent; the merge fold that
	// consumes the results is always sequential.
	DefaultExtractWorkers = 4

	// TrackingTableName is the name of the change-tracking table each
	// backend maintains alongside the working-copy tables.
	TrackingTableName = "tilevault_track"

	// TriggerPrefix namespaces the capture triggers tilevault installs on
	// working-copy tables.
	TriggerPrefix = "tilevault"
)

// Dataset-level meta item keys. These name the pieces of dataset metadata
// stored in the repository and compared against the working copy.
const (
	MetaItemFormat      = "format.json"
	MetaItemSchema      = "schema.json"
	MetaItemCRS         = "crs.wkt"
	MetaItemTitle       = "title"
	MetaItemDescription = "description"
	MetaItemMetadataXML = "metadata.xml"
)

// CRSMetaPrefix prefixes per-CRS meta items, eg "crs/EPSG:2193.wkt".
const CRSMetaPrefix = "crs/"
