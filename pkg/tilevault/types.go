package tilevault

import (
	"errors"
	"fmt"
	"time"
)

// ImportConfig contains all parameters needed for a tile import operation.
type ImportConfig struct {
	// DatasetPath is the path of the dataset within the repository, eg "auckland".
	DatasetPath string

	// TilePaths are the source tiles to import.
	TilePaths []string

	// Policy selects how tile metadata is normalized before merging.
	// ConvertToCOPC imports use AsIfConvertedToCOPC so tiles that will be
	// uniformly converted merge cleanly.
	Policy RewritePolicy

	// AllowHeterogeneous permits conflicting format/schema/CRS values to be
	// stored rather than failing the import.
	AllowHeterogeneous bool

	// Workers bounds concurrent tile extraction. Zero means DefaultExtractWorkers.
	Workers int

	// ExtraMeta holds user-supplied meta items (title, description, custom
	// keys) stored alongside the derived ones. Derived items win on conflict.
	ExtraMeta map[string]string

	// Verbose enables detailed logging.
	Verbose bool
}

// Validate checks if the ImportConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *ImportConfig) Validate() error {
	var errs []error

	if c.DatasetPath == "" {
		errs = append(errs, fmt.Errorf("DatasetPath is required: %w", ErrInvalidConfig))
	}

	if len(c.TilePaths) == 0 {
		errs = append(errs, fmt.Errorf("at least one tile path is required: %w", ErrInvalidConfig))
	}

	if c.Policy.Has(DropFormat) && c.Policy.Has(AsIfConvertedToCOPC) {
		errs = append(errs, fmt.Errorf("DropFormat and AsIfConvertedToCOPC are mutually exclusive: %w", ErrInvalidConfig))
	}

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("Workers cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// DiffConfig contains all parameters needed for a working-copy diff or
// reconciliation operation.
type DiffConfig struct {
	// DatasetPath is the path of the dataset within the repository.
	DatasetPath string

	// ConnectionString is the working-copy backend connection string.
	// Unused for file-backed backends such as GeoPackage.
	ConnectionString string

	// WorkingCopyPath is the file path of a file-backed working copy (GPKG).
	WorkingCopyPath string

	// Backend selects the working-copy backend implementation.
	Backend BackendKind

	// Force bypasses interactive approval of destructive table rebuilds.
	Force bool

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod
}

// Validate checks if the DiffConfig has all required fields and valid values.
func (c *DiffConfig) Validate() error {
	var errs []error

	if c.DatasetPath == "" {
		errs = append(errs, fmt.Errorf("DatasetPath is required: %w", ErrInvalidConfig))
	}

	if !c.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("unknown backend %q: %w", c.Backend, ErrInvalidConfig))
	}

	switch c.Backend {
	case BackendGPKG:
		if c.WorkingCopyPath == "" {
			errs = append(errs, fmt.Errorf("WorkingCopyPath is required for a GPKG working copy: %w", ErrInvalidConfig))
		}
	case BackendPostgres, BackendMySQL:
		if c.ConnectionString == "" {
			errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
		}
	}

	return errors.Join(errs...)
}

// BackendKind identifies a working-copy backend implementation.
type BackendKind string

const (
	BackendPostgres BackendKind = "postgres"
	BackendMySQL    BackendKind = "mysql"
	BackendGPKG     BackendKind = "gpkg"
)

// IsValid returns true if the BackendKind is a defined value.
func (k BackendKind) IsValid() bool {
	switch k {
	case BackendPostgres, BackendMySQL, BackendGPKG:
		return true
	}
	return false
}

// ConnectionConfig represents parsed connection parameters for a
// server-hosted working-copy backend.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is the AWS region of the RDS instance (used when AuthMethod
	// is AuthMethodAWSIAM).
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name in
	// project:region:instance form (used when AuthMethod is AuthMethodGoogleIAM).
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
