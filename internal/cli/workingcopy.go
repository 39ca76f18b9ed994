package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/tilevault/internal/config"
	"github.com/vvka-141/tilevault/internal/db"
	"github.com/vvka-141/tilevault/internal/logging"
	"github.com/vvka-141/tilevault/internal/objectstore"
	"github.com/vvka-141/tilevault/internal/services"
	"github.com/vvka-141/tilevault/internal/ui"
	"github.com/vvka-141/tilevault/internal/workingcopy"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// storeDirName is the repository subdirectory holding the committed dataset
// state (meta items and tile pointer records).
const storeDirName = ".tilevault"

// workingCopyFlagValues holds the flags shared by every command that talks
// to a working-copy backend.
type workingCopyFlagValues struct {
	repo                         string
	backend                      string
	gpkgPath                     string
	connection, host, username   string
	database, sslMode            string
	port                         int
	azure                        bool
	azureTenantID, azureClientID string
	awsRegion, googleInstance    string
	force                        bool
	timeout                      time.Duration
}

// addWorkingCopyFlags registers the shared working-copy flags on cmd.
func addWorkingCopyFlags(cmd *cobra.Command, flags *workingCopyFlagValues) {
	cmd.Flags().StringVar(&flags.repo, "repo", ".",
		"Repository root directory (holds "+storeDirName+"/ and "+config.ConfigFileName+")")
	cmd.Flags().StringVar(&flags.backend, "backend", "",
		"Working-copy backend: postgres|mysql|gpkg\n"+
			"(default: working_copy.backend from "+config.ConfigFileName+", or postgres)")
	cmd.Flags().StringVar(&flags.gpkgPath, "gpkg", "",
		"GeoPackage file path (only with --backend gpkg)")

	cmd.Flags().StringVar(&flags.connection, "connection", "",
		"Backend connection string.\n"+
			"PostgreSQL accepts URI or ADO.NET format; MySQL accepts a go-sql-driver DSN.\n"+
			"Mutually exclusive with granular flags (--host, --port, --username).\n"+
			"Alternative: Use TILEVAULT_CONNECTION_STRING or DATABASE_URL environment variable.")
	cmd.Flags().StringVarP(&flags.host, "host", "h", "",
		"Server host\n"+
			"Precedence: --host > $PGHOST > localhost")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0,
		"Server port\n"+
			"Precedence: --port > $PGPORT > 5432")
	cmd.Flags().StringVarP(&flags.username, "username", "U", "",
		"User (default: $PGUSER or current OS user)")
	cmd.Flags().StringVarP(&flags.database, "database", "d", "",
		"Working-copy database name (optional if specified in connection string, or $PGDATABASE)")
	cmd.Flags().StringVar(&flags.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")
	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
	_ = cmd.RegisterFlagCompletionFunc("backend", completeBackends)

	cmd.Flags().BoolVar(&flags.azure, "azure", false,
		"Enable Azure Entra ID authentication\n"+
			"Uses DefaultAzureCredential chain (Managed Identity, Azure CLI, etc.)")
	cmd.Flags().StringVar(&flags.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	cmd.Flags().StringVar(&flags.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")
	cmd.Flags().StringVar(&flags.awsRegion, "aws-region", "",
		"AWS region for RDS IAM authentication (overrides $AWS_REGION)")
	cmd.Flags().StringVar(&flags.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name (project:region:instance) for Google IAM authentication")

	cmd.Flags().DurationVar(&flags.timeout, "timeout", 3*time.Minute,
		"Catastrophic failure protection timeout (default 3m)\n"+
			"Prevents indefinite hangs from network issues or deadlocks\n"+
			"Examples: 30s, 5m, 1h30m")
}

// loadProjectConfig loads tilevault.yaml from the repository root. A missing
// file is not an error; every setting has a flag or environment fallback.
func loadProjectConfig(repo string) (*config.ProjectConfig, error) {
	projectCfg, err := config.Load(repo)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return projectCfg, nil
}

// buildDiffConfig resolves the working-copy target from CLI flags,
// environment variables and tilevault.yaml.
func buildDiffConfig(flags *workingCopyFlagValues, datasetPath string, commandName string, verbose bool) (tilevault.DiffConfig, *config.ProjectConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := loadProjectConfig(flags.repo)
	if err != nil {
		return tilevault.DiffConfig{}, nil, err
	}

	backend := tilevault.BackendKind(flags.backend)
	if backend == "" && projectCfg != nil {
		backend = tilevault.BackendKind(projectCfg.WorkingCopy.Backend)
	}
	if backend == "" {
		backend = tilevault.BackendPostgres
	}
	if !backend.IsValid() {
		return tilevault.DiffConfig{}, nil, fmt.Errorf("unknown working-copy backend %q (expected postgres, mysql or gpkg): %w", backend, tilevault.ErrInvalidConfig)
	}

	diffConfig := tilevault.DiffConfig{
		DatasetPath: datasetPath,
		Backend:     backend,
		Force:       flags.force,
		Verbose:     verbose,
	}

	switch backend {
	case tilevault.BackendGPKG:
		diffConfig.WorkingCopyPath = flags.gpkgPath
		if diffConfig.WorkingCopyPath == "" && projectCfg != nil {
			diffConfig.WorkingCopyPath = projectCfg.WorkingCopy.Path
		}

	case tilevault.BackendMySQL:
		// The PostgreSQL parameter resolution below does not apply to
		// go-sql-driver DSNs, so the connection string is taken verbatim.
		diffConfig.ConnectionString = flags.connection
		if diffConfig.ConnectionString == "" {
			diffConfig.ConnectionString = connectionStringFromEnv()
		}

	default:
		granularFlags := &db.GranularConnFlags{
			Host:     flags.host,
			Port:     flags.port,
			Username: flags.username,
			Database: flags.database,
			SSLMode:  flags.sslMode,
		}
		cloudFlags := &db.CloudFlags{
			AzureTenantID:  flags.azureTenantID,
			AzureClientID:  flags.azureClientID,
			AWSRegion:      flags.awsRegion,
			GoogleInstance: flags.googleInstance,
		}

		connConfig, err := resolveConnection(flags.connection, granularFlags, cloudFlags, projectCfg)
		if err != nil {
			return tilevault.DiffConfig{}, nil, err
		}
		if flags.azure && connConfig.AuthMethod == tilevault.AuthMethodStandard {
			connConfig.AuthMethod = tilevault.AuthMethodAzureEntraID
		}

		targetDB, err := resolveTargetDatabase(flags.database, connConfig.Database, commandName, verbose)
		if err != nil {
			return tilevault.DiffConfig{}, nil, err
		}
		connConfig.Database = targetDB

		if verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
			fmt.Fprintf(os.Stderr, "  Host: %s\n", connConfig.Host)
			fmt.Fprintf(os.Stderr, "  Port: %d\n", connConfig.Port)
			fmt.Fprintf(os.Stderr, "  User: %s\n", connConfig.Username)
			fmt.Fprintf(os.Stderr, "  Database: %s\n", connConfig.Database)
			fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", connConfig.SSLMode)
			fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", connConfig.AuthMethod)
		}

		diffConfig.ConnectionString = db.BuildConnectionString(connConfig)
		diffConfig.AuthMethod = connConfig.AuthMethod
	}

	if err := diffConfig.Validate(); err != nil {
		return tilevault.DiffConfig{}, nil, err
	}

	return diffConfig, projectCfg, nil
}

// tableNameForDataset derives the working-copy table name from a dataset
// path. Nested paths flatten with underscores, eg "surveys/auckland"
// becomes "surveys_auckland".
func tableNameForDataset(datasetPath string) string {
	return strings.ReplaceAll(strings.Trim(datasetPath, "/"), "/", "_")
}

// commandContext creates the command's root context with timeout and
// SIGINT/SIGTERM handling for graceful shutdown.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// withWorkingCopy opens the repository store and a backend session for the
// configured working copy, then runs fn with a fully wired DiffService.
func withWorkingCopy(
	ctx context.Context,
	diffConfig tilevault.DiffConfig,
	repo string,
	fn func(sess tilevault.Session, svc *services.DiffService, ds *tilevault.Dataset) error,
) error {
	store, err := objectstore.NewFSStore(filepath.Join(repo, storeDirName))
	if err != nil {
		return fmt.Errorf("opening repository store: %w", err)
	}

	meta, err := store.GetMeta(ctx, diffConfig.DatasetPath)
	if err != nil {
		return fmt.Errorf("reading committed metadata for %s: %w", diffConfig.DatasetPath, err)
	}
	if len(meta) == 0 {
		return fmt.Errorf("dataset %q not found in repository (did you run 'tilevault import'?)", diffConfig.DatasetPath)
	}

	ds := &tilevault.Dataset{
		Path:       diffConfig.DatasetPath,
		TableName:  tableNameForDataset(diffConfig.DatasetPath),
		PrimaryKey: "fid",
		Meta:       meta,
	}

	backend, err := workingcopy.New(diffConfig.Backend)
	if err != nil {
		return err
	}

	sess, cleanup, err := services.OpenSession(ctx, &diffConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	var approver tilevault.Approver
	if diffConfig.Force {
		approver = ui.NewForcedApprover(diffConfig.Verbose)
	} else {
		approver = ui.NewInteractiveApprover(diffConfig.Verbose)
	}
	logger := logging.NewConsoleLogger(diffConfig.Verbose)

	svc := services.NewDiffService(backend, store, approver, logger)
	return fn(sess, svc, ds)
}
