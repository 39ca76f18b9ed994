package cli

import (
	"fmt"
	"os"

	"github.com/vvka-141/tilevault/internal/config"
	"github.com/vvka-141/tilevault/internal/db"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// connectionStringFromEnv returns the first non-empty connection string from
// TILEVAULT_CONNECTION_STRING or DATABASE_URL environment variables.
func connectionStringFromEnv() string {
	if s := os.Getenv("TILEVAULT_CONNECTION_STRING"); s != "" {
		return s
	}
	return os.Getenv("DATABASE_URL")
}

// resolveConnection consolidates connection resolution for the working-copy
// commands. It handles the connection string flag, granular flags, cloud IAM
// flags, environment variables and tilevault.yaml defaults.
func resolveConnection(
	connStringFlag string,
	granularFlags *db.GranularConnFlags,
	cloudFlags *db.CloudFlags,
	projectConfig *config.ProjectConfig,
) (*tilevault.ConnectionConfig, error) {
	connString := connStringFlag
	if connString == "" {
		connString = connectionStringFromEnv()
	}

	envVars := db.LoadFromEnvironment()

	return db.ResolveConnectionParams(
		connString,
		granularFlags,
		cloudFlags,
		envVars,
		projectConfig,
	)
}

// resolveTargetDatabase applies database precedence: the -d/--database flag
// always takes precedence over the connection string database.
func resolveTargetDatabase(
	flagDatabase string,
	connConfigDatabase string,
	commandName string,
	verbose bool,
) (string, error) {
	targetDB := flagDatabase

	if targetDB != "" {
		if verbose && connConfigDatabase != "" && targetDB != connConfigDatabase {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Using --database flag (%s) instead of connection string database (%s)\n",
				targetDB, connConfigDatabase)
		}
	} else {
		targetDB = connConfigDatabase
	}

	if targetDB == "" {
		return "", fmt.Errorf("database name is required\n"+
			"Provide via:\n"+
			"  1. --database/-d flag: tilevault %s auckland -d mydb\n"+
			"  2. Connection string: tilevault %s auckland --connection \"postgresql://user@host/mydb\"\n"+
			"  3. Environment variable: export PGDATABASE=mydb",
			commandName, commandName)
	}

	return targetDB, nil
}
