package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `  _   _ _                         _ _
 | |_(_) | _____   ____ _ _   _| | |_
 | __| | |/ _ \ \ / / _' | | | | | __|
 | |_| | |  __/\ V / (_| | |_| | | |_
  \__|_|_|\___| \_/ \__,_|\__,_|_|\__|`

var rootCmd = &cobra.Command{
	Use:   "tilevault",
	Short: "Point cloud dataset version control",
	Long: asciiLogo + `

tilevault versions point cloud tile datasets: imports extract and merge
per-tile metadata into a committed dataset state, and working-copy tables
in PostgreSQL, MySQL or GeoPackage are kept in sync with it through
trigger-based change tracking.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Working-copy connection failed
  12 - User denied a destructive-operation approval
  13 - Working-copy state invalid or corrupted
  20 - Tile unreadable or dataset not homogeneous`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for tilevault")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
