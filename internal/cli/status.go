package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/tilevault/internal/services"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

var statusCmd = &cobra.Command{
	Use:   "status <dataset_path>",
	Short: "Show uncommitted working-copy changes",
	Long: `Status lists the dataset's dirty-key set: one line per working-copy row
known to differ from the committed baseline.

The set is maintained by the capture triggers installed at checkout, so
status never scans the table itself. A row edited twice appears once.

Examples:
  tilevault status auckland
  tilevault status auckland --backend gpkg --gpkg ./auckland.gpkg
  tilevault status auckland -d wc_db -h db.example.com`,
	Args: RequireDatasetPath,
	RunE: runStatus,
}

var statusFlags workingCopyFlagValues

func init() {
	rootCmd.AddCommand(statusCmd)
	addWorkingCopyFlags(statusCmd, &statusFlags)
}

func runStatus(cmd *cobra.Command, args []string) error {
	datasetPath := args[0]
	verbose := getVerboseFlag(cmd)

	diffConfig, _, err := buildDiffConfig(&statusFlags, datasetPath, "status", verbose)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(statusFlags.timeout)
	defer cancel()

	return withWorkingCopy(ctx, diffConfig, statusFlags.repo, func(sess tilevault.Session, svc *services.DiffService, ds *tilevault.Dataset) error {
		entries, err := svc.Status(ctx, sess, ds)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Fprintf(os.Stderr, "✓ Working copy of '%s' is clean\n", ds.Path)
			return nil
		}

		// Keys to stdout for pipeline consumption, summary to stderr.
		for _, entry := range entries {
			fmt.Printf("%s\t%s\n", entry.Table, entry.Key)
		}
		fmt.Fprintf(os.Stderr, "%d changed row(s) in '%s'\n", len(entries), ds.Path)
		return nil
	})
}
