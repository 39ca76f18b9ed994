package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/tilevault/internal/services"
	"github.com/vvka-141/tilevault/internal/tui"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <dataset_path>",
	Short: "Create the dataset's working-copy table",
	Long: `Checkout materializes a committed dataset into the working-copy backend:
it creates the table, writes the backend-representable metadata, and
installs the capture triggers that maintain the dirty-key set.

Edits made to the table afterwards are tracked automatically; use
'tilevault status' to list them.

Examples:
  tilevault checkout auckland -d wc_db
  tilevault checkout auckland --backend gpkg --gpkg ./auckland.gpkg`,
	Args: RequireDatasetPath,
	RunE: runCheckout,
}

var checkoutFlags workingCopyFlagValues

func init() {
	rootCmd.AddCommand(checkoutCmd)
	addWorkingCopyFlags(checkoutCmd, &checkoutFlags)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	datasetPath := args[0]
	verbose := getVerboseFlag(cmd)

	diffConfig, _, err := buildDiffConfig(&checkoutFlags, datasetPath, "checkout", verbose)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(checkoutFlags.timeout)
	defer cancel()

	return withWorkingCopy(ctx, diffConfig, checkoutFlags.repo, func(sess tilevault.Session, svc *services.DiffService, ds *tilevault.Dataset) error {
		if verbose {
			// Verbose logging and the spinner fight over the terminal.
			return svc.Checkout(ctx, sess, ds)
		}
		return tui.RunWithSpinner(
			fmt.Sprintf("Checking out '%s'...", datasetPath),
			fmt.Sprintf("Working copy of '%s' created", datasetPath),
			func() error { return svc.Checkout(ctx, sess, ds) },
		)
	})
}
