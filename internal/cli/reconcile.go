package cli

import (
	"github.com/spf13/cobra"

	"github.com/vvka-141/tilevault/internal/services"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <dataset_path>",
	Short: "Bring the working-copy table in line with committed metadata",
	Long: `Reconcile applies committed metadata changes to the working-copy table.

An unchanged working copy is a no-op. A change the backend supports is
applied in place without touching row data. Anything else requires
dropping and recreating the table and its triggers, which permanently
destroys uncommitted edits, so it runs only after interactive approval
(or a countdown when --force is given).

Examples:
  tilevault reconcile auckland -d wc_db
  tilevault reconcile auckland -d wc_db --force   # CI/CD: countdown instead of prompt`,
	Args: RequireDatasetPath,
	RunE: runReconcile,
}

var reconcileFlags workingCopyFlagValues

func init() {
	rootCmd.AddCommand(reconcileCmd)
	addWorkingCopyFlags(reconcileCmd, &reconcileFlags)

	reconcileCmd.Flags().BoolVar(&reconcileFlags.force, "force", false,
		"Skip the interactive approval prompt for destructive table rebuilds\n"+
			"A countdown warning is shown instead; use in CI/CD pipelines")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	datasetPath := args[0]
	verbose := getVerboseFlag(cmd)

	diffConfig, _, err := buildDiffConfig(&reconcileFlags, datasetPath, "reconcile", verbose)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(reconcileFlags.timeout)
	defer cancel()

	return withWorkingCopy(ctx, diffConfig, reconcileFlags.repo, func(sess tilevault.Session, svc *services.DiffService, ds *tilevault.Dataset) error {
		return svc.Reconcile(ctx, sess, ds)
	})
}
