package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vvka-141/tilevault/internal/services"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

var diffCmd = &cobra.Command{
	Use:   "diff <dataset_path>",
	Short: "Show metadata differences against the working copy",
	Long: `Diff compares the committed dataset metadata against what the working-copy
backend currently reports, after removing meta items the backend cannot
represent at all.

For each changed meta item the old and new serialized values are printed.
The summary line states whether the change can be applied in place or
requires a destructive table rebuild (see 'tilevault reconcile').

Examples:
  tilevault diff auckland
  tilevault diff auckland --backend mysql --connection "user:pass@tcp(host)/wc"`,
	Args: RequireDatasetPath,
	RunE: runDiff,
}

var diffFlags workingCopyFlagValues

func init() {
	rootCmd.AddCommand(diffCmd)
	addWorkingCopyFlags(diffCmd, &diffFlags)
}

func runDiff(cmd *cobra.Command, args []string) error {
	datasetPath := args[0]
	verbose := getVerboseFlag(cmd)

	diffConfig, _, err := buildDiffConfig(&diffFlags, datasetPath, "diff", verbose)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(diffFlags.timeout)
	defer cancel()

	return withWorkingCopy(ctx, diffConfig, diffFlags.repo, func(sess tilevault.Session, svc *services.DiffService, ds *tilevault.Dataset) error {
		diff, supported, err := svc.MetaDiff(ctx, sess, ds)
		if err != nil {
			return err
		}

		if diff.IsEmpty() {
			fmt.Fprintf(os.Stderr, "✓ Metadata of '%s' matches the working copy\n", ds.Path)
			return nil
		}

		keys := make([]string, 0, len(diff))
		for key := range diff {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			change := diff[key]
			fmt.Printf("--- %s\n", key)
			if change.New != "" {
				fmt.Printf("- %s\n", change.New)
			}
			if change.Old != "" {
				fmt.Printf("+ %s\n", change.Old)
			}
		}

		if supported {
			fmt.Fprintf(os.Stderr, "%d meta item(s) changed; can be applied in place\n", len(diff))
		} else {
			fmt.Fprintf(os.Stderr, "%d meta item(s) changed; requires a table rebuild (run 'tilevault reconcile %s')\n", len(diff), ds.Path)
		}
		return nil
	})
}
