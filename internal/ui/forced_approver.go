package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// ForcedApprover implements the Approver interface for forced (non-interactive)
// approval. It displays a countdown and automatically approves after the countdown,
// used when the --force flag is provided.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover.
func NewForcedApprover(verbose bool) tilevault.Approver {
	return &ForcedApprover{
		verbose: verbose,
		output:  os.Stderr,
		sleepFn: time.Sleep,
	}
}

// RequestApproval displays a countdown and automatically approves after the countdown.
func (a *ForcedApprover) RequestApproval(ctx context.Context, tableName string) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, "!!! DANGER !!!")
	fmt.Fprintf(a.output, "The working-copy table '%s' will be DROPPED and RECREATED.\n", tableName)
	fmt.Fprintln(a.output, "Any uncommitted edits in this table will be permanently deleted!")
	fmt.Fprintln(a.output)

	countdownSeconds := int(tilevault.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rRebuilding in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(1 * time.Second)
		}
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with table rebuild...                              \n")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ tilevault.Approver = (*ForcedApprover)(nil)
