package tilevault

import "context"

// Approver handles user interaction for approval workflows, particularly
// for destructive operations like dropping and rebuilding a working-copy
// table.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to type the table name for confirmation
type Approver interface {
	// RequestApproval prompts for confirmation before dropping and
	// recreating the named working-copy table.
	//
	// Returns:
	//   - bool: true if approved, false if denied
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, tableName string) (bool, error)
}
