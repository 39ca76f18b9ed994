package wizards

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/tilevault/internal/tui/components"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// PolicyChoice is the outcome of the heterogeneous-import wizard.
type PolicyChoice struct {
	// Policy is the rewrite policy to retry the import with.
	Policy tilevault.RewritePolicy

	// AllowHeterogeneous stores the conflicting values instead of rewriting.
	AllowHeterogeneous bool

	// Cancelled is true when the user backed out without choosing.
	Cancelled bool
}

const (
	policyValueCOPC    = "copc"
	policyValueDropOpt = "drop-optimization"
	policyValueAllow   = "allow"
	policyValueCancel  = "cancel"
)

// policyOptions lists the ways a heterogeneous import can proceed.
func policyOptions() []components.Option {
	return []components.Option{
		{
			Label:       "Convert to COPC",
			Description: "Merge as if every tile will be converted to Cloud Optimized Point Cloud",
			Value:       policyValueCOPC,
		},
		{
			Label:       "Ignore optimization",
			Description: "Drop the COPC/optimization fields before merging",
			Value:       policyValueDropOpt,
		},
		{
			Label:       "Allow heterogeneous",
			Description: "Store the conflicting values; tiles keep their original formats",
			Value:       policyValueAllow,
		},
		{
			Label:       "Cancel",
			Description: "Abort the import",
			Value:       policyValueCancel,
		},
	}
}

// RunPolicyWizard asks the user how to proceed when the source tiles
// disagree on format, schema or CRS. Must only be called from an
// interactive terminal.
func RunPolicyWizard() (PolicyChoice, error) {
	selector := components.NewSelector("Tiles are not homogeneous. How should the import proceed?", policyOptions())

	program := tea.NewProgram(selector)
	final, err := program.Run()
	if err != nil {
		return PolicyChoice{}, fmt.Errorf("policy selection failed: %w", err)
	}

	result, ok := final.(components.Selector)
	if !ok {
		return PolicyChoice{}, fmt.Errorf("unexpected model type %T", final)
	}

	return choiceFromValue(result.Value(), result.Cancelled()), nil
}

// choiceFromValue maps a selector value to a PolicyChoice. Extracted so the
// mapping is testable without a terminal.
func choiceFromValue(value string, cancelled bool) PolicyChoice {
	if cancelled {
		return PolicyChoice{Cancelled: true}
	}
	switch value {
	case policyValueCOPC:
		return PolicyChoice{Policy: tilevault.AsIfConvertedToCOPC}
	case policyValueDropOpt:
		return PolicyChoice{Policy: tilevault.DropOptimization}
	case policyValueAllow:
		return PolicyChoice{AllowHeterogeneous: true}
	default:
		return PolicyChoice{Cancelled: true}
	}
}
