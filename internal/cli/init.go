package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/tilevault/internal/config"
	"github.com/vvka-141/tilevault/internal/scaffold"
	"github.com/vvka-141/tilevault/internal/tui"
	"github.com/vvka-141/tilevault/internal/tui/wizards"
)

var initCmd = &cobra.Command{
	Use:   "init <target_path>",
	Short: "Initialize a new tilevault repository",
	Long: `Initialize a tilevault repository into the specified directory.

The init command creates:
- tilevault.yaml with working-copy and import defaults
- The repository store directory
- README with usage instructions

Target directory must be empty or non-existent.

Examples:
  tilevault init .                   # Initialize in current directory
  tilevault init ./surveys           # Initialize in ./surveys
  tilevault init /absolute/path      # Initialize at absolute path

Available templates:
  gpkg     - File-backed GeoPackage working copy, no server needed
  postgres - PostgreSQL working copy with connection defaults

Use 'tilevault init --list' to see available templates.`,
	Args:              cobra.MinimumNArgs(0),
	RunE:              runInit,
	ValidArgsFunction: completeDirectories,
}

var (
	initTemplate string
	initList     bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "gpkg", "Template to use (gpkg, postgres)")
	_ = initCmd.RegisterFlagCompletionFunc("template", completeTemplateNames)
	initCmd.Flags().BoolVar(&initList, "list", false, "List available templates")
}

func runInit(cmd *cobra.Command, args []string) error {
	if initList {
		templates, err := scaffold.ListTemplates()
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}
		for _, t := range templates {
			fmt.Println(t)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("target path required\n\nUsage: tilevault init <target_path> [flags]\n\nExamples:\n  tilevault init .           # Current directory\n  tilevault init ./surveys   # Subdirectory\n\nUse 'tilevault init --list' to see available templates")
	}

	targetPath := args[0]

	// Determine repository name from target path
	repoName := filepath.Base(targetPath)
	if repoName == "." || repoName == ".." {
		cwd, err := os.Getwd()
		if err == nil {
			repoName = filepath.Base(cwd)
		} else {
			repoName = "repository"
		}
	}
	verbose := getVerboseFlag(cmd)

	// Without an explicit --template, let the user pick interactively.
	var wizardResult wizards.InitResult
	if !cmd.Flags().Changed("template") && tui.IsInteractive() {
		result, err := wizards.RunInitWizard(repoName)
		if err != nil {
			return fmt.Errorf("init wizard failed: %w", err)
		}
		if result.Cancelled {
			fmt.Fprintln(os.Stderr, "Init cancelled.")
			return nil
		}
		initTemplate = result.Template
		wizardResult = result
	}

	// Validate template
	templates, err := scaffold.ListTemplates()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	validTemplate := false
	for _, t := range templates {
		if t == initTemplate {
			validTemplate = true
			break
		}
	}

	if !validTemplate {
		return fmt.Errorf("invalid template '%s'. Available templates: %v", initTemplate, templates)
	}

	scaffolder := scaffold.NewScaffolder(verbose)

	if err := scaffolder.CreateRepository(repoName, initTemplate, targetPath); err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	if err := applyGpkgPath(targetPath, repoName, wizardResult.GpkgPath); err != nil {
		return err
	}
	if err := applyConnection(targetPath, repoName, wizardResult); err != nil {
		return err
	}

	// Display file tree
	tree, err := scaffold.BuildFileTree(targetPath)
	if err != nil {
		// Non-fatal - just skip tree display
		fmt.Fprintf(os.Stderr, "\n✓ Repository initialized successfully in '%s' using template '%s'\n\n", targetPath, initTemplate)
	} else {
		fmt.Fprintf(os.Stderr, "\n✓ Repository initialized successfully using template '%s'\n\n", initTemplate)
		fmt.Fprintln(os.Stderr, "Created structure:")
		fmt.Fprint(os.Stderr, tree)
	}

	// Next steps
	fmt.Fprintln(os.Stderr, "\nNext steps:")
	if targetPath != "." {
		fmt.Fprintf(os.Stderr, "  cd %s\n", targetPath)
	}
	fmt.Fprintln(os.Stderr, "  tilevault import mydataset tiles/*.laz")
	fmt.Fprintln(os.Stderr, "  tilevault checkout mydataset")

	return nil
}

// applyGpkgPath rewrites the template's default GeoPackage path with the
// one chosen in the wizard. A no-op when the default was kept.
func applyGpkgPath(targetPath, repoName, gpkgPath string) error {
	defaultPath := "./" + repoName + ".gpkg"
	if gpkgPath == "" || gpkgPath == defaultPath {
		return nil
	}

	configPath := filepath.Join(targetPath, config.ConfigFileName)
	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", config.ConfigFileName, err)
	}

	updated := strings.ReplaceAll(string(content), defaultPath, gpkgPath)
	if err := os.WriteFile(configPath, []byte(updated), 0644); err != nil {
		return fmt.Errorf("failed to update %s: %w", config.ConfigFileName, err)
	}
	return nil
}

// applyConnection rewrites the postgres template's connection defaults with
// the values collected by the wizard. A no-op for other templates.
func applyConnection(targetPath, repoName string, result wizards.InitResult) error {
	if result.Host == "" {
		return nil
	}

	configPath := filepath.Join(targetPath, config.ConfigFileName)
	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", config.ConfigFileName, err)
	}

	updated := string(content)
	for _, pair := range [][2]string{
		{"host: localhost", "host: " + result.Host},
		{"port: 5432", "port: " + result.Port},
		{"username: postgres", "username: " + result.Username},
		{"database: " + repoName + "_wc", "database: " + result.Database},
	} {
		if pair[0] == pair[1] {
			continue
		}
		updated = strings.ReplaceAll(updated, pair[0], pair[1])
	}

	if updated == string(content) {
		return nil
	}
	if err := os.WriteFile(configPath, []byte(updated), 0644); err != nil {
		return fmt.Errorf("failed to update %s: %w", config.ConfigFileName, err)
	}
	return nil
}
