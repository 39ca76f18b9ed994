package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/tilevault/internal/checksum"
	"github.com/vvka-141/tilevault/internal/config"
	"github.com/vvka-141/tilevault/internal/files/filesystem"
	"github.com/vvka-141/tilevault/internal/logging"
	"github.com/vvka-141/tilevault/internal/objectstore"
	"github.com/vvka-141/tilevault/internal/params"
	"github.com/vvka-141/tilevault/internal/pointcloud"
	"github.com/vvka-141/tilevault/internal/services"
	"github.com/vvka-141/tilevault/internal/tui"
	"github.com/vvka-141/tilevault/internal/tui/wizards"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

var importCmd = &cobra.Command{
	Use:   "import <dataset_path> <tile>...",
	Short: "Import point cloud tiles into a dataset",
	Long: `Import extracts the metadata of every source tile, merges it into one
committed dataset state, and stores a pointer record per tile.

Only tile headers are read; point data never enters the repository store.
Tiles must agree on format, schema and CRS unless a rewrite policy or
--allow-heterogeneous says otherwise. When they disagree on an interactive
terminal, a prompt offers the available policies.

Examples:
  # Import a homogeneous set of tiles
  tilevault import auckland tiles/*.laz

  # Tiles that will all be converted to COPC later
  tilevault import auckland tiles/*.laz --convert-to-copc

  # Mixed formats, stored as-is
  tilevault import auckland tiles/*.la? --allow-heterogeneous

  # Attach a title and description
  tilevault import auckland tiles/*.laz \
    --param title="Auckland LiDAR" \
    --param description="2023 survey"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runImport,
}

type importFlagValues struct {
	repo               string
	convertToCOPC      bool
	dropOptimization   bool
	dropFormat         bool
	dropSchema         bool
	allowHeterogeneous bool
	workers            int
	cliParams          []string
	paramsFiles        []string
	timeout            time.Duration
}

var importFlags importFlagValues

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFlags.repo, "repo", ".",
		"Repository root directory (holds "+storeDirName+"/ and "+config.ConfigFileName+")")

	// Rewrite policy flags
	importCmd.Flags().BoolVar(&importFlags.convertToCOPC, "convert-to-copc", false,
		"Merge tile metadata as if every tile will be converted to COPC\n"+
			"Lets mixed LAS/LAZ inputs import cleanly when a uniform conversion follows")
	importCmd.Flags().BoolVar(&importFlags.dropOptimization, "drop-optimization", false,
		"Ignore COPC/optimization fields when checking homogeneity")
	importCmd.Flags().BoolVar(&importFlags.dropFormat, "drop-format", false,
		"Ignore the whole format descriptor when checking homogeneity")
	importCmd.Flags().BoolVar(&importFlags.dropSchema, "drop-schema", false,
		"Ignore the dimension schema when checking homogeneity")
	importCmd.Flags().BoolVar(&importFlags.allowHeterogeneous, "allow-heterogeneous", false,
		"Store conflicting format/schema/CRS values instead of failing the import")

	importCmd.Flags().IntVar(&importFlags.workers, "workers", 0,
		fmt.Sprintf("Concurrent tile extractions (default %d, or import.workers from %s)",
			tilevault.DefaultExtractWorkers, config.ConfigFileName))

	// Parameter flags
	importCmd.Flags().StringSliceVar(&importFlags.cliParams, "param", nil,
		"Dataset meta items as key=value pairs (can be specified multiple times)\n"+
			"Example: --param title=\"Auckland LiDAR\" --param description=\"2023 survey\"")
	importCmd.Flags().StringSliceVar(&importFlags.paramsFiles, "params-file", nil,
		"Load dataset meta items from .env files (can be specified multiple times)\n"+
			"Later files override earlier ones, CLI --param overrides all")

	importCmd.Flags().DurationVar(&importFlags.timeout, "timeout", 3*time.Minute,
		"Catastrophic failure protection timeout (default 3m)\n"+
			"Examples: 30s, 5m, 1h30m")
}

// buildImportConfig builds an ImportConfig from CLI flags, tilevault.yaml
// defaults and the environment.
func buildImportConfig(datasetPath string, tilePaths []string, verbose bool) (tilevault.ImportConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := loadProjectConfig(importFlags.repo)
	if err != nil {
		return tilevault.ImportConfig{}, err
	}

	var policy tilevault.RewritePolicy
	if importFlags.convertToCOPC {
		policy |= tilevault.AsIfConvertedToCOPC
	}
	if importFlags.dropOptimization {
		policy |= tilevault.DropOptimization
	}
	if importFlags.dropFormat {
		policy |= tilevault.DropFormat
	}
	if importFlags.dropSchema {
		policy |= tilevault.DropSchema
	}

	allowHeterogeneous := importFlags.allowHeterogeneous
	workers := importFlags.workers
	if projectCfg != nil {
		if policy == tilevault.NoRewrite && projectCfg.Import.ConvertToCOPC {
			policy = tilevault.AsIfConvertedToCOPC
		}
		if !allowHeterogeneous {
			allowHeterogeneous = projectCfg.Import.AllowHeterogeneous
		}
		if workers == 0 {
			workers = projectCfg.Import.Workers
		}
	}

	// Layered meta parameters: tilevault.yaml < params-file < CLI --param
	extraMeta := make(map[string]string)
	if projectCfg != nil {
		for k, v := range projectCfg.Params {
			extraMeta[k] = v
		}
	}
	if len(importFlags.paramsFiles) > 0 {
		fileParams, err := loadParamsFromFiles(filesystem.NewOSFileSystem(), importFlags.paramsFiles, verbose)
		if err != nil {
			return tilevault.ImportConfig{}, err
		}
		for k, v := range fileParams {
			extraMeta[k] = v
		}
	}
	cliParams, err := params.ParseKeyValuePairs(importFlags.cliParams)
	if err != nil {
		return tilevault.ImportConfig{}, fmt.Errorf("invalid parameter format: %w", err)
	}
	for k, v := range cliParams {
		extraMeta[k] = v
	}

	importConfig := tilevault.ImportConfig{
		DatasetPath:        datasetPath,
		TilePaths:          tilePaths,
		Policy:             policy,
		AllowHeterogeneous: allowHeterogeneous,
		Workers:            workers,
		ExtraMeta:          extraMeta,
		Verbose:            verbose,
	}

	return importConfig, importConfig.Validate()
}

func runImport(cmd *cobra.Command, args []string) error {
	datasetPath := args[0]
	tilePaths := args[1:]
	verbose := getVerboseFlag(cmd)

	importConfig, err := buildImportConfig(datasetPath, tilePaths, verbose)
	if err != nil {
		return err
	}

	store, err := objectstore.NewFSStore(filepath.Join(importFlags.repo, storeDirName))
	if err != nil {
		return fmt.Errorf("opening repository store: %w", err)
	}

	logger := logging.NewConsoleLogger(verbose)
	extractor := pointcloud.NewPDALExtractor(pointcloud.NewCS2CSReprojector(), checksum.New(), logger)
	importer := services.NewImportService(extractor, store, logger)

	ctx, cancel := commandContext(importFlags.timeout)
	defer cancel()

	_, err = importer.Import(ctx, importConfig)

	// A homogeneity failure on a terminal gets one interactive retry with a
	// user-chosen policy instead of a bare error.
	if errors.Is(err, tilevault.ErrHeterogeneousDataset) &&
		importConfig.Policy == tilevault.NoRewrite && !importConfig.AllowHeterogeneous &&
		tui.IsInteractive() {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)

		choice, wizardErr := wizards.RunPolicyWizard()
		if wizardErr != nil {
			return wizardErr
		}
		if choice.Cancelled {
			return err
		}

		importConfig.Policy = choice.Policy
		importConfig.AllowHeterogeneous = choice.AllowHeterogeneous
		_, err = importer.Import(ctx, importConfig)
	}

	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

// loadParamsFromFiles loads parameters from multiple .env files using the
// provided filesystem. Later files override earlier ones.
func loadParamsFromFiles(fsProvider filesystem.FileSystemProvider, paramsFiles []string, verbose bool) (map[string]string, error) {
	parameters := make(map[string]string)

	for _, paramsFile := range paramsFiles {
		if verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Loading parameters from file: %s\n", paramsFile)
		}

		fileContent, err := fsProvider.ReadFile(paramsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read params file '%s': %w\n\nTip: Verify the path or use --param to set meta items directly:\n  tilevault import auckland tiles/*.laz --param title=Auckland", paramsFile, err)
		}

		fileParams, err := params.ParseEnvFile(fileContent)
		if err != nil {
			return nil, fmt.Errorf("failed to parse params file '%s': %w\n\nTip: Verify the file format (KEY=VALUE)", paramsFile, err)
		}

		for k, v := range fileParams {
			parameters[k] = v
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Loaded %d parameters from file (total: %d)\n", len(fileParams), len(parameters))
		}
	}

	return parameters, nil
}
