package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vvka-141/tilevault/internal/pointcloud"
	"github.com/vvka-141/tilevault/internal/pointer"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// ImportService implements the tile import workflow: extract every source
// tile, fold the homogeneous metadata into one dataset record, enforce the
// homogeneity policy, and persist the result.
//
// Thread-Safety: NOT safe for concurrent Import() calls on the same instance.
// Create separate instances for concurrent imports.
type ImportService struct {
	extractor tilevault.TileExtractor
	store     tilevault.ObjectStore
	logger    tilevault.Logger
}

// NewImportService creates a new ImportService with all dependencies injected.
// Panics on nil dependencies: those are programmer errors that should fail
// loudly at startup, not as nil dereferences mid-import.
func NewImportService(
	extractor tilevault.TileExtractor,
	store tilevault.ObjectStore,
	logger tilevault.Logger,
) *ImportService {
	if extractor == nil {
		panic("extractor cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ImportService{
		extractor: extractor,
		store:     store,
		logger:    logger,
	}
}

// Import executes a tile import using the provided configuration.
//
// Extraction runs on a bounded worker pool since per-tile extraction is
// order-independent; the merge fold that consumes the results is always
// sequential, over results in input order.
func (s *ImportService) Import(ctx context.Context, config tilevault.ImportConfig) (*tilevault.MergedMetadata, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opID := uuid.New()
	s.logger.Verbose("import %s: dataset '%s', %d tile(s)", opID, config.DatasetPath, len(config.TilePaths))

	tiles, err := s.extractAll(ctx, config)
	if err != nil {
		return nil, err
	}

	merged := pointcloud.Merge(tiles, config.Policy)

	if merged.HasConflicts() && !config.AllowHeterogeneous {
		return nil, heterogeneousError(tiles, merged, config.Policy)
	}

	if err := s.persist(ctx, config, tiles, merged); err != nil {
		return nil, err
	}

	s.logger.Info("✓ Imported %d tile(s) into '%s'", len(tiles), config.DatasetPath)
	return &merged, nil
}

// extractAll extracts every source tile concurrently, bounded by the
// configured worker count. Results keep input order. The first extraction
// error cancels the remaining work; a single unreadable tile fails the
// whole import.
func (s *ImportService) extractAll(ctx context.Context, config tilevault.ImportConfig) ([]*tilevault.TileMetadata, error) {
	workers := config.Workers
	if workers == 0 {
		workers = tilevault.DefaultExtractWorkers
	}
	if workers > len(config.TilePaths) {
		workers = len(config.TilePaths)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index int
		path  string
	}

	jobs := make(chan job)
	results := make([]*tilevault.TileMetadata, len(config.TilePaths))
	errs := make([]error, len(config.TilePaths))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				meta, err := s.extractor.Extract(ctx, j.path)
				if err != nil {
					errs[j.index] = fmt.Errorf("extracting %s: %w", j.path, err)
					cancel()
					return
				}
				results[j.index] = meta
				s.logger.Verbose("extracted %s: %d points", meta.Tile.Name, meta.Tile.PointCount)
			}
		}()
	}

	for i, path := range config.TilePaths {
		select {
		case jobs <- job{index: i, path: path}:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// persist writes the merged meta items and one pointer record per tile.
func (s *ImportService) persist(ctx context.Context, config tilevault.ImportConfig, tiles []*tilevault.TileMetadata, merged tilevault.MergedMetadata) error {
	meta, err := buildMetaItems(merged)
	if err != nil {
		return fmt.Errorf("serializing dataset metadata: %w", err)
	}
	for key, value := range config.ExtraMeta {
		if _, derived := meta[key]; derived {
			s.logger.Verbose("ignoring --param %s: value is derived from the tiles", key)
			continue
		}
		meta[key] = value
	}
	if err := s.store.PutMeta(ctx, config.DatasetPath, meta); err != nil {
		return fmt.Errorf("storing dataset metadata: %w", err)
	}

	for _, tile := range tiles {
		record, err := pointer.Marshal(tile.Tile)
		if err != nil {
			return fmt.Errorf("serializing pointer record for %s: %w", tile.Tile.Name, err)
		}
		if err := s.store.PutPointer(ctx, config.DatasetPath, tile.Tile.Name, record); err != nil {
			return fmt.Errorf("storing pointer record for %s: %w", tile.Tile.Name, err)
		}
	}
	return nil
}

// formatJSON is the stored shape of one format descriptor.
type formatJSON struct {
	Compression           string `json:"compression,omitempty"`
	LASVersion            string `json:"lasVersion,omitempty"`
	Optimization          string `json:"optimization,omitempty"`
	OptimizationVersion   string `json:"optimizationVersion,omitempty"`
	PointDataRecordFormat int    `json:"pointDataRecordFormat"`
	PointDataRecordLength int    `json:"pointDataRecordLength"`
}

func formatAsJSON(f tilevault.FormatDescriptor) formatJSON {
	return formatJSON{
		Compression:           f.Compression,
		LASVersion:            f.LASVersion,
		Optimization:          f.Optimization,
		OptimizationVersion:   f.OptimizationVersion,
		PointDataRecordFormat: f.PointDataRecordFormat,
		PointDataRecordLength: f.PointDataRecordLength,
	}
}

// buildMetaItems serializes the merged dataset metadata into meta items.
// A dropped (zero) field yields no item at all. A conflicted field, which
// only reaches this point when heterogeneity is explicitly allowed, is
// stored as a JSON array of its distinct values in first-seen order.
func buildMetaItems(merged tilevault.MergedMetadata) (map[string]string, error) {
	items := map[string]string{}

	if !merged.Format.IsZero() {
		var value interface{}
		if f, ok := merged.Format.Value(); ok {
			if !f.IsZero() {
				value = formatAsJSON(f)
			}
		} else {
			all := merged.Format.All()
			list := make([]formatJSON, len(all))
			for i, f := range all {
				list[i] = formatAsJSON(f)
			}
			value = list
		}
		if value != nil {
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, err
			}
			items[tilevault.MetaItemFormat] = string(encoded)
		}
	}

	if !merged.Schema.IsZero() {
		var value interface{}
		if sd, ok := merged.Schema.Value(); ok {
			if !sd.IsZero() {
				value = sd
			}
		} else {
			value = merged.Schema.All()
		}
		if value != nil {
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, err
			}
			items[tilevault.MetaItemSchema] = string(encoded)
		}
	}

	if !merged.CRS.IsZero() {
		if crs, ok := merged.CRS.Value(); ok {
			items[tilevault.MetaItemCRS] = crs
		} else {
			encoded, err := json.Marshal(merged.CRS.All())
			if err != nil {
				return nil, err
			}
			items[tilevault.MetaItemCRS] = string(encoded)
		}
	}

	return items, nil
}

// heterogeneousError builds the ErrHeterogeneousDataset report: for each
// conflicted field, the distinct values in first-seen order and the tiles
// carrying each value, so the user can see exactly which files disagree.
func heterogeneousError(tiles []*tilevault.TileMetadata, merged tilevault.MergedMetadata, policy tilevault.RewritePolicy) error {
	var b strings.Builder

	if formats := merged.Format.Conflicts(); formats != nil {
		b.WriteString("\n  format:")
		for _, f := range formats {
			fmt.Fprintf(&b, "\n    %s (%s)", pointcloud.FormatSummary(f), tileNamesWhere(tiles, func(t *tilevault.TileMetadata) bool {
				return pointcloud.RewriteFormat(t, policy) == f
			}))
		}
	}
	if schemas := merged.Schema.Conflicts(); schemas != nil {
		b.WriteString("\n  schema:")
		for _, sd := range schemas {
			fmt.Fprintf(&b, "\n    %d dimension(s) (%s)", len(sd.Dimensions), tileNamesWhere(tiles, func(t *tilevault.TileMetadata) bool {
				return pointcloud.RewriteSchema(t, policy).Equal(sd)
			}))
		}
	}
	if crss := merged.CRS.Conflicts(); crss != nil {
		b.WriteString("\n  crs:")
		for _, crs := range crss {
			fmt.Fprintf(&b, "\n    %s (%s)", truncate(crs, 60), tileNamesWhere(tiles, func(t *tilevault.TileMetadata) bool {
				return pointcloud.NormalizeWKT(t.CRS) == crs
			}))
		}
	}

	return fmt.Errorf("%w: tiles disagree on dataset metadata:%s\n"+
		"Rerun with a rewrite policy (eg --convert-to-copc) or --allow-heterogeneous",
		tilevault.ErrHeterogeneousDataset, b.String())
}

func tileNamesWhere(tiles []*tilevault.TileMetadata, match func(*tilevault.TileMetadata) bool) string {
	var names []string
	for _, t := range tiles {
		if match(t) {
			names = append(names, t.Tile.Name)
		}
	}
	return strings.Join(names, ", ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
