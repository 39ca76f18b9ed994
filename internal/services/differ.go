package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/tilevault/internal/pointer"
	"github.com/vvka-141/tilevault/internal/workingcopy"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// DiffService compares a working copy against the committed dataset state
// and reconciles the working copy when metadata changed.
//
// Thread-Safety: NOT safe for concurrent calls on the same instance. Create
// separate instances for concurrent operations; each owns its own Tracker.
type DiffService struct {
	backend  tilevault.WorkingCopyBackend
	store    tilevault.ObjectStore
	approver tilevault.Approver
	logger   tilevault.Logger
	tracker  *workingcopy.Tracker
}

// NewDiffService creates a new DiffService with all dependencies injected.
// Panics on nil dependencies; those are programmer errors that should fail
// loudly at startup.
func NewDiffService(
	backend tilevault.WorkingCopyBackend,
	store tilevault.ObjectStore,
	approver tilevault.Approver,
	logger tilevault.Logger,
) *DiffService {
	if backend == nil {
		panic("backend cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &DiffService{
		backend:  backend,
		store:    store,
		approver: approver,
		logger:   logger,
		tracker:  workingcopy.NewTracker(backend, logger),
	}
}

// Tracker exposes the per-table tracking state machine, mainly so a bulk
// caller can suspend capture triggers around its own writes.
func (s *DiffService) Tracker() *workingcopy.Tracker {
	return s.tracker
}

// Status returns the dirty-key set for the dataset: one entry per working-copy
// row known to differ from the committed baseline, deduplicated by
// (table, key). It never scans the table itself.
func (s *DiffService) Status(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) ([]tilevault.TrackingEntry, error) {
	entries, err := s.backend.TrackedEntries(ctx, sess, ds)
	if err != nil {
		return nil, fmt.Errorf("reading tracked entries for %s: %w", ds.TableName, err)
	}
	return entries, nil
}

// MetaDiff computes the meta diff between the committed dataset state and the
// working copy, and reports whether the backend can apply it in place.
// Backend-hidden keys and, where unsupported, CRS keys are removed before
// classification; a diff that empties out this way is a supported no-op.
func (s *DiffService) MetaDiff(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) (tilevault.MetaDiff, bool, error) {
	dsMeta, err := s.store.GetMeta(ctx, ds.Path)
	if err != nil {
		return nil, false, fmt.Errorf("reading committed metadata for %s: %w", ds.Path, err)
	}

	wcMeta, err := s.backend.MetaItems(ctx, sess, ds)
	if err != nil {
		return nil, false, fmt.Errorf("reading working-copy metadata for %s: %w", ds.TableName, err)
	}

	diff, supported := workingcopy.ClassifyMetaDiff(s.backend, dsMeta, wcMeta)
	return diff, supported, nil
}

// Checkout creates the dataset's working-copy table from scratch: table,
// backend-representable metadata, capture triggers, then the committed tile
// rows.
func (s *DiffService) Checkout(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	s.logger.Verbose("creating working-copy table %s", ds.TableName)

	if err := s.backend.CreateTable(ctx, sess, ds); err != nil {
		return fmt.Errorf("creating working-copy table %s: %w", ds.TableName, err)
	}
	if err := s.backend.WriteMeta(ctx, sess, ds); err != nil {
		return fmt.Errorf("writing working-copy metadata for %s: %w", ds.TableName, err)
	}
	if err := s.tracker.Track(ctx, sess, ds); err != nil {
		return err
	}
	if err := s.materialize(ctx, sess, ds); err != nil {
		return err
	}

	s.logger.Info("✓ Checked out '%s' as %s", ds.Path, ds.TableName)
	return nil
}

// materialize bulk-inserts the committed tile rows with capture triggers
// suspended: writing the baseline itself is not an edit and must leave the
// dirty-key set empty.
func (s *DiffService) materialize(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	tiles, err := s.committedTiles(ctx, ds)
	if err != nil {
		return err
	}
	if len(tiles) == 0 {
		return nil
	}

	s.logger.Verbose("materializing %d committed tile row(s) in %s", len(tiles), ds.TableName)
	return s.tracker.SuspendTriggers(ctx, sess, ds, func(ctx context.Context) error {
		if err := s.backend.InsertTiles(ctx, sess, ds, tiles); err != nil {
			return fmt.Errorf("materializing tile rows in %s: %w", ds.TableName, err)
		}
		return nil
	})
}

// committedTiles reads and parses every committed pointer record for the
// dataset.
func (s *DiffService) committedTiles(ctx context.Context, ds *tilevault.Dataset) ([]tilevault.TileInfo, error) {
	names, err := s.store.ListPointers(ctx, ds.Path)
	if err != nil {
		return nil, fmt.Errorf("listing pointer records for %s: %w", ds.Path, err)
	}

	tiles := make([]tilevault.TileInfo, 0, len(names))
	for _, name := range names {
		record, err := s.store.GetPointer(ctx, ds.Path, name)
		if err != nil {
			return nil, fmt.Errorf("reading pointer record %s: %w", name, err)
		}
		tile, err := pointer.Unmarshal(record)
		if err != nil {
			return nil, fmt.Errorf("pointer record %s: %w", name, err)
		}
		tiles = append(tiles, tile)
	}
	return tiles, nil
}

// Reconcile brings the working-copy table in line with a changed committed
// state. An empty diff is a no-op. A diff the backend supports in place is
// applied via WriteMeta. Anything else requires dropping and recreating the
// table and its triggers, which destroys uncommitted edits, so it runs only
// after approval.
func (s *DiffService) Reconcile(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	diff, supported, err := s.MetaDiff(ctx, sess, ds)
	if err != nil {
		return err
	}

	if diff.IsEmpty() {
		s.logger.Verbose("%s: metadata unchanged", ds.TableName)
		return nil
	}

	if supported {
		s.logger.Verbose("%s: applying metadata update in place (%d item(s))", ds.TableName, len(diff))
		if err := s.backend.WriteMeta(ctx, sess, ds); err != nil {
			return fmt.Errorf("applying metadata update to %s: %w", ds.TableName, err)
		}
		return nil
	}

	return s.rebuild(ctx, sess, ds)
}

// rebuild drops and recreates the working-copy table, its metadata and its
// capture triggers, then clears the now-stale dirty-key set.
func (s *DiffService) rebuild(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	s.logger.Verbose("%s: metadata update not supported in place, requesting rebuild approval", ds.TableName)

	approved, err := s.approver.RequestApproval(ctx, ds.TableName)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return tilevault.ErrApprovalDenied
	}

	// Drop through the backend directly rather than the tracker: the tracker
	// only knows about triggers it installed in this operation, while a
	// rebuild must remove whatever triggers a previous checkout left behind.
	if err := s.backend.DropTriggers(ctx, sess, ds); err != nil {
		return fmt.Errorf("dropping capture triggers on %s: %w", ds.TableName, err)
	}
	s.tracker.Reset(ds)
	if err := s.backend.DropTable(ctx, sess, ds); err != nil {
		return fmt.Errorf("dropping working-copy table %s: %w", ds.TableName, err)
	}
	if err := s.backend.CreateTable(ctx, sess, ds); err != nil {
		return fmt.Errorf("recreating working-copy table %s: %w", ds.TableName, err)
	}
	if err := s.backend.WriteMeta(ctx, sess, ds); err != nil {
		return fmt.Errorf("writing working-copy metadata for %s: %w", ds.TableName, err)
	}
	if err := s.tracker.Track(ctx, sess, ds); err != nil {
		return err
	}
	if err := s.materialize(ctx, sess, ds); err != nil {
		return err
	}
	if err := s.backend.ClearTracked(ctx, sess, ds); err != nil {
		return fmt.Errorf("clearing tracked entries for %s: %w", ds.TableName, err)
	}

	s.logger.Info("✓ Rebuilt working-copy table %s", ds.TableName)
	return nil
}
