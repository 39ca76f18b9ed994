package workingcopy

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// TrackingState is the change-capture state of one working-copy table.
type TrackingState int

const (
	// Untracked: no capture triggers installed; edits are invisible.
	Untracked TrackingState = iota

	// Tracked: capture triggers record every row insert/update/delete.
	Tracked

	// Suspended: triggers temporarily dropped for a bulk operation.
	Suspended
)

// String returns the state name for logging.
func (s TrackingState) String() string {
	switch s {
	case Untracked:
		return "untracked"
	case Tracked:
		return "tracked"
	case Suspended:
		return "suspended"
	default:
		return fmt.Sprintf("TrackingState(%d)", int(s))
	}
}

// Tracker drives the per-table tracking state machine over a backend.
// Not safe for concurrent use; one logical operation owns a Tracker at a
// time, matching the one-session-per-operation model.
type Tracker struct {
	backend tilevault.WorkingCopyBackend
	states  map[string]TrackingState
	logger  tilevault.Logger
}

// NewTracker creates a Tracker for the given backend.
func NewTracker(backend tilevault.WorkingCopyBackend, logger tilevault.Logger) *Tracker {
	return &Tracker{
		backend: backend,
		states:  map[string]TrackingState{},
		logger:  logger,
	}
}

// State returns the tracking state of the dataset's table.
func (t *Tracker) State(ds *tilevault.Dataset) TrackingState {
	return t.states[ds.TableName]
}

// Track installs capture triggers on the dataset's table
// (Untracked -> Tracked). Idempotent for a table already tracked.
func (t *Tracker) Track(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	if t.states[ds.TableName] == Tracked {
		return nil
	}
	if err := t.backend.CreateTriggers(ctx, sess, ds); err != nil {
		return fmt.Errorf("installing capture triggers on %s: %w", ds.TableName, err)
	}
	t.states[ds.TableName] = Tracked
	t.logger.Verbose("capture triggers installed on %s", ds.TableName)
	return nil
}

// Untrack removes capture triggers (Tracked -> Untracked). Used when the
// dataset is deleted from the working copy.
func (t *Tracker) Untrack(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	if t.states[ds.TableName] == Untracked {
		return nil
	}
	if err := t.backend.DropTriggers(ctx, sess, ds); err != nil {
		return fmt.Errorf("dropping capture triggers on %s: %w", ds.TableName, err)
	}
	t.states[ds.TableName] = Untracked
	return nil
}

// Reset marks the dataset untracked without touching the database. Used
// after triggers were dropped outside the tracker's control, so the next
// Track reinstalls them.
func (t *Tracker) Reset(ds *tilevault.Dataset) {
	t.states[ds.TableName] = Untracked
}

// SuspendTriggers drops the dataset's capture triggers, runs fn, then
// reinstalls the triggers on every exit path: normal return, fn error, or
// panic. Bulk writes inside fn incur no per-row capture overhead.
//
// A failed reinstall is escalated as ErrTriggersLost rather than swallowed:
// a table left without capture triggers silently loses all future change
// detection, which is worse than failing the operation.
func (t *Tracker) SuspendTriggers(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset, fn func(ctx context.Context) error) (err error) {
	if state := t.states[ds.TableName]; state != Tracked {
		return fmt.Errorf("cannot suspend triggers on %s: table is %s", ds.TableName, state)
	}

	if err := t.backend.DropTriggers(ctx, sess, ds); err != nil {
		return fmt.Errorf("suspending capture triggers on %s: %w", ds.TableName, err)
	}
	t.states[ds.TableName] = Suspended

	defer func() {
		restoreErr := t.backend.CreateTriggers(ctx, sess, ds)
		if restoreErr != nil {
			t.states[ds.TableName] = Untracked
			restoreErr = fmt.Errorf("%w on %s: %v", tilevault.ErrTriggersLost, ds.TableName, restoreErr)
			err = errors.Join(err, restoreErr)
			return
		}
		t.states[ds.TableName] = Tracked
	}()

	return fn(ctx)
}
