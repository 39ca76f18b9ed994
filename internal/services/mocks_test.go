package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

type mockApprover struct {
	approved bool
	err      error
	requests []string
}

func (m *mockApprover) RequestApproval(_ context.Context, tableName string) (bool, error) {
	m.requests = append(m.requests, tableName)
	return m.approved, m.err
}

type mockLogger struct{}

func (mockLogger) Verbose(string, ...interface{}) {}
func (mockLogger) Info(string, ...interface{})    {}
func (mockLogger) Error(string, ...interface{})   {}

// mockExtractor serves canned metadata per tile path.
type mockExtractor struct {
	mu    sync.Mutex
	tiles map[string]*tilevault.TileMetadata
	errs  map[string]error
	calls []string
}

func (m *mockExtractor) Extract(_ context.Context, tilePath string) (*tilevault.TileMetadata, error) {
	m.mu.Lock()
	m.calls = append(m.calls, tilePath)
	m.mu.Unlock()

	if err := m.errs[tilePath]; err != nil {
		return nil, err
	}
	meta := m.tiles[tilePath]
	// Copy so the merge fold cannot alias test fixtures.
	clone := *meta
	return &clone, nil
}

// mockStore is an in-memory ObjectStore.
type mockStore struct {
	mu       sync.Mutex
	meta     map[string]map[string]string
	pointers map[string]map[string][]byte

	putMetaErr    error
	putPointerErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		meta:     map[string]map[string]string{},
		pointers: map[string]map[string][]byte{},
	}
}

func (m *mockStore) PutMeta(_ context.Context, datasetPath string, meta map[string]string) error {
	if m.putMetaErr != nil {
		return m.putMetaErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make(map[string]string, len(meta))
	for k, v := range meta {
		stored[k] = v
	}
	m.meta[datasetPath] = stored
	return nil
}

func (m *mockStore) GetMeta(_ context.Context, datasetPath string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.meta[datasetPath]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) PutPointer(_ context.Context, datasetPath, tileName string, record []byte) error {
	if m.putPointerErr != nil {
		return m.putPointerErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pointers[datasetPath] == nil {
		m.pointers[datasetPath] = map[string][]byte{}
	}
	m.pointers[datasetPath][tileName] = record
	return nil
}

func (m *mockStore) GetPointer(_ context.Context, datasetPath, tileName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pointers[datasetPath][tileName], nil
}

func (m *mockStore) ListPointers(_ context.Context, datasetPath string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name := range m.pointers[datasetPath] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// mockSession records every executed statement.
type mockSession struct {
	execs   []string
	queries []string
	execErr map[string]error
	rows    map[string][]tilevault.Row
}

func newMockSession() *mockSession {
	return &mockSession{
		execErr: map[string]error{},
		rows:    map[string][]tilevault.Row{},
	}
}

func (m *mockSession) Exec(_ context.Context, sql string, _ ...interface{}) error {
	m.execs = append(m.execs, sql)
	for prefix, err := range m.execErr {
		if strings.HasPrefix(sql, prefix) {
			return err
		}
	}
	return nil
}

func (m *mockSession) Query(_ context.Context, sql string, _ ...interface{}) ([]tilevault.Row, error) {
	m.queries = append(m.queries, sql)
	for prefix, rows := range m.rows {
		if strings.HasPrefix(sql, prefix) {
			return rows, nil
		}
	}
	return nil, nil
}

// mockBackend is a scriptable WorkingCopyBackend.
type mockBackend struct {
	kind tilevault.BackendKind

	createTableErr    error
	dropTableErr      error
	insertTilesErr    error
	writeMetaErr      error
	createTriggersErr error
	dropTriggersErr   error
	clearTrackedErr   error

	inserted []tilevault.TileInfo

	tracked    []tilevault.TrackingEntry
	trackedErr error

	metaItems    map[string]string
	metaItemsErr error

	hidden          []string
	supportsCRSDiff bool
	updateSupported bool

	calls []string
}

func (m *mockBackend) record(name string) { m.calls = append(m.calls, name) }

func (m *mockBackend) Kind() tilevault.BackendKind {
	if m.kind == "" {
		return tilevault.BackendPostgres
	}
	return m.kind
}

func (m *mockBackend) CreateTable(_ context.Context, _ tilevault.Session, _ *tilevault.Dataset) error {
	m.record("CreateTable")
	return m.createTableErr
}

func (m *mockBackend) DropTable(_ context.Context, _ tilevault.Session, _ *tilevault.Dataset) error {
	m.record("DropTable")
	return m.dropTableErr
}

func (m *mockBackend) InsertTiles(_ context.Context, _ tilevault.Session, _ *tilevault.Dataset, tiles []tilevault.TileInfo) error {
	m.record("InsertTiles")
	if m.insertTilesErr != nil {
		return m.insertTilesErr
	}
	m.inserted = append(m.inserted, tiles...)
	return nil
}

func (m *mockBackend) WriteMeta(_ context.Context, _ tilevault.Session, _ *tilevault.Dataset) error {
	m.record("WriteMeta")
	return m.writeMetaErr
}

func (m *mockBackend) CreateTriggers(_ context.Context, _ tilevault.Session, _ *tilevault.Dataset) error {
	m.record("CreateTriggers")
	return m.createTriggersErr
}

func (m *mockBackend) DropTriggers(_ context.Context, _ tilevault.Session, _ *tilevault.Dataset) error {
	m.record("DropTriggers")
	return m.dropTriggersErr
}

func (m *mockBackend) TrackedEntries(_ context.Context, _ tilevault.Session, _ *tilevault.Dataset) ([]tilevault.TrackingEntry, error) {
	m.record("TrackedEntries")
	return m.tracked, m.trackedErr
}

func (m *mockBackend) ClearTracked(_ context.Context, _ tilevault.Session, _ *tilevault.Dataset) error {
	m.record("ClearTracked")
	return m.clearTrackedErr
}

func (m *mockBackend) MetaItems(_ context.Context, _ tilevault.Session, _ *tilevault.Dataset) (map[string]string, error) {
	m.record("MetaItems")
	return m.metaItems, m.metaItemsErr
}

func (m *mockBackend) HiddenMetaItems() []string { return m.hidden }

func (m *mockBackend) SupportsCRSDiff() bool { return m.supportsCRSDiff }

func (m *mockBackend) IsMetaUpdateSupported(diff tilevault.MetaDiff) bool {
	return diff.IsEmpty() || m.updateSupported
}

func (m *mockBackend) TryAlignColumn(_, _ *tilevault.SchemaColumn) bool { return false }

var (
	_ tilevault.WorkingCopyBackend = (*mockBackend)(nil)
	_ tilevault.ObjectStore        = (*mockStore)(nil)
	_ tilevault.Session            = (*mockSession)(nil)
	_ tilevault.TileExtractor      = (*mockExtractor)(nil)
	_ tilevault.Approver           = (*mockApprover)(nil)
	_ tilevault.Logger             = mockLogger{}
)
