//go:build conntest || azure

package conntest

import (
	"context"
	"fmt"
	"testing"

	"github.com/vvka-141/tilevault/internal/logging"
	"github.com/vvka-141/tilevault/internal/objectstore"
	"github.com/vvka-141/tilevault/internal/services"
	"github.com/vvka-141/tilevault/internal/ui"
	"github.com/vvka-141/tilevault/internal/workingcopy"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// checkoutRoundTrip exercises the full working-copy path against a live
// server: checkout the dataset, edit the table, and verify the capture
// triggers recorded the dirty key.
func checkoutRoundTrip(t *testing.T, connStr string, auth tilevault.AuthMethod) {
	t.Helper()
	ctx := context.Background()

	store, err := objectstore.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	const datasetPath = "conntest"
	meta := map[string]string{
		tilevault.MetaItemTitle:  "Connection test dataset",
		tilevault.MetaItemSchema: `[{"name":"fid","dataType":"text","primaryKeyIndex":0}]`,
	}
	if err := store.PutMeta(ctx, datasetPath, meta); err != nil {
		t.Fatalf("put meta: %v", err)
	}

	ds := &tilevault.Dataset{
		Path:       datasetPath,
		TableName:  datasetPath,
		PrimaryKey: "fid",
		Meta:       meta,
	}

	diffConfig := tilevault.DiffConfig{
		DatasetPath:      datasetPath,
		ConnectionString: connStr,
		Backend:          tilevault.BackendPostgres,
		Force:            true,
		AuthMethod:       auth,
	}

	sess, cleanup, err := services.OpenSession(ctx, &diffConfig)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(cleanup)

	t.Cleanup(func() {
		_ = sess.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS public.%q;`, ds.TableName))
		_ = sess.Exec(ctx, fmt.Sprintf(`DELETE FROM public.%q WHERE table_name = $1;`,
			tilevault.TrackingTableName), ds.TableName)
	})

	backend, err := workingcopy.New(tilevault.BackendPostgres)
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}

	svc := services.NewDiffService(backend, store, ui.NewForcedApprover(false), logging.NewNullLogger())

	if err := svc.Checkout(ctx, sess, ds); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	entries, err := svc.Status(ctx, sess, ds)
	if err != nil {
		t.Fatalf("status after checkout: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("fresh working copy should be clean, got %d entries", len(entries))
	}

	insertSQL := fmt.Sprintf(`INSERT INTO public.%q (fid, point_count) VALUES ($1, $2);`, ds.TableName)
	if err := sess.Exec(ctx, insertSQL, "auckland_1", int64(42)); err != nil {
		t.Fatalf("insert row: %v", err)
	}

	entries, err = svc.Status(ctx, sess, ds)
	if err != nil {
		t.Fatalf("status after edit: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "auckland_1" {
		t.Fatalf("expected the inserted key to be tracked, got %+v", entries)
	}
}
