package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

func TestTableNameForDataset(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"auckland", "auckland"},
		{"surveys/auckland", "surveys_auckland"},
		{"/surveys/auckland/", "surveys_auckland"},
		{"a/b/c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := tableNameForDataset(tt.path); got != tt.want {
			t.Errorf("tableNameForDataset(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestBuildDiffConfig_GPKGFromFlags(t *testing.T) {
	flags := &workingCopyFlagValues{
		repo:     t.TempDir(),
		backend:  "gpkg",
		gpkgPath: "./wc.gpkg",
	}

	cfg, _, err := buildDiffConfig(flags, "auckland", "status", false)
	if err != nil {
		t.Fatalf("buildDiffConfig failed: %v", err)
	}
	if cfg.Backend != tilevault.BackendGPKG {
		t.Errorf("backend = %q, want gpkg", cfg.Backend)
	}
	if cfg.WorkingCopyPath != "./wc.gpkg" {
		t.Errorf("working copy path = %q", cfg.WorkingCopyPath)
	}
	if cfg.ConnectionString != "" {
		t.Errorf("GPKG config should not carry a connection string, got %q", cfg.ConnectionString)
	}
}

func TestBuildDiffConfig_GPKGPathRequired(t *testing.T) {
	flags := &workingCopyFlagValues{
		repo:    t.TempDir(),
		backend: "gpkg",
	}

	_, _, err := buildDiffConfig(flags, "auckland", "status", false)
	if err == nil {
		t.Fatal("expected error when no GPKG path is available")
	}
	if !errors.Is(err, tilevault.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildDiffConfig_GPKGPathFromProjectConfig(t *testing.T) {
	repo := t.TempDir()
	yaml := "working_copy:\n  backend: gpkg\n  path: ./auckland.gpkg\n"
	if err := os.WriteFile(filepath.Join(repo, "tilevault.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	flags := &workingCopyFlagValues{repo: repo}

	cfg, projectCfg, err := buildDiffConfig(flags, "auckland", "status", false)
	if err != nil {
		t.Fatalf("buildDiffConfig failed: %v", err)
	}
	if projectCfg == nil {
		t.Fatal("expected project config to load")
	}
	if cfg.Backend != tilevault.BackendGPKG {
		t.Errorf("backend = %q, want gpkg from tilevault.yaml", cfg.Backend)
	}
	if cfg.WorkingCopyPath != "./auckland.gpkg" {
		t.Errorf("working copy path = %q", cfg.WorkingCopyPath)
	}
}

func TestBuildDiffConfig_FlagOverridesProjectConfig(t *testing.T) {
	repo := t.TempDir()
	yaml := "working_copy:\n  backend: postgres\n"
	if err := os.WriteFile(filepath.Join(repo, "tilevault.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	flags := &workingCopyFlagValues{
		repo:     repo,
		backend:  "gpkg",
		gpkgPath: "./wc.gpkg",
	}

	cfg, _, err := buildDiffConfig(flags, "auckland", "status", false)
	if err != nil {
		t.Fatalf("buildDiffConfig failed: %v", err)
	}
	if cfg.Backend != tilevault.BackendGPKG {
		t.Errorf("--backend flag must override tilevault.yaml, got %q", cfg.Backend)
	}
}

func TestBuildDiffConfig_MySQLRequiresConnectionString(t *testing.T) {
	t.Setenv("TILEVAULT_CONNECTION_STRING", "")
	t.Setenv("DATABASE_URL", "")

	flags := &workingCopyFlagValues{
		repo:    t.TempDir(),
		backend: "mysql",
	}

	_, _, err := buildDiffConfig(flags, "auckland", "status", false)
	if err == nil {
		t.Fatal("expected error when MySQL has no connection string")
	}
	if !errors.Is(err, tilevault.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildDiffConfig_MySQLConnectionStringVerbatim(t *testing.T) {
	dsn := "user:pass@tcp(db.example.com:3306)/wc"
	flags := &workingCopyFlagValues{
		repo:       t.TempDir(),
		backend:    "mysql",
		connection: dsn,
	}

	cfg, _, err := buildDiffConfig(flags, "auckland", "status", false)
	if err != nil {
		t.Fatalf("buildDiffConfig failed: %v", err)
	}
	if cfg.ConnectionString != dsn {
		t.Errorf("MySQL DSN must pass through verbatim, got %q", cfg.ConnectionString)
	}
}

func TestBuildDiffConfig_UnknownBackend(t *testing.T) {
	flags := &workingCopyFlagValues{
		repo:    t.TempDir(),
		backend: "oracle",
	}

	_, _, err := buildDiffConfig(flags, "auckland", "status", false)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "oracle") {
		t.Errorf("error should name the backend, got: %v", err)
	}
}
