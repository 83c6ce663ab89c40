package backend

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"finquest/internal/config"
	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources/file"
	"finquest/internal/sources/plaid"
	"finquest/internal/storage"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("memory").IsValid() {
		t.Errorf("memory should not be valid")
	}
	if got := GetBackendTypeStrings(); !reflect.DeepEqual(got, []string{"file", "sqlite", "sheets"}) {
		t.Errorf("unexpected type strings %v", got)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	app := &config.Config{
		DataBackend:          "sqlite",
		DataDir:              "/tmp/fq",
		SQLiteDBPath:         "/tmp/fq/db.sqlite",
		PlaidClientID:        "id",
		PlaidSecret:          "secret",
		PlaidEnv:             "sandbox",
		PlaidLookbackDays:    14,
		TransactionsCacheTTL: time.Minute,
		GoogleSpreadsheetID:  "sheet",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != app.SQLiteDBPath || cfg.DataDirectory != "/tmp/fq" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Plaid.Configured() || cfg.Plaid.LookbackDays != 14 || cfg.CacheTTL != time.Minute {
		t.Fatalf("unexpected plaid config %+v", cfg.Plaid)
	}
	if cfg.Sheets.SpreadsheetID != "sheet" {
		t.Fatalf("unexpected sheets config %+v", cfg.Sheets)
	}

	app.DataBackend = "memory"
	if _, err := FromAppConfig(app); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "file", config: Config{Type: FileBackend, DataDirectory: "data"}},
		{name: "no data dir", config: Config{Type: FileBackend}, wantErr: "data directory"},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend, DataDirectory: "data"}, wantErr: "SQLite database path"},
		{name: "sheets without id", config: Config{Type: SheetsBackend, DataDirectory: "data"}, wantErr: "Spreadsheet ID"},
		{name: "bad type", config: Config{Type: "x", DataDirectory: "data"}, wantErr: "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateBackend_File(t *testing.T) {
	dir := t.TempDir()
	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: FileBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Close()

	if _, ok := res.Backend.(*file.Store); !ok {
		t.Fatalf("expected file store, got %T", res.Backend)
	}
	if res.Backend.Kind() != core.SourceFile {
		t.Fatalf("unexpected kind %s", res.Backend.Kind())
	}
	if res.Plaid != nil || res.LiveSource != nil {
		t.Fatalf("live source should be disabled without credentials")
	}
}

func TestCreateBackend_SQLiteWithPlaid(t *testing.T) {
	dir := t.TempDir()
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:          SQLiteBackend,
		DataDirectory: dir,
		SQLiteDBPath:  filepath.Join(dir, "finquest.db"),
		Plaid:         plaid.Config{ClientID: "id", Secret: "secret"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Close()

	if _, ok := res.Backend.(*storage.SQLiteRepository); !ok {
		t.Fatalf("expected sqlite repository, got %T", res.Backend)
	}
	if any(res.Tokens) != any(res.Backend) {
		t.Fatalf("sqlite backend should store the access token itself")
	}
	if res.Plaid == nil || res.LiveSource == nil {
		t.Fatalf("expected live source")
	}
	if res.LiveSource.Kind() != core.SourcePlaid {
		t.Fatalf("unexpected live kind %s", res.LiveSource.Kind())
	}
	if _, ok := res.LiveSource.(*file.CachedSource); !ok {
		t.Fatalf("live source should be cached, got %T", res.LiveSource)
	}
}

func TestBackendResult_CloseNil(t *testing.T) {
	var r *BackendResult
	if err := r.Close(); err != nil {
		t.Fatalf("nil result close: %v", err)
	}
}
