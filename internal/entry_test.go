package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/roadmap/internal/models"
	"github.com/starford/roadmap/internal/storage"
)

func TestOpenProvider_Backends(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		cfg  StateConfig
		want string
	}{
		{StateConfig{Backend: BackendMemory}, "*storage.Memory"},
		{StateConfig{Backend: BackendFile, Path: filepath.Join(dir, "state")}, "*storage.FS"},
		{StateConfig{Backend: BackendSQLite, Path: filepath.Join(dir, "state.db")}, "*storage.SQLite"},
	}
	for _, c := range cases {
		p, cleanup, err := openProvider(c.cfg)
		if err != nil {
			t.Fatalf("%s: %v", c.cfg.Backend, err)
		}
		var got string
		switch p.(type) {
		case *storage.Memory:
			got = "*storage.Memory"
		case *storage.FS:
			got = "*storage.FS"
		case *storage.SQLite:
			got = "*storage.SQLite"
		}
		if got != c.want {
			t.Errorf("%s backend = %s, want %s", c.cfg.Backend, got, c.want)
		}
		cleanup()
	}
}

func TestOpenStore_PersistsAcrossOpens(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.State.Path = t.TempDir()
	logger, _ := newLogger(cfg, &bytes.Buffer{})

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	nodes := store.Nodes()
	if len(nodes) == 0 {
		t.Fatal("embedded baseline produced no nodes")
	}
	store.SetStatus(nodes[0].ID, models.StatusCompleted)
	cleanup()

	reopened, cleanup, err := openStore(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	n, ok := reopened.Node(nodes[0].ID)
	if !ok || n.Status != models.StatusCompleted {
		t.Errorf("reopened node = %+v, %v", n, ok)
	}
}

func TestOpenStore_BadBaseline(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.State.Backend = BackendMemory
	cfg.Baseline.Path = filepath.Join(t.TempDir(), "roadmap.toml")
	if err := os.WriteFile(cfg.Baseline.Path, []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := openStore(cfg, nil); err == nil {
		t.Fatal("unsupported baseline format should fail")
	}
}

func TestNewLogger_File(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFile = filepath.Join(t.TempDir(), "roadmap.log")
	var fallback bytes.Buffer

	logger, closer := newLogger(cfg, &fallback)
	if closer == nil {
		t.Fatal("file logger should be closable")
	}
	logger.Info("hello")
	closer.Close()

	data, err := os.ReadFile(cfg.App.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file = %q", data)
	}
	if fallback.Len() != 0 {
		t.Error("fallback writer used although a log file is configured")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(t.Context()); err == nil {
		t.Error("Run without config should fail")
	}
	if err := RunMCP(t.Context()); err == nil {
		t.Error("RunMCP without config should fail")
	}
}
