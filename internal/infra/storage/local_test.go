package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bryanwahyu/incident-responder/internal/domain/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLocalFetchPerIncidentDir(t *testing.T) {
	root := t.TempDir()
	writeLog(t, filepath.Join(root, "INC001", "INC001.log"), "connection refused")

	src := NewLocalSource(root)
	got, err := src.Fetch(context.Background(), "INC001", "db")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != "connection refused" {
		t.Errorf("got %q", got)
	}
}

func TestLocalFetchFlatFallback(t *testing.T) {
	root := t.TempDir()
	writeLog(t, filepath.Join(root, "INC002.log"), "OOMKilled")

	src := NewLocalSource(root)
	got, err := src.Fetch(context.Background(), "INC002", "infra")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != "OOMKilled" {
		t.Errorf("got %q", got)
	}
}

func TestLocalFetchGroupFallback(t *testing.T) {
	root := t.TempDir()
	writeLog(t, filepath.Join(root, "db", "INC003.log"), "db log")

	src := NewLocalSource(root)
	got, err := src.Fetch(context.Background(), "INC003", "db")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != "db log" {
		t.Errorf("got %q", got)
	}
}

func TestLocalFetchPreferIncidentDir(t *testing.T) {
	root := t.TempDir()
	writeLog(t, filepath.Join(root, "INC004", "INC004.log"), "primary")
	writeLog(t, filepath.Join(root, "INC004.log"), "fallback")

	src := NewLocalSource(root)
	got, err := src.Fetch(context.Background(), "INC004", "web")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != "primary" {
		t.Errorf("got %q, want the per-incident file", got)
	}
}

func TestLocalFetchNotFound(t *testing.T) {
	root := t.TempDir()
	src := NewLocalSource(root)

	_, err := src.Fetch(context.Background(), "INC404", "web")
	var nf *logs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if nf.IncidentID != "INC404" {
		t.Errorf("incident id = %q", nf.IncidentID)
	}
	if len(nf.Attempted) != 3 {
		t.Errorf("attempted = %v, want 3 locations", nf.Attempted)
	}
}

func TestLocalFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewLocalSource(t.TempDir())
	if _, err := src.Fetch(ctx, "INC001", "web"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
