package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bryanwahyu/incident-responder/internal/config"
	openaip "github.com/bryanwahyu/incident-responder/internal/infra/ai/openai"
	sqlitep "github.com/bryanwahyu/incident-responder/internal/infra/db/sqlite"
	"github.com/bryanwahyu/incident-responder/internal/infra/retrieval"
	"github.com/bryanwahyu/incident-responder/internal/infra/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.AI.APIKey = "test-key"
	cfg.Retrieval.Path = filepath.Join(t.TempDir(), "kb.db")
	return cfg
}

// The knowledge-base vectors get their own SQLite file no matter which
// driver backs the incident ledger.
func TestBuildInvestigatorKBStoreIndependentOfLedgerDriver(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Database.Driver = "postgres"

	db, err := sqlitep.Connect(ctx, ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	_, kbDB, err := buildInvestigator(ctx, cfg, sqlitep.NewLedger(db), storage.NewLocalSource(t.TempDir()))
	if err != nil {
		t.Fatalf("build investigator: %v", err)
	}
	if kbDB == nil {
		t.Fatal("kb store handle is nil, want a dedicated SQLite file")
	}
	defer kbDB.Close()

	n, err := retrieval.NewStore(kbDB).Count(ctx)
	if err != nil {
		t.Fatalf("count on kb store: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want an empty store", n)
	}
}

func TestBuildInvestigatorAgentMode(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Analyst.Mode = "agent"

	db, err := sqlitep.Connect(ctx, ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	inv, kbDB, err := buildInvestigator(ctx, cfg, sqlitep.NewLedger(db), storage.NewLocalSource(t.TempDir()))
	if err != nil {
		t.Fatalf("build investigator: %v", err)
	}
	defer kbDB.Close()

	agent, ok := inv.(*openaip.Agent)
	if !ok {
		t.Fatalf("investigator = %T, want the tool-calling agent", inv)
	}
	if agent.PhaseTimeout != cfg.PhaseTimeout() {
		t.Errorf("agent phase timeout = %v, want %v", agent.PhaseTimeout, cfg.PhaseTimeout())
	}
}

func TestBuildInvestigatorAgentNeedsAPIKey(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.AI.APIKey = ""
	cfg.Analyst.Mode = "agent"

	db, err := sqlitep.Connect(ctx, ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if _, _, err := buildInvestigator(ctx, cfg, sqlitep.NewLedger(db), storage.NewLocalSource(t.TempDir())); err == nil {
		t.Fatal("agent mode without an API key should refuse to start")
	}
}
