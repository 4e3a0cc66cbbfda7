package incidents

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
	sqlitep "github.com/bryanwahyu/incident-responder/internal/infra/db/sqlite"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newService(t *testing.T) (*Service, domain.Ledger) {
	t.Helper()
	db, err := sqlitep.Connect(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ledger := sqlitep.NewLedger(db)
	clock := fixedClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return &Service{Ledger: ledger, Clock: clock}, ledger
}

func TestIngestCreatesOpenIncident(t *testing.T) {
	svc, _ := newService(t)

	inc, err := svc.Ingest(context.Background(), IngestCommand{
		ID:          "INC001",
		Service:     "checkout",
		Environment: "prod",
		Severity:    "high",
		Payload:     map[string]any{"alert_type": "db_connection"},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if inc.Status != domain.StatusOpen {
		t.Errorf("status = %s, want OPEN", inc.Status)
	}
	if !inc.CreatedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %s, want the clock's time", inc.CreatedAt)
	}
}

func TestIngestGeneratedID(t *testing.T) {
	svc, _ := newService(t)
	inc, err := svc.Ingest(context.Background(), IngestCommand{Service: "svc"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if inc.ID == "" {
		t.Error("expected a generated id")
	}
}

func TestIngestDuplicate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, IngestCommand{ID: "INC001", Service: "a"}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	_, err := svc.Ingest(ctx, IngestCommand{ID: "INC001", Service: "b"})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestStepsMissingIncident(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Steps(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.LatestReport(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("report err = %v, want ErrNotFound", err)
	}
}

func TestReopenFailedIncident(t *testing.T) {
	svc, ledger := newService(t)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, IngestCommand{ID: "INC001", Service: "a"}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if ok, _ := ledger.Claim(ctx, "INC001"); !ok {
		t.Fatal("claim lost")
	}
	if err := ledger.SetStatus(ctx, "INC001", domain.StatusFailed); err != nil {
		t.Fatalf("fail: %v", err)
	}

	inc, err := svc.Reopen(ctx, "INC001")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if inc.Status != domain.StatusOpen {
		t.Errorf("status = %s, want OPEN", inc.Status)
	}
}
