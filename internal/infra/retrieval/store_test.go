package retrieval

import (
	"context"
	"strings"
	"testing"

	sqlitep "github.com/bryanwahyu/incident-responder/internal/infra/db/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitep.Connect(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestStoreSearchRanksByCosine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Insert(ctx, []Record{
		{ID: "a", TextChunk: "restart the database pod", Embedding: []float32{1, 0, 0}},
		{ID: "b", TextChunk: "increase memory limits", Embedding: []float32{0, 1, 0}},
		{ID: "c", TextChunk: "check readiness probes", Embedding: []float32{0.9, 0.1, 0}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("ranking = %s,%s; want a,c", got[0].ID, got[1].ID)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("scores not descending: %v >= %v expected", got[0].Score, got[1].Score)
	}
}

func TestStoreSearchZeroQuery(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Search(context.Background(), []float32{0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil for zero-norm query", got)
	}
}

func TestStoreCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("count = %d, %v; want 0", n, err)
	}
	if err := s.Insert(ctx, []Record{
		{ID: "a", TextChunk: "x", Embedding: []float32{1}},
		{ID: "b", TextChunk: "y", Embedding: []float32{1}},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	n, err = s.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v; want 2", n, err)
	}
}

func TestEncodeDecodeFloat32s(t *testing.T) {
	in := []float32{1.5, -2.25, 0, 3.14159}
	out, err := decodeFloat32s(encodeFloat32s(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}

	if _, err := decodeFloat32s([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for misaligned blob")
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  hello\n\n\tworld   again ")
	if got != "hello world again" {
		t.Errorf("got %q", got)
	}
}

func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := ChunkText(text, 40, 10)

	// Steps of size-overlap=30: chunks at 0, 30 and 60, the last one
	// reaching the end of the text.
	if len(chunks) != 3 {
		t.Fatalf("len = %d, want 3 (%v)", len(chunks), chunks)
	}
	// Consecutive chunks share the overlap region.
	tail := chunks[0][len(chunks[0])-10:]
	if !strings.HasPrefix(chunks[1], tail) {
		t.Errorf("chunk 1 does not start with chunk 0's tail")
	}
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("short", 500, 50)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("got %v", chunks)
	}
	if got := ChunkText("", 500, 50); got != nil {
		t.Errorf("empty input: got %v", got)
	}
}
