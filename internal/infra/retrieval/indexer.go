package retrieval

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50
)

// Indexer builds the knowledge-base index: load a document, clean it, split
// it into overlapping chunks, embed each chunk and store the vectors.
type Indexer struct {
	Embedder Embedder
	Store    *Store
}

// BuildIndex indexes one document (PDF or plain text) and returns the
// number of chunks stored.
func (ix *Indexer) BuildIndex(ctx context.Context, path string) (int, error) {
	text, err := LoadDocument(path)
	if err != nil {
		return 0, err
	}
	chunks := ChunkText(CleanText(text), defaultChunkSize, defaultChunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %s produced no chunks", path)
	}

	records := make([]Record, 0, len(chunks))
	for _, chunk := range chunks {
		emb, err := ix.Embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("embedding chunk: %w", err)
		}
		records = append(records, Record{
			ID:        uuid.New().String(),
			TextChunk: chunk,
			Embedding: emb,
		})
	}
	if err := ix.Store.Insert(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// LoadDocument reads a PDF or plain-text file and returns its text.
func LoadDocument(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return loadPDF(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func loadPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	r, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// ChunkText splits text into chunks of at most size characters with the
// given overlap between consecutive chunks.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
	}
	var chunks []string
	for start := 0; start < len(text); start += size - overlap {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(text) {
			break
		}
	}
	return chunks
}
