package retrieval

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/incident-responder/internal/domain/knowledge"
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever implements knowledge.Retriever on top of an Embedder and the
// local vector store.
type Retriever struct {
	Embedder Embedder
	Store    *Store
}

func NewRetriever(embedder Embedder, store *Store) *Retriever {
	return &Retriever{Embedder: embedder, Store: store}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]knowledge.Document, error) {
	vector, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", knowledge.ErrUnavailable, err)
	}
	scored, err := r.Store.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: searching vectors: %v", knowledge.ErrUnavailable, err)
	}
	docs := make([]knowledge.Document, 0, len(scored))
	for _, s := range scored {
		docs = append(docs, knowledge.Document{Text: s.TextChunk, Score: s.Score})
	}
	return docs, nil
}
