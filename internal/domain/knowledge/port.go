package knowledge

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the retrieval backend (embedding API or vector
// store) is unreachable or erroring.
var ErrUnavailable = errors.New("knowledge base unavailable")

// Document is one retrieved knowledge-base passage.
type Document struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// Retriever port: embed the query text and return the top-K semantically
// relevant passages.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Document, error)
}
