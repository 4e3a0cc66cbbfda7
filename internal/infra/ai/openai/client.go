package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/incident-responder/internal/domain/ai"
)

// Client wraps the OpenAI API for chat completions and embeddings.
type Client struct {
	*openai.Client
	Model      string
	EmbedModel string
}

func NewClient(apiKey, model, embedModel string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	return &Client{Client: openai.NewClient(apiKey), Model: model, EmbedModel: embedModel}
}

// Embed returns the embedding vector for one piece of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.EmbedModel),
	})
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

// wrapUnavailable maps quota and server-side failures to ai.ErrUnavailable
// so callers can tell "backend down" apart from "bad request".
func wrapUnavailable(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %v", domai.ErrUnavailable, err)
		}
		return err
	}
	// Anything that is not an API-level error is a transport failure.
	return fmt.Errorf("%w: %v", domai.ErrUnavailable, err)
}
