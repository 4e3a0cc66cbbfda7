package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	openaip "github.com/bryanwahyu/incident-responder/internal/infra/ai/openai"
	sqlitep "github.com/bryanwahyu/incident-responder/internal/infra/db/sqlite"
	"github.com/bryanwahyu/incident-responder/internal/infra/retrieval"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <document>",
		Short: "Index a knowledge-base document (PDF or plain text)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}
			if cfg.AI.APIKey == "" {
				return fmt.Errorf("indexing needs ai.apiKey (or OPENAI_API_KEY)")
			}

			// Vectors go to the dedicated KB SQLite file, never the ledger.
			ctx := context.Background()
			db, err := sqlitep.Connect(ctx, cfg.Retrieval.Path)
			if err != nil {
				return fmt.Errorf("kb store: %w", err)
			}
			defer db.Close()

			client := openaip.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.EmbeddingModel)
			ix := &retrieval.Indexer{
				Embedder: client,
				Store:    retrieval.NewStore(db),
			}
			n, err := ix.BuildIndex(ctx, args[0])
			if err != nil {
				return err
			}
			log.Printf("indexed %s: %d chunks", args[0], n)
			return nil
		},
	}
}
