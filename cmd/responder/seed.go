package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/incident-responder/internal/application"
	appincidents "github.com/bryanwahyu/incident-responder/internal/application/incidents"
	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
)

// sample incidents matching the bundled sample logs under logs/.
var samples = []appincidents.IngestCommand{
	{
		ID:          "INC001",
		Service:     "checkout",
		Environment: "prod",
		Severity:    "high",
		Payload: map[string]any{
			"alert_type": "db_connection",
			"summary":    "Checkout failing with database connection errors",
		},
	},
	{
		ID:          "INC002",
		Service:     "media-worker",
		Environment: "prod",
		Severity:    "critical",
		Payload: map[string]any{
			"alert_type": "oom_infra",
			"summary":    "Worker pods OOMKilled under load",
		},
	},
	{
		ID:          "INC003",
		Service:     "api-gateway",
		Environment: "staging",
		Severity:    "medium",
		Payload: map[string]any{
			"alert_type": "http_errors",
			"summary":    "Spike in HTTP 500 responses after deploy",
		},
	},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample incidents for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}

			ctx := context.Background()
			db, ledger, err := openLedger(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := &appincidents.Service{Ledger: ledger, Clock: application.SystemClock{}}
			for _, sample := range samples {
				if _, err := svc.Ingest(ctx, sample); err != nil {
					if errors.Is(err, domain.ErrDuplicate) {
						log.Printf("seed: %s already exists, skipping", sample.ID)
						continue
					}
					return fmt.Errorf("seed %s: %w", sample.ID, err)
				}
				log.Printf("seed: created %s (%s)", sample.ID, sample.Service)
			}
			return nil
		},
	}
}
