package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/incident-responder/internal/application"
	appincidents "github.com/bryanwahyu/incident-responder/internal/application/incidents"
	"github.com/bryanwahyu/incident-responder/internal/application/pipeline"
	"github.com/bryanwahyu/incident-responder/internal/config"
	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
	"github.com/bryanwahyu/incident-responder/internal/domain/knowledge"
	"github.com/bryanwahyu/incident-responder/internal/domain/logs"
	openaip "github.com/bryanwahyu/incident-responder/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/incident-responder/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/incident-responder/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/incident-responder/internal/infra/db/sqlite"
	"github.com/bryanwahyu/incident-responder/internal/infra/httpserver"
	"github.com/bryanwahyu/incident-responder/internal/infra/retrieval"
	"github.com/bryanwahyu/incident-responder/internal/infra/storage"
	"github.com/bryanwahyu/incident-responder/internal/middleware"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and the investigation poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, ledger, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := openLogSource(ctx, cfg)
	if err != nil {
		return err
	}

	investigator, kbDB, err := buildInvestigator(ctx, cfg, ledger, source)
	if err != nil {
		return err
	}
	if kbDB != nil {
		defer kbDB.Close()
	}

	runner := &pipeline.Runner{
		Ledger:       ledger,
		Investigator: investigator,
		Concurrency:  cfg.Pipeline.Concurrency,
	}
	go scheduler(cfg).Run(ctx, runner)

	svc := &appincidents.Service{Ledger: ledger, Clock: application.SystemClock{}}
	handler := httpserver.NewRouter(svc, map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")
	cancel()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	return nil
}

func openLedger(ctx context.Context, cfg *config.Config) (*sql.DB, domain.Ledger, error) {
	switch cfg.Database.Driver {
	case "", "sqlite":
		db, err := sqlitep.Connect(ctx, cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite connect: %w", err)
		}
		return db, sqlitep.NewLedger(db), nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		return db, mysqlp.NewLedger(db), nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		return db, postgresp.NewLedger(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func openLogSource(ctx context.Context, cfg *config.Config) (logs.Source, error) {
	switch cfg.Logs.Mode {
	case "", "local":
		return storage.NewLocalSource(cfg.Logs.Root), nil
	case "minio":
		return storage.NewMinioSource(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
	default:
		return nil, fmt.Errorf("unknown logs mode %q", cfg.Logs.Mode)
	}
}

// buildInvestigator picks the analyst implementation: the deterministic
// rule pipeline, or the tool-calling agent when configured and an API key
// is present. The knowledge-base vectors always live in their own SQLite
// file (retrieval.path); the ledger driver never decides where they go.
// The returned *sql.DB is the KB store handle, nil when no API key is set.
func buildInvestigator(ctx context.Context, cfg *config.Config, ledger domain.Ledger, source logs.Source) (pipeline.Investigator, *sql.DB, error) {
	var kb knowledge.Retriever
	var kbDB *sql.DB
	if cfg.AI.APIKey != "" {
		client := openaip.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.EmbeddingModel)

		var err error
		kbDB, err = sqlitep.Connect(ctx, cfg.Retrieval.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("kb store: %w", err)
		}
		kb = retrieval.NewRetriever(client, retrieval.NewStore(kbDB))

		if cfg.Analyst.Mode == "agent" {
			agent := openaip.NewAgent(client, source, kb, ledger, cfg.Retrieval.TopK, cfg.PhaseTimeout())
			return agent, kbDB, nil
		}
	} else if cfg.Analyst.Mode == "agent" {
		return nil, nil, fmt.Errorf("analyst mode %q needs ai.apiKey", cfg.Analyst.Mode)
	}

	return &pipeline.PhasedInvestigator{
		Recorder:     &domain.StepRecorder{Ledger: ledger},
		Collector:    &pipeline.LogCollector{Source: source},
		Analyst:      &pipeline.RuleAnalyst{KB: kb, TopK: cfg.Retrieval.TopK},
		Supervisor:   &pipeline.ReportCompiler{Ledger: ledger},
		PhaseTimeout: cfg.PhaseTimeout(),
	}, kbDB, nil
}

func scheduler(cfg *config.Config) pipeline.Scheduler {
	if cfg.Pipeline.Cron != "" {
		return &pipeline.CronScheduler{Spec: cfg.Pipeline.Cron}
	}
	return &pipeline.IntervalScheduler{Interval: cfg.PollInterval()}
}
