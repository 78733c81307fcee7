package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"redactd/pkg/bus"
	"redactd/pkg/db"
	gos3 "redactd/pkg/s3"
	"redactd/pkg/telemetry"
	"redactd/services/ingest"
)

const jobsStreamName = "REDACTD_JOBS"

func main() {
	if err := run("ingestd"); err != nil {
		log.New(os.Stderr, "", log.LstdFlags).Fatal(err)
	}
}

func run(serviceName string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	shutdownTelemetry, middleware, logger, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownTelemetry != nil {
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "%s: telemetry shutdown error: %v\n", serviceName, err)
			}
		}
	}()

	cfg, err := ingest.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := db.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	orm, err := db.OpenORM(dsn)
	if err != nil {
		return fmt.Errorf("open orm: %w", err)
	}
	defer func() {
		if err := db.CloseORM(orm); err != nil {
			fmt.Fprintf(os.Stderr, "%s: close orm error: %v\n", serviceName, err)
		}
	}()

	s3Client, err := gos3.NewClientFromEnv()
	if err != nil {
		return fmt.Errorf("init s3 client: %w", err)
	}

	natsURL := strings.TrimSpace(os.Getenv("NATS_URL"))
	if natsURL == "" {
		return errors.New("NATS_URL is required")
	}
	jobBus, err := bus.New(natsURL)
	if err != nil {
		return fmt.Errorf("connect bus: %w", err)
	}
	defer jobBus.Close()

	if err := jobBus.EnsureStream(jobsStreamName, []string{"redactd.jobs.>"}); err != nil {
		return fmt.Errorf("ensure jobs stream: %w", err)
	}

	api, err := ingest.New(&ingest.Store{
		DB:  pool,
		ORM: orm,
		S3:  s3Client,
		Bus: jobBus,
	}, cfg, logger)
	if err != nil {
		return fmt.Errorf("init api: %w", err)
	}

	routes, err := api.Routes()
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context(), pool); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", routes)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: middleware(mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "%s: server shutdown error: %v\n", serviceName, err)
		}
	}()

	logger.Printf("INFO listening on %s", server.Addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("ERROR server failed: %v", err)
		return err
	}

	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
