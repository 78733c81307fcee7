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
	"redactd/pkg/telemetry"
	"redactd/services/statusd"
)

func main() {
	if err := run("statusd"); err != nil {
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

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		return errors.New("DATABASE_URL is required")
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

	natsURL := strings.TrimSpace(os.Getenv("NATS_URL"))
	if natsURL == "" {
		return errors.New("NATS_URL is required")
	}
	jobBus, err := bus.New(natsURL)
	if err != nil {
		return fmt.Errorf("connect bus: %w", err)
	}
	defer jobBus.Close()

	projector, err := statusd.NewProjector(orm, jobBus, logger)
	if err != nil {
		return fmt.Errorf("init projector: %w", err)
	}
	if err := projector.Start(ctx); err != nil {
		return fmt.Errorf("start projector: %w", err)
	}
	defer func() {
		if err := projector.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "%s: projector close error: %v\n", serviceName, err)
		}
	}()

	addr := strings.TrimSpace(os.Getenv("STATUSD_ADDR"))
	if addr == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    addr,
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

	logger.Printf("INFO consuming worker events, listening on %s", server.Addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("ERROR server failed: %v", err)
		return err
	}

	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
