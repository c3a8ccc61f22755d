// Command labstock runs the inventory HTTP service. All configuration comes
// from LABSTOCK_* environment variables; see the package docs of
// internal/core and internal/blob for the full list.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labstock/internal/api"
	"labstock/internal/auth"
	"labstock/internal/blob"
	"labstock/internal/core"
	"labstock/internal/metrics"
	"labstock/pkg/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("labstock: %v", err)
	}
}

type corruptReporter interface {
	RecoveredCorrupt() bool
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := core.OpenPersistentStore(ctx)
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}
	if reporter, ok := store.(corruptReporter); ok && reporter.RecoveredCorrupt() {
		log.Printf("warning: stored snapshot was unreadable, starting from defaults")
	}

	images, err := blob.Open(ctx)
	if err != nil {
		return err
	}

	m := metrics.New(func(c domain.Category) int { return len(store.ListItems(c)) })
	handler := api.NewHandler(store, auth.NewGate(store), images, m)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", handler)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := os.Getenv("LABSTOCK_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (storage=%s images=%s)", addr, storageDriver(), images.Driver())
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func storageDriver() string {
	if driver := os.Getenv("LABSTOCK_STORAGE_DRIVER"); driver != "" {
		return driver
	}
	return string(core.StorageSQLite)
}
