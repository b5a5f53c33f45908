package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/spf13/cobra"

	"github.com/agriscan/agriscan-api/internal/config"
	"github.com/agriscan/agriscan-api/internal/engine"
	"github.com/agriscan/agriscan-api/internal/handlers"
	"github.com/agriscan/agriscan-api/internal/store"
	"github.com/agriscan/agriscan-api/internal/treatment"
	"github.com/agriscan/agriscan-api/internal/upload"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var port, modelPath, metadataPath, dsn string

	root := &cobra.Command{
		Use:   "agriscan-server",
		Short: "AgriScan plant disease detection API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Server.Port = port
			}
			if modelPath != "" {
				cfg.Model.ModelPath = modelPath
			}
			if metadataPath != "" {
				cfg.Model.MetadataPath = metadataPath
			}
			if dsn != "" {
				cfg.Store.DSN = dsn
				cfg.Store.Driver = "postgres"
			}
			return serve(cfg)
		},
	}

	root.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	root.Flags().StringVar(&modelPath, "model", "", "path to the ONNX model")
	root.Flags().StringVar(&metadataPath, "metadata", "", "path to the model metadata JSON")
	root.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN (overrides DATABASE_URL)")

	return root
}

func serve(cfg config.Config) error {
	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	log.Printf("Loading model from: %s", cfg.Model.ModelPath)

	classifier, err := engine.NewONNX(cfg.Model.ModelPath, cfg.Model.MetadataPath)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}
	defer classifier.Close()

	treatments, err := treatment.Load()
	if err != nil {
		return fmt.Errorf("failed to load treatment catalogue: %w", err)
	}

	validator := upload.New(cfg.Upload.AllowedExtensions, cfg.Upload.AllowedMIMETypes, cfg.Upload.MaxFileSize)
	handler := handlers.NewHandler(classifier, st, validator, treatments, cfg.Model.TopK, cfg.Model.Version)

	cors := corsMiddleware(cfg.Server.CORSOrigins)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", cors(handler.Root))
	mux.HandleFunc("/api/health", cors(handler.Health))
	mux.HandleFunc("/api/predictions/predict", cors(handler.Predict))
	mux.HandleFunc("/api/predictions/history", cors(handler.History))
	mux.HandleFunc("/api/treatments/", cors(handler.Treatments))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Classes: %d, top-K: %d, store: %s", len(classifier.Labels()), cfg.Model.TopK, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		log.Printf("received %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// openStore picks the configured persistence backend. Without a DSN the
// server still comes up on the in-memory store so predictions keep working,
// they just do not survive a restart.
func openStore(cfg config.StoreConfig) (store.Store, func(), error) {
	if cfg.Driver != "postgres" {
		log.Printf("no DATABASE_URL configured, using in-memory prediction store")
		return store.NewMemory(), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db.Ping: %w", err)
	}

	pg := store.NewPostgres(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	log.Printf("db connected")
	return pg, func() { db.Close() }, nil
}

func corsMiddleware(origins []string) func(http.HandlerFunc) http.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[r.Header.Get("Origin")]:
				w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
			}
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next(w, r)
		}
	}
}
