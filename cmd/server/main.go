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

	"top-ten/internal/config"
	"top-ten/internal/db"
	"top-ten/internal/exports"
	"top-ten/internal/server"

	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var conn *gorm.DB
	if opened, err := db.Open(cfg); err != nil {
		log.Printf("database unavailable, running in memory: %v", err)
	} else {
		conn = opened
		if cfg.AutoMigrate {
			if err := db.Migrate(conn); err != nil {
				log.Fatalf("database migration failed: %v", err)
			}
		}
	}

	srv := server.New(conn, cfg)
	uploader, err := exports.New(ctx, exports.Settings{
		Bucket:          cfg.ExportBucket,
		Endpoint:        cfg.ExportEndpoint,
		Region:          cfg.ExportRegion,
		AccessKeyID:     cfg.ExportAccessKeyID,
		SecretAccessKey: cfg.ExportSecretAccessKey,
	})
	switch {
	case err == nil:
		srv.SetExporter(uploader)
	case errors.Is(err, exports.ErrNotConfigured):
		log.Println("export bucket not configured, publishing disabled")
	default:
		log.Printf("export bucket disabled: %v", err)
	}

	scheduler, err := srv.StartJanitor()
	if err != nil {
		log.Fatalf("janitor failed to start: %v", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("top-ten server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown failed: %v", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("janitor shutdown failed: %v", err)
	}
	srv.Close()
}
