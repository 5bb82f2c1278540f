package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cradlehq/cradle/internal/backup"
	"github.com/cradlehq/cradle/internal/database"
	"github.com/cradlehq/cradle/internal/email"
	"github.com/cradlehq/cradle/internal/logging"
	"github.com/cradlehq/cradle/internal/server"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	port := env("CRADLE_PORT", "8080")
	dbPath := env("CRADLE_DB_PATH", "cradle.db")

	logger := logging.Setup(os.Getenv("CRADLE_LOG_LEVEL"))

	jwtSecret := os.Getenv("CRADLE_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("CRADLE_JWT_SECRET is required")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("CRADLE_POSTMARK_TOKEN"),
		os.Getenv("CRADLE_POSTMARK_FROM"),
		env("CRADLE_BASE_URL", "http://localhost:"+port),
	)

	cfg := server.Config{
		JWTSecret:       jwtSecret,
		VAPIDPublicKey:  os.Getenv("CRADLE_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("CRADLE_VAPID_PRIVATE_KEY"),
		AlertEmail:      os.Getenv("CRADLE_ALERT_EMAIL"),
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("CRADLE_S3_ENDPOINT"),
				Bucket:    os.Getenv("CRADLE_S3_BUCKET"),
				Region:    env("CRADLE_S3_REGION", "auto"),
				AccessKey: os.Getenv("CRADLE_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("CRADLE_S3_SECRET_KEY"),
			},
			DBPath:     dbPath,
			Passphrase: os.Getenv("CRADLE_BACKUP_PASSPHRASE"),
		},
	}

	srv := server.New(db, cfg, emailClient, logger)

	if err := srv.EnsureOwner(os.Getenv("CRADLE_OWNER_EMAIL"), os.Getenv("CRADLE_OWNER_PASSWORD")); err != nil {
		log.Fatalf("seed owner account: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Expired sessions and stale rate limit entries are swept in the
	// background so neither table grows without bound.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("delete expired sessions", "error", err)
				} else if n > 0 {
					logger.Info("deleted expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Cradle running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
