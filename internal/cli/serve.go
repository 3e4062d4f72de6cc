package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/asa-tools/arkmgr/internal/config"
	"github.com/asa-tools/arkmgr/internal/db"
	"github.com/asa-tools/arkmgr/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web API",
	Long:  "Starts the HTTP API, metrics endpoint and the schedule runner, and blocks until interrupted.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("default-user", "admin", "bootstrap admin username")
	serveCmd.Flags().String("default-pass", "admin", "bootstrap admin password")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}

	srv, err := server.New(cfg, database)
	if err != nil {
		return err
	}
	defer srv.Stop()

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("arkmgr listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
