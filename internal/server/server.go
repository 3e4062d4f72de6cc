package server

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
	"github.com/asa-tools/arkmgr/internal/api"
	"github.com/asa-tools/arkmgr/internal/auth"
	"github.com/asa-tools/arkmgr/internal/backup"
	"github.com/asa-tools/arkmgr/internal/config"
	"github.com/asa-tools/arkmgr/internal/logview"
	"github.com/asa-tools/arkmgr/internal/process"
	"github.com/asa-tools/arkmgr/internal/rcon"
	"github.com/asa-tools/arkmgr/internal/scheduler"
	"github.com/asa-tools/arkmgr/internal/settings"
	"github.com/asa-tools/arkmgr/internal/steamcmd"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var httpRequests = metrics.NewCounter("arkmgr_http_requests_total")

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpRequests.Inc()
		next.ServeHTTP(w, r)
	})
}

type Server struct {
	cfg       *config.Config
	db        *sql.DB
	router    chi.Router
	scheduler *scheduler.Scheduler
}

func New(cfg *config.Config, database *sql.DB) (*Server, error) {
	authSvc := auth.NewService(database)
	if err := authSvc.EnsureAdmin(cfg.DefaultUser, cfg.DefaultPass); err != nil {
		return nil, fmt.Errorf("ensure admin user: %w", err)
	}

	steam := steamcmd.New(cfg.BaseDir)
	store := settings.NewStore(steam.ServerDir())
	proc := process.New(steam.ServerExePath(), steam.ServerDir())
	backupSvc := backup.NewService(database, steam.ServerDir(), cfg.BackupDir)
	viewer := logview.New(steam.ServerDir())

	launch := func() process.LaunchOptions {
		return process.LaunchOptions{
			Map:        cfg.Map,
			GamePort:   cfg.GamePort,
			QueryPort:  cfg.QueryPort,
			MaxPlayers: cfg.MaxPlayers,
		}
	}

	// Prefer the password and port from GameUserSettings.ini so the
	// manager keeps working after the operator changes them there.
	execRCON := func(command string) (string, error) {
		password := store.AdminPassword()
		if password == "" {
			password = cfg.RCONPassword
		}
		port := store.RCONPort()
		if port == 0 {
			port = cfg.RCONPort
		}
		client, err := rcon.Dial(cfg.RCONHost, port, password, rcon.Options{})
		if err != nil {
			return "", err
		}
		defer client.Close()
		return client.Execute(command)
	}

	sched := scheduler.New(database, proc, backupSvc, launch, execRCON)
	sched.Start()

	authHandler := api.NewAuthHandler(authSvc)
	controlHandler := api.NewControlHandler(proc, steam, store, launch)
	rconHandler := api.NewRCONHandler(database, execRCON)
	backupHandler := api.NewBackupHandler(backupSvc, proc)
	scheduleHandler := api.NewScheduleHandler(database)
	settingsHandler := api.NewSettingsHandler(store)
	logHandler := api.NewLogHandler(viewer, execRCON)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(countRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(api.AuthMiddleware(authSvc))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/password", authHandler.ChangePassword)

			r.Route("/server", func(r chi.Router) {
				r.Get("/status", controlHandler.Status)
				r.Post("/install", controlHandler.Install)
				r.Post("/start", controlHandler.Start)
				r.Post("/stop", controlHandler.Stop)
				r.Post("/restart", controlHandler.Restart)

				r.Post("/rcon", rconHandler.Execute)
				r.Get("/rcon/history", rconHandler.History)

				r.Get("/backups", backupHandler.List)
				r.Post("/backups", backupHandler.Create)
				r.Get("/backups/{backupId}/download", backupHandler.Download)
				r.Delete("/backups/{backupId}", backupHandler.Delete)
				r.Post("/backups/{backupId}/restore", backupHandler.Restore)

				r.Get("/schedules", scheduleHandler.List)
				r.Post("/schedules", scheduleHandler.Create)
				r.Put("/schedules/{scheduleId}", scheduleHandler.Update)
				r.Delete("/schedules/{scheduleId}", scheduleHandler.Delete)

				r.Get("/settings", settingsHandler.GetServer)
				r.Put("/settings", settingsHandler.UpdateServer)
				r.Get("/settings/game", settingsHandler.GetGame)
				r.Put("/settings/game", settingsHandler.UpdateGame)
				r.Get("/mods", settingsHandler.GetMods)
				r.Put("/mods", settingsHandler.SetMods)

				r.Get("/logs", logHandler.List)
				r.Get("/logs/live", logHandler.Live)
				r.Get("/logs/{name}", logHandler.Tail)
			})
		})
	})

	return &Server{cfg: cfg, db: database, router: r, scheduler: sched}, nil
}

func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
