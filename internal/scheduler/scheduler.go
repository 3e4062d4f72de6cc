// Package scheduler runs recurring maintenance actions against the
// managed server: timed starts, stops, restarts, backups and RCON
// commands such as a periodic SaveWorld.
package scheduler

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/asa-tools/arkmgr/internal/backup"
	"github.com/asa-tools/arkmgr/internal/db"
	"github.com/asa-tools/arkmgr/internal/process"
)

// Schedule actions.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
	ActionBackup  = "backup"
	ActionRCON    = "rcon"
)

type Schedule struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CronExpr  string `json:"cron_expr"`
	Action    string `json:"action"`
	Command   string `json:"command,omitempty"`
	Enabled   bool   `json:"enabled"`
	LastRun   string `json:"last_run,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ValidAction reports whether a is a known schedule action.
func ValidAction(a string) bool {
	switch a {
	case ActionStart, ActionStop, ActionRestart, ActionBackup, ActionRCON:
		return true
	}
	return false
}

// RCONExecutor runs one remote command and returns its output. The
// scheduler dials a fresh session per command, so implementations own
// connection setup and teardown.
type RCONExecutor func(command string) (string, error)

type Scheduler struct {
	db      *sql.DB
	proc    *process.Controller
	backups *backup.Service
	launch  func() process.LaunchOptions
	rcon    RCONExecutor
	cancel  context.CancelFunc
}

func New(database *sql.DB, proc *process.Controller, backups *backup.Service, launch func() process.LaunchOptions, rcon RCONExecutor) *Scheduler {
	return &Scheduler{db: database, proc: proc, backups: backups, launch: launch, rcon: rcon}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		for {
			// Fire once per minute, aligned to the minute boundary.
			now := time.Now()
			next := now.Truncate(time.Minute).Add(time.Minute)

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Until(next)):
				s.tick(time.Now())
			}
		}
	}()

	log.Println("scheduler started")
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) tick(now time.Time) {
	rows, err := s.db.Query(
		`SELECT id, cron_expr, action, command FROM schedules WHERE enabled = 1`,
	)
	if err != nil {
		log.Printf("scheduler: query: %v", err)
		return
	}

	type job struct {
		id, cronExpr, action, command string
	}
	var jobs []job
	for rows.Next() {
		var j job
		if err := rows.Scan(&j.id, &j.cronExpr, &j.action, &j.command); err != nil {
			continue
		}
		jobs = append(jobs, j)
	}
	rows.Close()

	for _, j := range jobs {
		cron, err := ParseCron(j.cronExpr)
		if err != nil {
			log.Printf("scheduler: invalid cron %q for schedule %s: %v", j.cronExpr, j.id, err)
			continue
		}
		if !cron.Matches(now) {
			continue
		}

		log.Printf("scheduler: running %s (schedule %s)", j.action, j.id)
		s.execute(j.action, j.command)
		s.db.Exec("UPDATE schedules SET last_run = ? WHERE id = ?", now, j.id)
	}
}

func (s *Scheduler) execute(action, command string) {
	var err error
	switch action {
	case ActionStart:
		err = s.proc.Start(s.launch())
	case ActionStop:
		err = s.proc.Stop()
	case ActionRestart:
		if stopErr := s.proc.Stop(); stopErr != nil && stopErr != process.ErrNotRunning {
			err = stopErr
			break
		}
		err = s.proc.Start(s.launch())
	case ActionBackup:
		_, err = s.backups.Create()
	case ActionRCON:
		var out string
		out, err = s.rcon(command)
		if err == nil {
			db.RecordCommand(s.db, db.SourceScheduler, command, out)
		}
	default:
		log.Printf("scheduler: unknown action %q", action)
		return
	}

	if err != nil {
		log.Printf("scheduler: %s failed: %v", action, err)
	}
}

// List returns every schedule, newest first.
func List(database *sql.DB) ([]Schedule, error) {
	rows, err := database.Query(
		`SELECT id, name, cron_expr, action, command, enabled,
		        COALESCE(last_run, ''), created_at
		 FROM schedules ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Schedule{}
	for rows.Next() {
		var sc Schedule
		var enabled int
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.CronExpr, &sc.Action, &sc.Command, &enabled, &sc.LastRun, &sc.CreatedAt); err != nil {
			continue
		}
		sc.Enabled = enabled == 1
		out = append(out, sc)
	}
	return out, rows.Err()
}
