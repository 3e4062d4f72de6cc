package scheduler

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/asa-tools/arkmgr/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func TestTickRunsMatchingRCONSchedule(t *testing.T) {
	database := openTestDB(t)

	var executed string
	s := New(database, nil, nil, nil, func(command string) (string, error) {
		executed = command
		return "World Saved", nil
	})

	_, err := database.Exec(
		`INSERT INTO schedules (id, name, cron_expr, action, command) VALUES (?, ?, ?, ?, ?)`,
		"sched1", "autosave", "* * * * *", ActionRCON, "SaveWorld",
	)
	if err != nil {
		t.Fatalf("insert schedule: %v", err)
	}

	s.tick(time.Now())

	if executed != "SaveWorld" {
		t.Fatalf("executed = %q, want SaveWorld", executed)
	}

	var lastRun sql.NullString
	if err := database.QueryRow("SELECT last_run FROM schedules WHERE id = 'sched1'").Scan(&lastRun); err != nil {
		t.Fatalf("query last_run: %v", err)
	}
	if !lastRun.Valid || lastRun.String == "" {
		t.Error("last_run not recorded")
	}

	logged, err := db.RecentCommands(database, 5)
	if err != nil {
		t.Fatalf("recent commands: %v", err)
	}
	if len(logged) != 1 || logged[0].Source != db.SourceScheduler {
		t.Errorf("command log = %+v, want one scheduler entry", logged)
	}
}

func TestTickSkipsNonMatchingAndDisabled(t *testing.T) {
	database := openTestDB(t)

	ran := false
	s := New(database, nil, nil, nil, func(string) (string, error) {
		ran = true
		return "", nil
	})

	// 02:30 never matches a 04:00 schedule.
	database.Exec(`INSERT INTO schedules (id, name, cron_expr, action, command) VALUES
		('a', 'other time', '0 4 * * *', 'rcon', 'SaveWorld')`)
	database.Exec(`INSERT INTO schedules (id, name, cron_expr, action, command, enabled) VALUES
		('b', 'disabled', '* * * * *', 'rcon', 'SaveWorld', 0)`)

	s.tick(time.Date(2026, 6, 3, 2, 30, 0, 0, time.Local))

	if ran {
		t.Error("executor ran for a schedule that should not fire")
	}
}
