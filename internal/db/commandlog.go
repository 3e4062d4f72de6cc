package db

import (
	"database/sql"
)

// Command sources recorded in the audit log.
const (
	SourceCLI       = "cli"
	SourceAPI       = "api"
	SourceScheduler = "scheduler"
)

// maxLoggedResponse keeps oversized command output out of the database.
const maxLoggedResponse = 1024

// LoggedCommand is one entry of the RCON audit trail.
type LoggedCommand struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	Command   string `json:"command"`
	Response  string `json:"response"`
	CreatedAt string `json:"created_at"`
}

// RecordCommand appends one executed RCON command to the audit log.
func RecordCommand(db *sql.DB, source, command, response string) error {
	if len(response) > maxLoggedResponse {
		response = response[:maxLoggedResponse]
	}
	_, err := db.Exec(
		`INSERT INTO command_log (source, command, response) VALUES (?, ?, ?)`,
		source, command, response,
	)
	return err
}

// RecentCommands returns the newest n audit entries, newest first.
func RecentCommands(db *sql.DB, n int) ([]LoggedCommand, error) {
	rows, err := db.Query(
		`SELECT id, source, command, response, created_at FROM command_log ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LoggedCommand{}
	for rows.Next() {
		var e LoggedCommand
		if err := rows.Scan(&e.ID, &e.Source, &e.Command, &e.Response, &e.CreatedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
