package scheduler

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	// 2026-06-03 is a Wednesday (weekday 3).
	return time.Date(2026, 6, 3, hour, minute, 0, 0, time.UTC)
}

func TestParseCronMatches(t *testing.T) {
	tests := []struct {
		expr  string
		time  time.Time
		match bool
	}{
		{"* * * * *", at(12, 30), true},
		{"0 4 * * *", at(4, 0), true},
		{"0 4 * * *", at(4, 1), false},
		{"*/15 * * * *", at(9, 45), true},
		{"*/15 * * * *", at(9, 46), false},
		{"30 2-6 * * *", at(3, 30), true},
		{"30 2-6 * * *", at(7, 30), false},
		{"0 0 * * 3", at(0, 0), true},
		{"0 0 * * 4", at(0, 0), false},
		{"0 12 3 6 *", at(12, 0), true},
		{"0 12 4 6 *", at(12, 0), false},
		{"0,30 * * * *", at(18, 30), true},
		{"0,30 * * * *", at(18, 15), false},
		{"0-40/20 * * * *", at(5, 40), true},
		{"0-40/20 * * * *", at(5, 30), false},
	}

	for _, tt := range tests {
		cron, err := ParseCron(tt.expr)
		if err != nil {
			t.Errorf("ParseCron(%q): %v", tt.expr, err)
			continue
		}
		if got := cron.Matches(tt.time); got != tt.match {
			t.Errorf("%q.Matches(%s) = %v, want %v", tt.expr, tt.time, got, tt.match)
		}
	}
}

func TestParseCronRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"* * * *",
		"* * * * * *",
		"61 * * * *",
		"* 25 * * *",
		"* * 0 * *",
		"* * * 13 *",
		"* * * * 7",
		"*/0 * * * *",
		"10-5 * * * *",
		"a * * * *",
	}
	for _, expr := range bad {
		if _, err := ParseCron(expr); err == nil {
			t.Errorf("ParseCron(%q) accepted", expr)
		}
	}
}

func TestValidAction(t *testing.T) {
	for _, a := range []string{ActionStart, ActionStop, ActionRestart, ActionBackup, ActionRCON} {
		if !ValidAction(a) {
			t.Errorf("ValidAction(%q) = false", a)
		}
	}
	if ValidAction("explode") {
		t.Error("unknown action accepted")
	}
}
