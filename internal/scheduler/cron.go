package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cronField is one parsed field of a 5-field cron expression, stored as
// the set of matching values.
type cronField map[int]bool

// CronExpr is a parsed minute/hour/day-of-month/month/day-of-week
// expression.
type CronExpr struct {
	minute, hour, dom, month, dow cronField
}

// ParseCron parses a standard 5-field cron expression. Supported syntax
// per field: *, */n, n, n-m, n-m/s, and comma-separated lists thereof.
func ParseCron(expr string) (*CronExpr, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}

	specs := []struct {
		name     string
		min, max int
	}{
		{"minute", 0, 59},
		{"hour", 0, 23},
		{"day-of-month", 1, 31},
		{"month", 1, 12},
		{"day-of-week", 0, 6},
	}

	var c CronExpr
	dsts := []*cronField{&c.minute, &c.hour, &c.dom, &c.month, &c.dow}
	for i, spec := range specs {
		set, err := parseField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("%s field: %w", spec.name, err)
		}
		*dsts[i] = set
	}
	return &c, nil
}

// Matches reports whether t falls on the expression, at minute
// granularity.
func (c *CronExpr) Matches(t time.Time) bool {
	return c.minute[t.Minute()] &&
		c.hour[t.Hour()] &&
		c.dom[t.Day()] &&
		c.month[int(t.Month())] &&
		c.dow[int(t.Weekday())]
}

func parseField(field string, min, max int) (cronField, error) {
	set := cronField{}
	for _, part := range strings.Split(field, ",") {
		if err := parsePart(set, part, min, max); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func parsePart(set cronField, part string, min, max int) error {
	fill := func(lo, hi, step int) {
		for i := lo; i <= hi; i += step {
			set[i] = true
		}
	}

	switch {
	case part == "*":
		fill(min, max, 1)
		return nil

	case strings.HasPrefix(part, "*/"):
		step, err := strconv.Atoi(part[2:])
		if err != nil || step <= 0 {
			return fmt.Errorf("invalid step %q", part)
		}
		fill(min, max, step)
		return nil

	case strings.Contains(part, "-"):
		spec, stepStr, hasStep := strings.Cut(part, "/")
		loStr, hiStr, _ := strings.Cut(spec, "-")
		lo, err := strconv.Atoi(loStr)
		if err != nil {
			return fmt.Errorf("invalid range start %q", loStr)
		}
		hi, err := strconv.Atoi(hiStr)
		if err != nil {
			return fmt.Errorf("invalid range end %q", hiStr)
		}
		if lo < min || hi > max || lo > hi {
			return fmt.Errorf("range %q out of bounds %d-%d", spec, min, max)
		}
		step := 1
		if hasStep {
			step, err = strconv.Atoi(stepStr)
			if err != nil || step <= 0 {
				return fmt.Errorf("invalid step %q", stepStr)
			}
		}
		fill(lo, hi, step)
		return nil

	default:
		val, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid value %q", part)
		}
		if val < min || val > max {
			return fmt.Errorf("value %d out of range %d-%d", val, min, max)
		}
		set[val] = true
		return nil
	}
}
