package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// CronSchedule is a Schedule backed by a robfig/cron expression.
// It accepts the standard 5-field format and descriptors:
//   - "*/15 * * * *" every 15 minutes
//   - "0 3 * * *"    every day at 03:00
//   - "@hourly", "@daily", "@every 10m"
type CronSchedule struct {
	raw      string
	schedule cron.Schedule
	location *time.Location
}

// ParseCron parses a cron expression evaluated in loc (UTC when nil).
func ParseCron(expr string, loc *time.Location) (*CronSchedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidSchedule)
	}

	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, expr, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	return &CronSchedule{raw: expr, schedule: sched, location: loc}, nil
}

// MustParseCron is ParseCron that panics on error. For constant expressions.
func MustParseCron(expr string) *CronSchedule {
	s, err := ParseCron(expr, nil)
	if err != nil {
		panic(err)
	}
	return s
}

// Next returns the next activation strictly after t.
func (s *CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// String returns the original expression.
func (s *CronSchedule) String() string {
	return s.raw
}
