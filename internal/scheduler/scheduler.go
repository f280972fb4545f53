// Package scheduler revalues every account at fixed wall-clock times, the
// way an end-of-day mark would run in a real book.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/yourorg/paper-trade/internal/valuation"
)

// TimeOfDay is a wall-clock trigger, minutes since midnight local time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseSchedule parses "HH:MM,HH:MM,..." into sorted trigger times. The
// literal "off" (or an empty string) disables the schedule and returns nil.
func ParseSchedule(spec string) ([]TimeOfDay, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	if spec == "" || spec == "off" {
		return nil, nil
	}

	var times []TimeOfDay
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var t TimeOfDay
		if _, err := fmt.Sscanf(part, "%d:%d", &t.Hour, &t.Minute); err != nil {
			return nil, fmt.Errorf("invalid schedule entry %q", part)
		}
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return nil, fmt.Errorf("schedule entry %q out of range", part)
		}
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].Hour != times[j].Hour {
			return times[i].Hour < times[j].Hour
		}
		return times[i].Minute < times[j].Minute
	})
	return times, nil
}

type Scheduler struct {
	times   []TimeOfDay
	valuer  *valuation.Valuer
	fetcher valuation.BatchFetcher
	logger  *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

func New(times []TimeOfDay, valuer *valuation.Valuer, fetcher valuation.BatchFetcher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		times:   times,
		valuer:  valuer,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// Next returns the first trigger strictly after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	for _, tod := range s.times {
		candidate := time.Date(t.Year(), t.Month(), t.Day(), tod.Hour, tod.Minute, 0, 0, t.Location())
		if candidate.After(t) {
			return candidate
		}
	}
	// All of today's triggers have passed; wrap to the earliest tomorrow.
	first := s.times[0]
	tomorrow := t.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.Hour, first.Minute, 0, 0, t.Location())
}

// Run sleeps until each trigger in turn and revalues all accounts with live
// quotes. A failed run is logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.times) == 0 {
		s.logger.Info("equity update schedule disabled")
		return
	}
	s.logger.Info("equity update schedule active", "times", s.timesString())

	for {
		next := s.Next(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		results, err := s.valuer.RevalueAllLive(ctx, s.fetcher)
		if err != nil {
			s.logger.Error("scheduled equity update failed", "err", err)
			continue
		}
		s.logger.Info("scheduled equity update complete", "accounts", len(results), "at", next.Format("15:04"))
	}
}

func (s *Scheduler) timesString() string {
	parts := make([]string, len(s.times))
	for i, t := range s.times {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}
