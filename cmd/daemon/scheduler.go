package main

import (
	"time"

	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/market"
)

// Scheduler decides when the end-of-day run is due, in exchange time
type Scheduler struct {
	hour     int
	minute   int
	calendar *market.Calendar
	now      func() time.Time
}

// NewScheduler creates a scheduler firing at hour:minute Asia/Kolkata on
// NSE trading days
func NewScheduler(hour, minute int, cal *market.Calendar) *Scheduler {
	return &Scheduler{
		hour:     hour,
		minute:   minute,
		calendar: cal,
		now:      time.Now,
	}
}

// Today returns the exchange date at UTC midnight
func (s *Scheduler) Today() time.Time {
	now := s.now().In(s.calendar.Location())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// TodayDate returns today's exchange date in YYYY-MM-DD format
func (s *Scheduler) TodayDate() string {
	return s.Today().Format(data.DateLayout)
}

// IsDue reports whether the scheduled time has passed today
func (s *Scheduler) IsDue() bool {
	now := s.now().In(s.calendar.Location())
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	return !now.Before(scheduled)
}

// IsMarketDay checks if the date is an NSE trading day
func (s *Scheduler) IsMarketDay(date time.Time) bool {
	return s.calendar.IsTradingDay(date)
}

// Location returns the exchange timezone
func (s *Scheduler) Location() *time.Location {
	return s.calendar.Location()
}
