// Package market answers trading-day questions for the National Stock
// Exchange of India.
package market

import (
	"time"

	"github.com/scmhub/calendar"
)

// Timezone is where NSE trading days are counted.
const Timezone = "Asia/Kolkata"

// Calendar wraps the exchange holiday calendar
type Calendar struct {
	nse      *calendar.Calendar
	location *time.Location
}

// NewCalendar creates the NSE calendar. An unknown timezone database falls
// back to a fixed +05:30 zone.
func NewCalendar() *Calendar {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		loc = time.FixedZone("IST", 5*60*60+30*60)
	}
	return &Calendar{
		nse:      calendar.XNSE(),
		location: loc,
	}
}

// Location returns the exchange timezone
func (c *Calendar) Location() *time.Location {
	return c.location
}

// IsTradingDay checks if the calendar date of t is a trading day (not
// weekend/holiday).
func (c *Calendar) IsTradingDay(t time.Time) bool {
	// Noon in exchange time so the calendar date can't shift
	noon := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, c.location)
	return c.nse.IsBusinessDay(noon)
}

// PreviousTradingDay returns the last trading day strictly before t.
func (c *Calendar) PreviousTradingDay(t time.Time) time.Time {
	d := dateOnly(t).AddDate(0, 0, -1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// TradingDays splits dates into trading days and skipped ones, keeping order.
func (c *Calendar) TradingDays(dates []time.Time) (trading, skipped []time.Time) {
	for _, d := range dates {
		if c.IsTradingDay(d) {
			trading = append(trading, d)
		} else {
			skipped = append(skipped, d)
		}
	}
	return trading, skipped
}

// Today returns the current exchange date at UTC midnight.
func (c *Calendar) Today() time.Time {
	return dateOnly(time.Now().In(c.location))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
