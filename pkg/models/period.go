package models

import (
	"fmt"
	"time"
)

var ErrInvalidPeriod = fmt.Errorf("invalid period: month must be 1-12 and year 2000-2100")

// Period is a calendar month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 || p.Year < 2000 || p.Year > 2100 {
		return fmt.Errorf("%w: got %d/%d", ErrInvalidPeriod, p.Month, p.Year)
	}
	return nil
}

// DateRange returns the first and last day of the month as YYYY-MM-DD.
func (p Period) DateRange() (string, string) {
	first := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(time.DateOnly), last.Format(time.DateOnly)
}

func (p Period) String() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}
