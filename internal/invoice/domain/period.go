package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is one calendar month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// ParsePeriod accepts "M/YYYY" with or without zero padding.
func ParsePeriod(raw string) (Period, error) {
	month, year, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return Period{}, ErrInvalidPeriod
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	p := Period{Month: m, Year: y}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 || p.Year < 1900 || p.Year > 9999 {
		return ErrInvalidPeriod
	}
	return nil
}

// Key is the idempotency key of the period, e.g. "2/2024".
func (p Period) Key() string {
	return fmt.Sprintf("%d/%d", p.Month, p.Year)
}

func (p Period) String() string {
	return p.Key()
}

// Label is the display name, e.g. "February 2024".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", time.Month(p.Month).String(), p.Year)
}

// Bounds returns the first and last calendar day of the period in UTC.
func (p Period) Bounds() (time.Time, time.Time) {
	first := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// Days is the inclusive number of days in the period.
func (p Period) Days() int {
	first, last := p.Bounds()
	return int(last.Sub(first).Hours()/24) + 1
}

func (p Period) Next() Period {
	first, _ := p.Bounds()
	return PeriodOf(first.AddDate(0, 1, 0))
}

// PeriodOptions lists the period containing now followed by count-1 periods.
func PeriodOptions(now time.Time, count int) []Period {
	out := make([]Period, 0, count)
	p := PeriodOf(now)
	for i := 0; i < count; i++ {
		out = append(out, p)
		p = p.Next()
	}
	return out
}
