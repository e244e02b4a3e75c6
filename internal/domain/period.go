package domain

import (
	"fmt"
	"strings"
	"time"
)

// Period is a calendar-month budgeting window identified by a year-month key
type Period struct {
	Year  int
	Month time.Month
}

const periodLayout = "2006-01"

// NewPeriod builds a period from a year and a month number (1-12)
func NewPeriod(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// PeriodOf returns the period containing t, evaluated in t's location
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses the canonical "YYYY-MM" key or the period-start-date form "YYYY-MM-01"
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case len("2006-01"):
		t, err := time.Parse(periodLayout, s)
		if err != nil {
			return Period{}, &ValidationError{Field: "periodKey", Reason: fmt.Sprintf("malformed period key %q", s)}
		}
		return PeriodOf(t), PeriodOf(t).Validate()
	case len("2006-01-02"):
		t, err := time.Parse(time.DateOnly, s)
		if err != nil || t.Day() != 1 {
			return Period{}, &ValidationError{Field: "periodKey", Reason: fmt.Sprintf("malformed period start date %q", s)}
		}
		return PeriodOf(t), PeriodOf(t).Validate()
	default:
		return Period{}, &ValidationError{Field: "periodKey", Reason: fmt.Sprintf("malformed period key %q", s)}
	}
}

// MustParsePeriod is ParsePeriod for constants and tests
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the canonical "YYYY-MM" key
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether the period was never set
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Validate checks the month range and that the key has four year digits
func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return &ValidationError{Field: "periodKey", Reason: fmt.Sprintf("month %d out of range", int(p.Month))}
	}
	if p.Year < 1 || p.Year > 9999 {
		return &ValidationError{Field: "periodKey", Reason: fmt.Sprintf("year %d out of range", p.Year)}
	}
	return nil
}

// Compare orders periods by year then month. It returns -1, 0 or +1.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Month < o.Month:
		return -1
	case p.Month > o.Month:
		return 1
	default:
		return 0
	}
}

func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }
func (p Period) After(o Period) bool  { return p.Compare(o) > 0 }

// FirstDay returns midnight UTC of the first day of the period
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the calendar length of the period
func (p Period) Days() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Period) Next() Period { return PeriodOf(p.FirstDay().AddDate(0, 1, 0)) }
func (p Period) Prev() Period { return PeriodOf(p.FirstDay().AddDate(0, -1, 0)) }

// Contains reports whether t's calendar date falls inside the period
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// MarshalText implements encoding.TextMarshaler so periods serialize as their key
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
