package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used on the wire ("2006-01-02").
const DateLayout = "2006-01-02"

// Date is a calendar day carried as a time.Time at midnight UTC.
// It also accepts RFC 3339 timestamps and keeps only their date.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.Parse(s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d Date) MarshalYAML() (any, error) {
	return d.Format(DateLayout), nil
}

// Parse reads a date-only string first, then falls back to RFC 3339.
func (d *Date) Parse(s string) error {
	parsed, err := time.Parse(DateLayout, s)
	if err == nil {
		d.Time = parsed
		return nil
	}
	parsed, err2 := time.Parse(time.RFC3339, s)
	if err2 == nil {
		d.Time = Midnight(parsed)
		return nil
	}
	return fmt.Errorf("cannot parse date %q: %w", s, err)
}

// ParseDate parses a date string into midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	var d Date
	if err := d.Parse(s); err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

// Midnight drops the clock part of t, keeping its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
