package entities

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date layout used for schedule fields.
const DateLayout = "2006-01-02"

// Date is a calendar date in YYYY-MM-DD form. Because the layout is fixed
// width and zero padded, string order equals chronological order.
type Date string

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date(s), nil
}

func (d Date) IsValid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

func (d Date) Before(other Date) bool {
	return d < other
}

func (d Date) After(other Date) bool {
	return d > other
}

// AddDays shifts the date by n calendar days. An invalid date is returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

// Time returns midnight UTC of the date.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return t, nil
}

func (d Date) String() string {
	return string(d)
}
