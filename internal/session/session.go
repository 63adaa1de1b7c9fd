package session

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15_04_05"
)

var tokenPattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})T(\d{2}_\d{2}_\d{2})`)

// Session is one recording bout for a subject.
type Session struct {
	Subject string
	// Date is the calendar date at midnight UTC.
	Date      time.Time
	DateToken string
	TimeToken string
	// Files keeps discovery order.
	Files []string
}

// ID returns the canonical session identifier: date digits, "T", time digits.
func (s Session) ID() string {
	return CanonicalID(s.DateToken, s.TimeToken)
}

// Key returns a "subject/session_id" string unique across a run.
func (s Session) Key() string {
	return s.Subject + "/" + s.ID()
}

// StartTime combines the date and time tokens into a UTC timestamp.
func (s Session) StartTime() time.Time {
	t, err := time.Parse(timeLayout, s.TimeToken)
	if err != nil {
		return s.Date
	}
	return s.Date.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second)
}

// CanonicalID strips separators from the date and time tokens.
func CanonicalID(dateToken, timeToken string) string {
	return strings.ReplaceAll(dateToken, "-", "") + "T" + strings.ReplaceAll(timeToken, "_", "")
}

// Token is the date/time token parsed from a filename.
type Token struct {
	Date      time.Time
	DateToken string
	TimeToken string
}

// ParseToken finds the first date/time token in the base name of path. ok is
// false when the name carries no token; err is set when a token is present
// but does not name a real calendar date or time of day.
func ParseToken(path string) (tok Token, ok bool, err error) {
	name := filepath.Base(path)
	m := tokenPattern.FindStringSubmatch(name)
	if m == nil {
		return Token{}, false, nil
	}
	date, err := time.Parse(dateLayout, m[1])
	if err != nil {
		return Token{}, true, fmt.Errorf("invalid date %q in %q: %w", m[1], name, err)
	}
	if _, err := time.Parse(timeLayout, m[2]); err != nil {
		return Token{}, true, fmt.Errorf("invalid time %q in %q: %w", m[2], name, err)
	}
	return Token{Date: date, DateToken: m[1], TimeToken: m[2]}, true, nil
}

// ParseDate parses a YYYY-MM-DD start-date bound.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(value))
}
