package member

import (
	"fmt"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 100
	MaxNotesLength = 4000
)

// Status values derived from the expiry date. Status is never persisted;
// it is computed on every read from expiry vs. the current date.
const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// DateLayout is the calendar-date form used for expiry throughout the system.
const DateLayout = "2006-01-02"

// ValidationError reports a user-correctable problem with a single field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Member holds state for a registered individual.
// PhotoPath is empty when no photo was supplied (stored as NULL);
// an empty string is the only sentinel for "no photo".
type Member struct {
	ID           string
	MembershipID string
	Name         string
	Email        string
	Phone        string
	Expiry       string // calendar date, DateLayout
	PhotoPath    string
	MemberURL    string
	Notes        string
	CreatedAt    time.Time
	RemindedAt   time.Time // zero until an expiry reminder has been sent
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns a *ValidationError if validation fails, nil otherwise
func (m *Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return &ValidationError{Field: "name", Msg: "cannot be empty"}
	}
	if len(m.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Msg: fmt.Sprintf("cannot exceed %d characters", MaxNameLength)}
	}
	if _, err := time.Parse(DateLayout, m.Expiry); err != nil {
		return &ValidationError{Field: "expiry", Msg: "must be a date in YYYY-MM-DD form"}
	}
	if m.Email != "" && !strings.Contains(m.Email, "@") {
		return &ValidationError{Field: "email", Msg: "must be a valid address"}
	}
	if len(m.Notes) > MaxNotesLength {
		return &ValidationError{Field: "notes", Msg: fmt.Sprintf("cannot exceed %d characters", MaxNotesLength)}
	}
	return nil
}

// StatusOn evaluates the member's status against the given instant.
// Expired iff the expiry date is strictly before now's calendar date;
// a membership expiring today is still active.
// INVARIANT: pure; no fields are mutated
func (m *Member) StatusOn(now time.Time) string {
	return EvaluateStatus(m.Expiry, now)
}

// EvaluateStatus computes active/expired from an expiry date and "now".
// DateLayout strings order lexicographically in calendar order, so a plain
// string comparison gives strict calendar-date semantics and time of day can
// never shift the result.
func EvaluateStatus(expiry string, now time.Time) string {
	if expiry < now.Format(DateLayout) {
		return StatusExpired
	}
	return StatusActive
}

// ExpiresWithin returns true if the expiry date falls between now's date and
// now+days inclusive. Already-expired members are excluded.
// INVARIANT: pure; calendar-date granularity
func (m *Member) ExpiresWithin(now time.Time, days int) bool {
	today := now.Format(DateLayout)
	horizon := now.AddDate(0, 0, days).Format(DateLayout)
	return m.Expiry >= today && m.Expiry <= horizon
}
