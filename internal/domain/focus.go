package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

// FocusEntry is one recommended contact in a day's focus list.
type FocusEntry struct {
	CandidateID              uuid.UUID `json:"candidate_id"`
	Name                     string    `json:"name"`
	Phone                    string    `json:"phone,omitempty"`
	Reason                   string    `json:"reason"`
	PriorityScore            float64   `json:"priority_score"`
	DaysSinceLastInteraction int       `json:"days_since_last_interaction"`
	Draft                    string    `json:"draft,omitempty"`
}

type FocusList struct {
	TenantID    uuid.UUID    `json:"tenant_id"`
	Date        string       `json:"date"`
	Entries     []FocusEntry `json:"entries"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// StartOfDay truncates t to 00:00 UTC of its UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into 00:00 UTC of that day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return StartOfDay(t).Format(DateLayout)
}
