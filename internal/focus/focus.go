// Package focus computes a tenant's daily focus list.
//
// The computation is a pure function of its Input: the same tenant, date,
// configuration, candidates and action log always produce the same ordered
// list. Nothing here touches a store.
//
// Ordering is by priority score (days since last interaction) descending,
// then by candidate ID ascending.
package focus

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
)

type Input struct {
	TenantID   uuid.UUID
	AsOf       time.Time
	Config     domain.IndustryConfig
	Candidates []domain.Candidate
	ActionLog  []domain.ActionLogEntry
}

const secondsPerDay = 24 * 60 * 60

// DaysSince returns the whole UTC days between last's calendar day and asOf's.
// It works on Unix seconds so dates centuries apart do not saturate a Duration.
func DaysSince(last, asOf time.Time) int {
	return int((domain.StartOfDay(asOf).Unix() - domain.StartOfDay(last).Unix()) / secondsPerDay)
}

// CandidateCutoff returns the instant before which a last interaction must
// fall for a candidate to possibly exceed threshold. Stores use it to narrow
// their reads; Compute applies the exact rule.
func CandidateCutoff(asOf time.Time, threshold float64) time.Time {
	return domain.StartOfDay(asOf).AddDate(0, 0, -int(math.Floor(threshold)))
}

// FatigueWindow returns the half-open [from, to) interval in which an action
// log entry suppresses a candidate. An entry suppresses only while its age in
// calendar days is below cooldownDays, so an entry exactly cooldownDays old
// falls outside. Entries at or after the top of asOf's day are not part of
// that day's snapshot.
func FatigueWindow(asOf time.Time, cooldownDays int) (from, to time.Time) {
	to = domain.StartOfDay(asOf)
	return to.AddDate(0, 0, 1-cooldownDays), to
}

// Compute returns at most Config.MaxListSize candidates to contact on AsOf.
func Compute(in Input) ([]domain.FocusEntry, error) {
	if in.TenantID == uuid.Nil {
		return nil, &domain.NotFoundError{Resource: "tenant", ID: in.TenantID.String()}
	}
	if err := in.Config.Validate(); err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.TenantID = in.TenantID
		}
		return nil, err
	}

	asOf := domain.StartOfDay(in.AsOf)
	threshold := in.Config.Threshold()

	fatigued := fatigueSet(in.TenantID, in.ActionLog, asOf, in.Config.CooldownDays)

	entries := make([]domain.FocusEntry, 0)
	for _, c := range in.Candidates {
		if c.TenantID != in.TenantID {
			continue
		}
		if c.LastInteractionAt == nil {
			continue
		}
		days := DaysSince(*c.LastInteractionAt, asOf)
		if float64(days) <= threshold {
			continue
		}
		if _, ok := fatigued[c.ID]; ok {
			continue
		}
		if !c.Status.Eligible() {
			continue
		}
		entries = append(entries, domain.FocusEntry{
			CandidateID:              c.ID,
			Name:                     c.Name,
			Phone:                    c.Phone,
			Reason:                   reason(in.Config.ThresholdRule, days, threshold),
			PriorityScore:            float64(days),
			DaysSinceLastInteraction: days,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].PriorityScore != entries[j].PriorityScore {
			return entries[i].PriorityScore > entries[j].PriorityScore
		}
		return entries[i].CandidateID.String() < entries[j].CandidateID.String()
	})

	if len(entries) > in.Config.MaxListSize {
		entries = entries[:in.Config.MaxListSize]
	}
	return entries, nil
}

func fatigueSet(tenantID uuid.UUID, log []domain.ActionLogEntry, asOf time.Time, cooldownDays int) map[uuid.UUID]struct{} {
	from, to := FatigueWindow(asOf, cooldownDays)
	set := make(map[uuid.UUID]struct{})
	for _, e := range log {
		if e.TenantID != tenantID {
			continue
		}
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		set[e.CandidateID] = struct{}{}
	}
	return set
}

func reason(rule string, days int, threshold float64) string {
	return fmt.Sprintf("no interaction for %d days (%s %s)", days, rule, formatThreshold(threshold))
}

func formatThreshold(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
