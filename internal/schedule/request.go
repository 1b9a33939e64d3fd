package schedule

import (
	"errors"
	"fmt"

	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/tournament"
)

// TotalKey is the counter key for matchUps of every type.
const TotalKey = "TOTAL"

// Input validation errors. Each is returned before any state changes.
var (
	ErrMissingTournamentRecords = errors.New("missing tournament records")
	ErrMissingMatchUpIDs        = errors.New("missing matchUpIds")
	ErrInvalidDate              = errors.New("invalid date")
	ErrInvalidTime              = errors.New("invalid time")
	ErrInvalidValues            = errors.New("invalid values")
	ErrOverlappingScope         = errors.New("overlapping scheduling scope")
)

// Request describes one day's scheduling pass.
type Request struct {
	ScheduleDate string
	// MatchUpIDs lists the matchUps to place, in priority order. An empty,
	// non-nil list is a valid no-op pass.
	MatchUpIDs []string
	// VenueIDs restricts the pass to these venues; empty means all venues.
	VenueIDs  []string
	StartTime string
	EndTime   string

	PeriodLength          int
	AverageMatchUpMinutes int
	RecoveryMinutes       int
	// Per-event and per-matchUp overrides of the average duration and of
	// the recovery time.
	EventAverageMinutes    map[string]int
	MatchUpAverageMinutes  map[string]int
	MatchUpRecoveryMinutes map[string]int

	// MatchUpDailyLimits is keyed by matchUp type and TotalKey. Missing or
	// zero entries are unlimited.
	MatchUpDailyLimits             map[string]int
	CheckPotentialRequestConflicts bool
}

func (r *Request) validate(records *tournament.Records) error {
	if records.Len() == 0 {
		return ErrMissingTournamentRecords
	}
	if r.MatchUpIDs == nil {
		return ErrMissingMatchUpIDs
	}
	if !clock.ValidDate(r.ScheduleDate) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, r.ScheduleDate)
	}
	if r.PeriodLength <= 0 || r.AverageMatchUpMinutes <= 0 || r.RecoveryMinutes < 0 {
		return fmt.Errorf("%w: periodLength %d, averageMatchUpMinutes %d, recoveryMinutes %d",
			ErrInvalidValues, r.PeriodLength, r.AverageMatchUpMinutes, r.RecoveryMinutes)
	}
	for _, m := range []map[string]int{r.EventAverageMinutes, r.MatchUpAverageMinutes, r.MatchUpRecoveryMinutes, r.MatchUpDailyLimits} {
		for k, v := range m {
			if v < 0 {
				return fmt.Errorf("%w: %s = %d", ErrInvalidValues, k, v)
			}
		}
	}
	for _, t := range []string{r.StartTime, r.EndTime} {
		if t == "" {
			continue
		}
		if _, err := clock.ToMinutes(t); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTime, err)
		}
	}
	for _, v := range records.Venues(r.VenueIDs) {
		for _, c := range v.Courts {
			for _, a := range c.Availability {
				if err := validWindow(a.StartTime, a.EndTime); err != nil {
					return fmt.Errorf("%w: venue %q court %q: %v", ErrInvalidTime, v.VenueID, c.CourtID, err)
				}
			}
		}
	}
	for personID, reqs := range records.PersonRequests() {
		for _, pr := range reqs {
			if pr.RequestType != tournament.DoNotSchedule {
				continue
			}
			if err := validWindow(pr.StartTime, pr.EndTime); err != nil {
				return fmt.Errorf("%w: request for person %q: %v", ErrInvalidTime, personID, err)
			}
		}
	}
	return nil
}

func validWindow(start, end string) error {
	if _, err := clock.ToMinutes(start); err != nil {
		return err
	}
	_, err := clock.ToMinutes(end)
	return err
}

// averageMinutes resolves the expected duration of m.
func (r *Request) averageMinutes(m *tournament.MatchUp) int {
	if v, ok := r.MatchUpAverageMinutes[m.MatchUpID]; ok && v > 0 {
		return v
	}
	if v, ok := r.EventAverageMinutes[m.EventID]; ok && v > 0 {
		return v
	}
	return r.AverageMatchUpMinutes
}

func (r *Request) recoveryMinutes(m *tournament.MatchUp) int {
	if v, ok := r.MatchUpRecoveryMinutes[m.MatchUpID]; ok {
		return v
	}
	return r.RecoveryMinutes
}
