package schedule

import (
	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/tournament"
)

// RequestConflict is a do-not-schedule request that blocked a matchUp at a
// candidate time.
type RequestConflict struct {
	RequestID     string
	PersonID      string
	ParticipantID string
	ScheduleTime  string
	StartTime     string
	EndTime       string
	Potential     bool
}

// checkRequestConflicts returns every request of m's individuals on the
// pass date that intersects [scheduleTime, scheduleTime+average).
func (sc *schedulingContext) checkRequestConflicts(m *tournament.MatchUp, scheduleTime string) []RequestConflict {
	if len(sc.requests) == 0 {
		return nil
	}
	end := clock.AddMinutes(scheduleTime, sc.req.averageMinutes(m))

	var conflicts []RequestConflict
	check := func(participantID string, potential bool) {
		personID := tournament.PersonID(participantID, sc.participants)
		if personID == "" {
			return
		}
		for _, r := range sc.requests[personID] {
			if r.RequestType != tournament.DoNotSchedule {
				continue
			}
			if clock.ExtractDate(r.Date) != sc.date {
				continue
			}
			start, stop := clock.FromMinutes(clock.MustMinutes(r.StartTime)), clock.FromMinutes(clock.MustMinutes(r.EndTime))
			if !clock.Intersects(scheduleTime, end, start, stop) {
				continue
			}
			conflicts = append(conflicts, RequestConflict{
				RequestID:     r.RequestID,
				PersonID:      personID,
				ParticipantID: participantID,
				ScheduleTime:  scheduleTime,
				StartTime:     start,
				EndTime:       stop,
				Potential:     potential,
			})
		}
	}

	for _, id := range sc.individualIDs(m) {
		check(id, false)
	}
	if sc.req.CheckPotentialRequestConflicts {
		for _, id := range sc.potentialIDs(m) {
			check(id, true)
		}
	}
	return conflicts
}

// mergeConflicts appends conflicts not already recorded for the same
// request at the same time.
func mergeConflicts(existing, found []RequestConflict) []RequestConflict {
	for _, c := range found {
		dup := false
		for _, e := range existing {
			if e.RequestID == c.RequestID && e.ScheduleTime == c.ScheduleTime {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, c)
		}
	}
	return existing
}
