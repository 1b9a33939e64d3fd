package schedule

import (
	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/tournament"
)

// checkDependenciesScheduled reports whether every dependency of m that is
// part of the day's batch has a start time, and lists those that do not.
func (sc *schedulingContext) checkDependenciesScheduled(m *tournament.MatchUp) (bool, []string) {
	d := sc.dependencies[m.MatchUpID]
	if d == nil {
		return true, nil
	}
	var remaining []string
	for _, id := range d.MatchUpIDs {
		if !sc.batch[id] {
			continue
		}
		if _, ok := sc.scheduleTimes[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	return len(remaining) == 0, remaining
}

// checkRecoveryTime reports whether m may start at scheduleTime without any
// of its individuals being booked during [scheduleTime, timeAfterRecovery).
//
// Assigned individuals are checked against all of their bookings and
// against potential bookings in other draws. Potential individuals are only
// checked against other draws: within a draw their progression is ordered by
// the not-before floor.
func (sc *schedulingContext) checkRecoveryTime(m *tournament.MatchUp, scheduleTime string) bool {
	if floor := sc.notBefore[m.MatchUpID]; floor != "" && scheduleTime < floor {
		return false
	}

	candidate := clock.Interval{
		Start: clock.MustMinutes(scheduleTime),
		End:   clock.MustMinutes(sc.timeAfterRecovery(m, scheduleTime)),
	}

	for _, id := range sc.individualIDs(m) {
		p := sc.profiles.lookup(id)
		if p == nil {
			continue
		}
		for _, b := range p.Bookings {
			if clock.Overlaps(candidate, b.interval()) {
				return false
			}
		}
		if overlapsOtherDraws(candidate, p.PotentialBookings, m.DrawID) {
			return false
		}
	}

	for _, id := range sc.potentialIDs(m) {
		p := sc.profiles.lookup(id)
		if p == nil {
			continue
		}
		for _, b := range p.Bookings {
			if b.DrawID == m.DrawID {
				continue
			}
			if clock.Overlaps(candidate, b.interval()) {
				return false
			}
		}
		if overlapsOtherDraws(candidate, p.PotentialBookings, m.DrawID) {
			return false
		}
	}
	return true
}

func overlapsOtherDraws(candidate clock.Interval, bookings map[string][]Booking, drawID string) bool {
	for d, list := range bookings {
		if d == drawID {
			continue
		}
		for _, b := range list {
			if clock.Overlaps(candidate, b.interval()) {
				return true
			}
		}
	}
	return false
}

// checkDailyLimits returns the relevant individuals of m and those among
// them already at the type or total limit.
func (sc *schedulingContext) checkDailyLimits(m *tournament.MatchUp) (atLimit, relevant []string) {
	relevant = sc.relevantIDs(m)
	limits := sc.req.MatchUpDailyLimits
	if len(limits) == 0 {
		return nil, relevant
	}
	typeLimit := limits[m.MatchUpType]
	totalLimit := limits[TotalKey]

	for _, id := range relevant {
		p := sc.profiles.lookup(id)
		if p == nil {
			continue
		}
		typeExceeded := typeLimit > 0 && p.Counters[m.MatchUpType] >= typeLimit
		totalExceeded := totalLimit > 0 && p.Counters[TotalKey] >= totalLimit
		if typeExceeded || totalExceeded {
			atLimit = append(atLimit, id)
		}
	}
	return atLimit, relevant
}

// reserve counts m against the daily limits of ids.
func (sc *schedulingContext) reserve(m *tournament.MatchUp, ids []string) {
	for _, id := range ids {
		sc.profiles.get(id).increment(m.MatchUpType)
	}
}

// release undoes reserve.
func (sc *schedulingContext) release(m *tournament.MatchUp, ids []string) {
	for _, id := range ids {
		if p := sc.profiles.lookup(id); p != nil {
			p.decrement(m.MatchUpType)
		}
	}
}
