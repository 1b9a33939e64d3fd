package schedule

import (
	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/tournament"
)

// projectParticipants appends m's relevant individuals to the potential
// lists of the matchUps it feeds. Lists accumulate across feeders. When m
// already has a winner, only the winning side goes to the winner target and
// only the losing side to the loser target; the other side is excluded from
// that target.
func (sc *schedulingContext) projectParticipants(m *tournament.MatchUp) {
	ids := sc.relevantIDs(m)
	winners, losers := tournament.WinnerAndLoserIDs(m, sc.participants)

	project := func(targetID string, ids []string) {
		for _, id := range ids {
			sc.potentials[targetID] = appendUnique(sc.potentials[targetID], id)
		}
	}
	exclude := func(targetID string, ids []string) {
		if len(ids) == 0 {
			return
		}
		if sc.excluded[targetID] == nil {
			sc.excluded[targetID] = make(map[string]bool)
		}
		for _, id := range ids {
			sc.excluded[targetID][id] = true
		}
	}

	decided := m.WinningSide != 0
	if m.WinnerMatchUpID != "" {
		if decided {
			project(m.WinnerMatchUpID, winners)
			exclude(m.WinnerMatchUpID, losers)
		} else {
			project(m.WinnerMatchUpID, ids)
		}
	}
	if m.LoserMatchUpID != "" {
		if decided {
			project(m.LoserMatchUpID, losers)
			exclude(m.LoserMatchUpID, winners)
		} else {
			project(m.LoserMatchUpID, ids)
		}
	}
	for _, targetID := range m.SidesTo {
		if targetID != "" {
			project(targetID, ids)
		}
	}
}

// updateTimeAfterRecovery records m starting at scheduleTime: actual
// bookings for its assigned individuals, potential bookings in m's draw for
// those who may reach it, raised not-before floors on its targets, and the
// forward projection of its individuals.
func (sc *schedulingContext) updateTimeAfterRecovery(m *tournament.MatchUp, scheduleTime string) {
	after := sc.timeAfterRecovery(m, scheduleTime)
	booking := Booking{
		MatchUpID:         m.MatchUpID,
		DrawID:            m.DrawID,
		ScheduleTime:      scheduleTime,
		TimeAfterRecovery: after,
	}

	for _, id := range sc.individualIDs(m) {
		sc.profiles.get(id).book(booking)
	}
	for _, id := range sc.potentialIDs(m) {
		sc.profiles.get(id).bookPotential(booking)
	}

	for _, targetID := range m.Targets() {
		sc.notBefore[targetID] = clock.Later(sc.notBefore[targetID], after)
	}

	sc.projectParticipants(m)
}
