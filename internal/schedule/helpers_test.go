package schedule

import (
	"github.com/courthive/dayplan/internal/logging"
	"github.com/courthive/dayplan/internal/ordering"
	"github.com/courthive/dayplan/internal/tournament"
)

const testDate = "2026-06-01"

func singles(id, drawID string, round, pos int, participantIDs ...string) tournament.MatchUp {
	m := tournament.MatchUp{
		MatchUpID:     id,
		MatchUpType:   tournament.Singles,
		DrawID:        drawID,
		RoundNumber:   round,
		RoundPosition: pos,
	}
	for i, pid := range participantIDs {
		if pid == "" {
			continue
		}
		m.Sides = append(m.Sides, tournament.Side{SideNumber: i + 1, ParticipantID: pid})
	}
	return m
}

func doubles(id, drawID string, round, pos int, pairIDs ...string) tournament.MatchUp {
	m := singles(id, drawID, round, pos, pairIDs...)
	m.MatchUpType = tournament.Doubles
	return m
}

func feeds(m tournament.MatchUp, winnerID string) tournament.MatchUp {
	m.WinnerMatchUpID = winnerID
	return m
}

func individuals(ids ...string) []tournament.Participant {
	var out []tournament.Participant
	for _, id := range ids {
		out = append(out, tournament.Participant{
			ParticipantID:   id,
			ParticipantType: tournament.Individual,
			PersonID:        "person-" + id,
		})
	}
	return out
}

func pair(id string, members ...string) tournament.Participant {
	return tournament.Participant{ParticipantID: id, ParticipantType: tournament.Pair, IndividualParticipantIDs: members}
}

func court(id, start, end string) tournament.Court {
	return tournament.Court{CourtID: id, Availability: []tournament.Availability{{StartTime: start, EndTime: end}}}
}

func venue(id string, courts ...tournament.Court) tournament.Venue {
	return tournament.Venue{VenueID: id, Courts: courts}
}

type fixture struct {
	participants []tournament.Participant
	venues       []tournament.Venue
	matchUps     []tournament.MatchUp
	requests     map[string][]tournament.PersonRequest
}

// records groups the fixture's matchUps into draws of a single event.
func (f fixture) records() *tournament.Records {
	var order []string
	byDraw := make(map[string][]tournament.MatchUp)
	for _, m := range f.matchUps {
		if _, ok := byDraw[m.DrawID]; !ok {
			order = append(order, m.DrawID)
		}
		byDraw[m.DrawID] = append(byDraw[m.DrawID], m)
	}
	var draws []tournament.Draw
	for _, id := range order {
		draws = append(draws, tournament.Draw{DrawID: id, MatchUps: byDraw[id]})
	}
	return tournament.NewRecords(&tournament.Record{
		TournamentID:   "t1",
		Participants:   f.participants,
		Venues:         f.venues,
		Events:         []tournament.Event{{EventID: "e1", Draws: draws}},
		PersonRequests: f.requests,
	})
}

func baseRequest(ids ...string) Request {
	if ids == nil {
		ids = []string{}
	}
	return Request{
		ScheduleDate:          testDate,
		MatchUpIDs:            ids,
		PeriodLength:          30,
		AverageMatchUpMinutes: 60,
		RecoveryMinutes:       30,
	}
}

// newTestContext builds a pass context around matchUps, all of which are
// treated as part of the day's batch.
func newTestContext(req Request, participants []tournament.Participant, requests map[string][]tournament.PersonRequest, matchUps ...*tournament.MatchUp) *schedulingContext {
	lookup := make(map[string]*tournament.Participant)
	for i := range participants {
		lookup[participants[i].ParticipantID] = &participants[i]
	}
	deps := BuildDependencies(matchUps, ordering.RoundPosition, func(m *tournament.MatchUp) []string {
		return tournament.IndividualParticipantIDs(m, lookup)
	})
	sc := newSchedulingContext(&req, lookup, requests, deps, logging.Discard())
	for _, m := range matchUps {
		sc.batch[m.MatchUpID] = true
	}
	return sc
}

func ids(matchUps ...*tournament.MatchUp) []string {
	var out []string
	for _, m := range matchUps {
		out = append(out, m.MatchUpID)
	}
	return out
}
