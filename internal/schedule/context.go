package schedule

import (
	"log/slog"

	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/tournament"
)

// schedulingContext is the state of a single pass. It is owned by one
// Plan call and passed by reference to every checker and to the projector.
type schedulingContext struct {
	req          *Request
	date         string
	participants map[string]*tournament.Participant
	requests     map[string][]tournament.PersonRequest
	dependencies map[string]*Dependency
	logger       *slog.Logger

	profiles profileStore
	// notBefore holds the earliest start of a matchUp whose feeders have
	// been placed.
	notBefore map[string]string
	// potentials are individuals projected forward by placed or reserved
	// feeders.
	potentials map[string][]string
	// excluded are individuals known not to reach a matchUp because a
	// completed feeder sent them elsewhere.
	excluded map[string]map[string]bool
	// scheduleTimes holds start times of matchUps placed this pass and of
	// matchUps already scheduled on the date.
	scheduleTimes map[string]string
	// batch holds every matchUp on the date: already scheduled plus those
	// being scheduled.
	batch map[string]bool

	individuals map[string][]string
}

func newSchedulingContext(req *Request, participants map[string]*tournament.Participant, requests map[string][]tournament.PersonRequest, deps map[string]*Dependency, logger *slog.Logger) *schedulingContext {
	return &schedulingContext{
		req:           req,
		date:          clock.ExtractDate(req.ScheduleDate),
		participants:  participants,
		requests:      requests,
		dependencies:  deps,
		logger:        logger,
		profiles:      make(profileStore),
		notBefore:     make(map[string]string),
		potentials:    make(map[string][]string),
		excluded:      make(map[string]map[string]bool),
		scheduleTimes: make(map[string]string),
		batch:         make(map[string]bool),
		individuals:   make(map[string][]string),
	}
}

// individualIDs returns the individuals directly assigned to m.
func (sc *schedulingContext) individualIDs(m *tournament.MatchUp) []string {
	ids, ok := sc.individuals[m.MatchUpID]
	if !ok {
		ids = tournament.IndividualParticipantIDs(m, sc.participants)
		sc.individuals[m.MatchUpID] = ids
	}
	return ids
}

// potentialIDs returns the individuals who may reach m, either through its
// dependency chain or by projection, excluding those already assigned to m
// and those a completed feeder sent elsewhere.
func (sc *schedulingContext) potentialIDs(m *tournament.MatchUp) []string {
	actual := sc.individualIDs(m)
	var candidates []string
	if d := sc.dependencies[m.MatchUpID]; d != nil {
		candidates = append(candidates, d.ParticipantIDs...)
	}
	candidates = append(candidates, sc.potentials[m.MatchUpID]...)

	excluded := sc.excluded[m.MatchUpID]
	var ids []string
	for _, id := range candidates {
		if excluded[id] || contains(actual, id) || contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// relevantIDs is the set counted against daily limits: assigned plus
// projected individuals, deduplicated, minus those a completed feeder sent
// elsewhere.
func (sc *schedulingContext) relevantIDs(m *tournament.MatchUp) []string {
	var ids []string
	for _, id := range sc.individualIDs(m) {
		ids = appendUnique(ids, id)
	}
	for _, id := range sc.potentials[m.MatchUpID] {
		ids = appendUnique(ids, id)
	}
	excluded := sc.excluded[m.MatchUpID]
	if len(excluded) == 0 {
		return ids
	}
	kept := ids[:0]
	for _, id := range ids {
		if !excluded[id] {
			kept = append(kept, id)
		}
	}
	return kept
}

// timeAfterRecovery is when the individuals of m may start again if m starts
// at scheduleTime. An explicit end time takes precedence over the average
// duration.
func (sc *schedulingContext) timeAfterRecovery(m *tournament.MatchUp, scheduleTime string) string {
	recovery := sc.req.recoveryMinutes(m)
	if m.Schedule.EndTime != "" {
		if end, err := clock.ToMinutes(m.Schedule.EndTime); err == nil {
			return clock.FromMinutes(end + recovery)
		}
	}
	return clock.AddMinutes(scheduleTime, sc.req.averageMinutes(m)+recovery)
}

// durationOf is how long m occupies a court.
func (sc *schedulingContext) durationOf(m *tournament.MatchUp) int {
	if m.Schedule.EndTime != "" && m.Schedule.ScheduledTime != "" {
		start, err1 := clock.ToMinutes(m.Schedule.ScheduledTime)
		end, err2 := clock.ToMinutes(m.Schedule.EndTime)
		if err1 == nil && err2 == nil && end > start {
			return end - start
		}
	}
	return sc.req.averageMinutes(m)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func appendUnique(ids []string, id string) []string {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
