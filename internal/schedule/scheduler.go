package schedule

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/logging"
	"github.com/courthive/dayplan/internal/ordering"
	"github.com/courthive/dayplan/internal/tournament"
)

// Assignment pairs a matchUp with the slot it was given.
type Assignment struct {
	MatchUpID    string
	TournamentID string
	DrawID       string
	ScheduleTime string
	// ScheduledTime is the date-time written back on commit.
	ScheduledTime string
	// TimeAfterRecovery is when the matchUp's individuals may play again.
	TimeAfterRecovery string
	VenueID           string
	CourtID           string
}

// Ref addresses the assigned matchUp for mutation.
func (a Assignment) Ref() tournament.MatchUpRef {
	return tournament.MatchUpRef{TournamentID: a.TournamentID, DrawID: a.DrawID, MatchUpID: a.MatchUpID}
}

// Result is the plan produced by one pass. Every rejection is recorded here
// rather than returned as an error.
type Result struct {
	PlanID       string
	ScheduleDate string
	// VenueID is assigned on commit when exactly one venue is in play.
	VenueID     string
	Assignments []Assignment

	ScheduledMatchUpIDs   []string
	NoTimeMatchUpIDs      []string
	OverLimitMatchUpIDs   []string
	ParticipantIDsAtLimit []string
	// RequestConflicts is keyed by matchUp id.
	RequestConflicts map[string][]RequestConflict
	// MatchUpNotBeforeTimes is keyed by matchUp id.
	MatchUpNotBeforeTimes         map[string]string
	IndividualParticipantProfiles map[string]*Profile
	RemainingScheduleTimes        []Slot
	// RecoveryTimeDeferred holds the last slot time each matchUp was
	// refused for lack of recovery time.
	RecoveryTimeDeferred map[string]string
	// DependencyDeferred holds the last list of unscheduled dependencies
	// that held each matchUp back.
	DependencyDeferred      map[string][]string
	DateScheduledMatchUpIDs []string
}

// Options configure a Scheduler.
type Options struct {
	Logger *slog.Logger
	// Ordering sorts each draw for dependency resolution. Defaults to
	// ordering.RoundPosition.
	Ordering ordering.Comparator
}

// Scheduler assigns matchUps to time slots one day at a time.
type Scheduler struct {
	records  *tournament.Records
	ordering ordering.Comparator
	logger   *slog.Logger
}

// New creates a Scheduler reading from records.
func New(records *tournament.Records, opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	cmp := opts.Ordering
	if cmp == nil {
		cmp = ordering.RoundPosition
	}
	return &Scheduler{
		records:  records,
		ordering: cmp,
		logger:   logger.With("component", "scheduler"),
	}
}

// ScheduleMatchUps plans req and commits the plan through mut. On a commit
// failure the plan is returned alongside the error.
func (s *Scheduler) ScheduleMatchUps(req Request, mut tournament.Mutator) (*Result, error) {
	res, err := s.Plan(req)
	if err != nil {
		return nil, err
	}
	if err := s.Commit(res, mut); err != nil {
		return res, err
	}
	return res, nil
}

// Plan runs a scheduling pass without modifying any record. Only malformed
// input returns an error.
func (s *Scheduler) Plan(req Request) (*Result, error) {
	if err := req.validate(s.records); err != nil {
		return nil, err
	}
	date := clock.ExtractDate(req.ScheduleDate)
	logger := s.logger.With("date", date)

	all := s.records.AllMatchUps()
	byID := make(map[string]*tournament.MatchUp, len(all))
	var dateScheduled []*tournament.MatchUp
	for _, m := range all {
		byID[m.MatchUpID] = m
		if m.ScheduledOn(date) {
			dateScheduled = append(dateScheduled, m)
		}
	}
	participants := s.records.Participants()
	deps := BuildDependencies(all, s.ordering, func(m *tournament.MatchUp) []string {
		return tournament.IndividualParticipantIDs(m, participants)
	})

	sc := newSchedulingContext(&req, participants, s.records.PersonRequests(), deps, logger)

	pool := s.eligible(req.MatchUpIDs, byID)
	for _, m := range dateScheduled {
		sc.batch[m.MatchUpID] = true
	}
	for _, m := range pool {
		sc.batch[m.MatchUpID] = true
	}

	res := &Result{
		PlanID:                "plan_" + uuid.New().String(),
		ScheduleDate:          date,
		RequestConflicts:      make(map[string][]RequestConflict),
		RecoveryTimeDeferred:  make(map[string]string),
		DependencyDeferred:    make(map[string][]string),
		MatchUpNotBeforeTimes: sc.notBefore,
	}

	// Already scheduled matchUps are committed facts.
	seeded := make(map[string]string, len(dateScheduled))
	for _, m := range dateScheduled {
		t, err := clock.Normalize(m.Schedule.ScheduledTime)
		if err != nil {
			logger.Warn("ignoring unparseable scheduled time", "matchUpId", m.MatchUpID, "scheduledTime", m.Schedule.ScheduledTime)
			continue
		}
		seeded[m.MatchUpID] = t
	}
	slices.SortStableFunc(dateScheduled, func(a, b *tournament.MatchUp) int {
		if c := strings.Compare(seeded[a.MatchUpID], seeded[b.MatchUpID]); c != 0 {
			return c
		}
		return s.ordering(a, b)
	})
	for _, m := range dateScheduled {
		t, ok := seeded[m.MatchUpID]
		if !ok {
			continue
		}
		sc.scheduleTimes[m.MatchUpID] = t
		_, relevant := sc.checkDailyLimits(m)
		sc.reserve(m, relevant)
		sc.updateTimeAfterRecovery(m, t)
	}

	// Daily limits are settled before any slot is considered.
	reserved := make(map[string][]string)
	var remaining []*tournament.MatchUp
	atLimit := make(map[string]bool)
	for _, m := range pool {
		over, relevant := sc.checkDailyLimits(m)
		if len(over) > 0 {
			res.OverLimitMatchUpIDs = append(res.OverLimitMatchUpIDs, m.MatchUpID)
			for _, id := range over {
				if !atLimit[id] {
					atLimit[id] = true
					res.ParticipantIDsAtLimit = append(res.ParticipantIDsAtLimit, id)
				}
			}
			logger.Debug("matchUp over daily limit", "matchUpId", m.MatchUpID, "participantIds", over)
			continue
		}
		sc.reserve(m, relevant)
		reserved[m.MatchUpID] = relevant
		sc.projectParticipants(m)
		remaining = append(remaining, m)
	}

	venues := s.records.Venues(req.VenueIDs)
	slotResult := CalculateSlots(SlotRequest{
		ScheduleDate:   date,
		StartTime:      clock.ExtractTime(req.StartTime),
		EndTime:        clock.ExtractTime(req.EndTime),
		PeriodLength:   req.PeriodLength,
		AverageMinutes: req.AverageMatchUpMinutes,
		Venues:         venues,
		Scheduled:      dateScheduled,
		DurationOf:     sc.durationOf,
	})
	res.VenueID = slotResult.VenueID
	res.DateScheduledMatchUpIDs = slotResult.DateScheduledMatchUpIDs

	// Greedy first-fit: each slot goes to the first matchUp, in pool order,
	// that passes every check.
	queue := slotResult.Slots
	iterations := 0
	for len(queue) > 0 && len(remaining) > 0 && iterations <= len(slotResult.Slots) {
		iterations++
		slot := queue[0]
		queue = queue[1:]

		idx := -1
		for i, m := range remaining {
			ok, blockers := sc.checkDependenciesScheduled(m)
			if !ok {
				res.DependencyDeferred[m.MatchUpID] = blockers
				continue
			}
			if !sc.checkRecoveryTime(m, slot.ScheduleTime) {
				res.RecoveryTimeDeferred[m.MatchUpID] = slot.ScheduleTime
				continue
			}
			if conflicts := sc.checkRequestConflicts(m, slot.ScheduleTime); len(conflicts) > 0 {
				res.RequestConflicts[m.MatchUpID] = mergeConflicts(res.RequestConflicts[m.MatchUpID], conflicts)
				continue
			}
			idx = i
			break
		}
		if idx < 0 {
			res.RemainingScheduleTimes = append(res.RemainingScheduleTimes, slot)
			continue
		}

		m := remaining[idx]
		remaining = slices.Delete(remaining, idx, idx+1)
		sc.scheduleTimes[m.MatchUpID] = slot.ScheduleTime
		sc.updateTimeAfterRecovery(m, slot.ScheduleTime)

		res.Assignments = append(res.Assignments, Assignment{
			MatchUpID:         m.MatchUpID,
			TournamentID:      m.TournamentID,
			DrawID:            m.DrawID,
			ScheduleTime:      slot.ScheduleTime,
			ScheduledTime:     date + "T" + slot.ScheduleTime,
			TimeAfterRecovery: sc.timeAfterRecovery(m, slot.ScheduleTime),
			VenueID:           slot.VenueID,
			CourtID:           slot.CourtID,
		})
		res.ScheduledMatchUpIDs = append(res.ScheduledMatchUpIDs, m.MatchUpID)
		logger.Debug("matchUp placed", "matchUpId", m.MatchUpID, "time", slot.ScheduleTime, "courtId", slot.CourtID)
	}
	res.RemainingScheduleTimes = append(res.RemainingScheduleTimes, queue...)

	for _, m := range remaining {
		sc.release(m, reserved[m.MatchUpID])
		res.NoTimeMatchUpIDs = append(res.NoTimeMatchUpIDs, m.MatchUpID)
	}

	res.IndividualParticipantProfiles = sc.profiles

	logger.Info("scheduling pass complete",
		"plan_id", res.PlanID,
		"scheduled", len(res.ScheduledMatchUpIDs),
		"no_time", len(res.NoTimeMatchUpIDs),
		"over_limit", len(res.OverLimitMatchUpIDs),
		"slots", len(slotResult.Slots),
		"unused_slots", len(res.RemainingScheduleTimes))
	return res, nil
}

// eligible resolves ids to matchUps that can still be scheduled: known,
// not yet scheduled, not in a terminal status and without a winner.
func (s *Scheduler) eligible(ids []string, byID map[string]*tournament.MatchUp) []*tournament.MatchUp {
	seen := make(map[string]bool)
	var pool []*tournament.MatchUp
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		m, ok := byID[id]
		if !ok {
			s.logger.Debug("unknown matchUp", "matchUpId", id)
			continue
		}
		if m.IsScheduled() || tournament.IsTerminalStatus(m.Status) || m.WinningSide != 0 {
			continue
		}
		pool = append(pool, m)
	}
	return pool
}

// Commit writes every assignment through mut, and the venue when the plan
// has a single one.
func (s *Scheduler) Commit(res *Result, mut tournament.Mutator) error {
	for _, a := range res.Assignments {
		if err := mut.SetScheduledTime(a.Ref(), a.ScheduledTime); err != nil {
			return fmt.Errorf("setting scheduled time for %s: %w", a.MatchUpID, err)
		}
		if res.VenueID == "" {
			continue
		}
		if err := mut.AssignVenue(a.Ref(), res.VenueID); err != nil {
			return fmt.Errorf("assigning venue for %s: %w", a.MatchUpID, err)
		}
	}
	return nil
}
