package schedule

import (
	"slices"

	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/tournament"
)

// Slot is a candidate start time on one court. Each slot takes at most one
// matchUp.
type Slot struct {
	ScheduleTime string
	VenueID      string
	CourtID      string
}

// SlotRequest describes the day whose capacity is being computed.
type SlotRequest struct {
	ScheduleDate   string
	StartTime      string // optional lower bound
	EndTime        string // optional upper bound
	PeriodLength   int
	AverageMinutes int
	Venues         []tournament.Venue
	// Scheduled are the matchUps already scheduled on ScheduleDate.
	Scheduled []*tournament.MatchUp
	// DurationOf returns the minutes a scheduled matchUp occupies its court.
	DurationOf func(*tournament.MatchUp) int
}

// SlotResult is the day's capacity net of existing bookings.
type SlotResult struct {
	Slots                   []Slot
	StartTime               string
	EndTime                 string
	DateScheduledMatchUpIDs []string
	// VenueID is set when exactly one venue is in play.
	VenueID string
}

type courtState struct {
	venueID  string
	courtID  string
	start    int
	end      int
	nextFree int
	busy     []clock.Interval
}

func (c *courtState) free(start, end int) bool {
	for _, b := range c.busy {
		if start < b.End && end > b.Start {
			return false
		}
	}
	return true
}

// CalculateSlots returns the day's slots in time order, then venue and
// court order. Courts are open for the union of their windows on the date,
// narrowed by the request's explicit bounds. Matchups already scheduled on
// a court block that court; venue-only matchUps take the first court of
// their venue that is free at their time.
func CalculateSlots(req SlotRequest) SlotResult {
	var result SlotResult
	for _, m := range req.Scheduled {
		result.DateScheduledMatchUpIDs = append(result.DateScheduledMatchUpIDs, m.MatchUpID)
	}
	if len(req.Venues) == 1 {
		result.VenueID = req.Venues[0].VenueID
	}
	if req.PeriodLength <= 0 || req.AverageMinutes <= 0 {
		return result
	}

	lower, upper := -1, -1
	if req.StartTime != "" {
		lower = clock.MustMinutes(req.StartTime)
	}
	if req.EndTime != "" {
		upper = clock.MustMinutes(req.EndTime)
	}

	var courts []*courtState
	dayStart, dayEnd := clock.MinutesPerDay, 0
	for _, v := range req.Venues {
		for _, c := range v.Courts {
			w, ok := c.WindowFor(req.ScheduleDate)
			if !ok {
				continue
			}
			start, end := clock.MustMinutes(w.StartTime), clock.MustMinutes(w.EndTime)
			if lower >= 0 && start < lower {
				start = lower
			}
			if upper >= 0 && end > upper {
				end = upper
			}
			if end <= start {
				continue
			}
			courts = append(courts, &courtState{
				venueID:  v.VenueID,
				courtID:  c.CourtID,
				start:    start,
				end:      end,
				nextFree: start,
			})
			dayStart = min(dayStart, start)
			dayEnd = max(dayEnd, end)
		}
	}
	if len(courts) == 0 {
		return result
	}
	result.StartTime = clock.FromMinutes(dayStart)
	result.EndTime = clock.FromMinutes(dayEnd)

	reserveScheduled(courts, req)

	for t := dayStart; t+req.AverageMinutes <= dayEnd; t += req.PeriodLength {
		end := t + req.AverageMinutes
		for _, c := range courts {
			if t < c.start || end > c.end || c.nextFree > t {
				continue
			}
			if !c.free(t, end) {
				continue
			}
			result.Slots = append(result.Slots, Slot{
				ScheduleTime: clock.FromMinutes(t),
				VenueID:      c.venueID,
				CourtID:      c.courtID,
			})
			c.nextFree = end
		}
	}
	return result
}

func reserveScheduled(courts []*courtState, req SlotRequest) {
	type booking struct {
		venueID string
		span    clock.Interval
	}
	var venueOnly []booking

	for _, m := range req.Scheduled {
		if m.Schedule.VenueID == "" {
			continue
		}
		start, err := clock.ToMinutes(m.Schedule.ScheduledTime)
		if err != nil {
			continue
		}
		duration := req.AverageMinutes
		if req.DurationOf != nil {
			duration = req.DurationOf(m)
		}
		span := clock.Interval{Start: start, End: start + duration}

		if m.Schedule.CourtID == "" {
			venueOnly = append(venueOnly, booking{m.Schedule.VenueID, span})
			continue
		}
		for _, c := range courts {
			if c.venueID == m.Schedule.VenueID && c.courtID == m.Schedule.CourtID {
				c.busy = append(c.busy, span)
				break
			}
		}
	}

	slices.SortStableFunc(venueOnly, func(a, b booking) int {
		return a.span.Start - b.span.Start
	})
	for _, b := range venueOnly {
		for _, c := range courts {
			if c.venueID != b.venueID {
				continue
			}
			if c.free(b.span.Start, b.span.End) {
				c.busy = append(c.busy, b.span)
				break
			}
		}
	}
}
