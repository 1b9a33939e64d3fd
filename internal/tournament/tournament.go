package tournament

import (
	"slices"
)

// MatchUp types.
const (
	Singles = "SINGLES"
	Doubles = "DOUBLES"
	Team    = "TEAM"
)

// Participant types.
const (
	Individual = "INDIVIDUAL"
	Pair       = "PAIR"
	TeamType   = "TEAM"
)

// DoNotSchedule is the only request type that blocks scheduling.
const DoNotSchedule = "DO_NOT_SCHEDULE"

// Statuses that are never scheduled.
var terminalStatuses = []string{
	"BYE",
	"COMPLETED",
	"ABANDONED",
	"RETIRED",
	"DEFAULTED",
	"WALKOVER",
	"DOUBLE_WALKOVER",
	"DOUBLE_DEFAULT",
	"CANCELLED",
}

// IsTerminalStatus reports whether a matchUp in this status can no longer be
// scheduled.
func IsTerminalStatus(status string) bool {
	return slices.Contains(terminalStatuses, status)
}

type Side struct {
	SideNumber               int      `yaml:"side_number"`
	ParticipantID            string   `yaml:"participant_id,omitempty"`
	IndividualParticipantIDs []string `yaml:"individual_participant_ids,omitempty"`
}

type Schedule struct {
	ScheduledDate string `yaml:"scheduled_date,omitempty"`
	ScheduledTime string `yaml:"scheduled_time,omitempty"`
	EndTime       string `yaml:"end_time,omitempty"`
	VenueID       string `yaml:"venue_id,omitempty"`
	CourtID       string `yaml:"court_id,omitempty"`
}

// MatchUp is a single contest between up to two sides.
type MatchUp struct {
	MatchUpID       string   `yaml:"matchup_id"`
	MatchUpType     string   `yaml:"matchup_type"`
	TournamentID    string   `yaml:"-"`
	EventID         string   `yaml:"-"`
	DrawID          string   `yaml:"-"`
	RoundNumber     int      `yaml:"round_number"`
	RoundPosition   int      `yaml:"round_position"`
	Sides           []Side   `yaml:"sides,omitempty"`
	WinnerMatchUpID string   `yaml:"winner_matchup_id,omitempty"`
	LoserMatchUpID  string   `yaml:"loser_matchup_id,omitempty"`
	SidesTo         []string `yaml:"sides_to,omitempty"`
	Status          string   `yaml:"status,omitempty"`
	WinningSide     int      `yaml:"winning_side,omitempty"`
	Schedule        Schedule `yaml:"schedule,omitempty"`
}

// Ref returns the identifiers needed to address this matchUp for mutation.
func (m *MatchUp) Ref() MatchUpRef {
	return MatchUpRef{TournamentID: m.TournamentID, DrawID: m.DrawID, MatchUpID: m.MatchUpID}
}

// Targets returns the matchUps this one feeds: winner, loser, then sides-to.
func (m *MatchUp) Targets() []string {
	var targets []string
	if m.WinnerMatchUpID != "" {
		targets = append(targets, m.WinnerMatchUpID)
	}
	if m.LoserMatchUpID != "" {
		targets = append(targets, m.LoserMatchUpID)
	}
	for _, id := range m.SidesTo {
		if id != "" {
			targets = append(targets, id)
		}
	}
	return targets
}

// ScheduledOn reports whether the matchUp has a scheduled time on date.
func (m *MatchUp) ScheduledOn(date string) bool {
	if m.Schedule.ScheduledTime == "" {
		return false
	}
	d := m.Schedule.ScheduledDate
	if d == "" {
		d = dateOf(m.Schedule.ScheduledTime)
	}
	return d == date
}

// IsScheduled reports whether the matchUp already carries a scheduled time.
func (m *MatchUp) IsScheduled() bool {
	return m.Schedule.ScheduledTime != ""
}

type Participant struct {
	ParticipantID            string   `yaml:"participant_id"`
	ParticipantType          string   `yaml:"participant_type"`
	PersonID                 string   `yaml:"person_id,omitempty"`
	IndividualParticipantIDs []string `yaml:"individual_participant_ids,omitempty"`
}

// Availability is a court's window for one date. An empty Date is the
// default for all dates.
type Availability struct {
	Date      string `yaml:"date,omitempty"`
	StartTime string `yaml:"start_time"`
	EndTime   string `yaml:"end_time"`
}

type Court struct {
	CourtID      string         `yaml:"court_id"`
	Availability []Availability `yaml:"availability"`
}

// WindowFor returns the court's availability on date, falling back to the
// default window when there is no date-specific entry.
func (c *Court) WindowFor(date string) (Availability, bool) {
	var fallback *Availability
	for i := range c.Availability {
		a := &c.Availability[i]
		if a.Date == date {
			return *a, true
		}
		if a.Date == "" && fallback == nil {
			fallback = a
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Availability{}, false
}

type Venue struct {
	VenueID string  `yaml:"venue_id"`
	Courts  []Court `yaml:"courts"`
}

// PersonRequest is a person-level blackout window.
type PersonRequest struct {
	RequestID   string `yaml:"request_id,omitempty"`
	RequestType string `yaml:"request_type"`
	Date        string `yaml:"date"`
	StartTime   string `yaml:"start_time"`
	EndTime     string `yaml:"end_time"`
}

type Draw struct {
	DrawID   string    `yaml:"draw_id"`
	MatchUps []MatchUp `yaml:"matchups"`
}

type Event struct {
	EventID string `yaml:"event_id"`
	Draws   []Draw `yaml:"draws"`
}

func dateOf(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 'T' {
			return s[:i]
		}
	}
	return ""
}
