package tournament

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ErrMatchUpNotFound is returned when a mutation addresses an unknown matchUp.
var ErrMatchUpNotFound = errors.New("matchUp not found")

// MatchUpRef addresses a matchUp inside a collection of tournament records.
type MatchUpRef struct {
	TournamentID string
	DrawID       string
	MatchUpID    string
}

// Mutator writes scheduling decisions back onto matchUp records. The
// scheduler never modifies a record directly.
type Mutator interface {
	SetScheduledTime(ref MatchUpRef, scheduledTime string) error
	AssignVenue(ref MatchUpRef, venueID string) error
}

// Record is a single tournament: its participants, venues, draws and
// person-level scheduling requests.
type Record struct {
	TournamentID   string                     `yaml:"tournament_id"`
	Participants   []Participant              `yaml:"participants"`
	Venues         []Venue                    `yaml:"venues"`
	Events         []Event                    `yaml:"events"`
	PersonRequests map[string][]PersonRequest `yaml:"person_requests,omitempty"`
}

// Index stamps tournament, event and draw ids onto every matchUp and gives
// requests without an id a generated one.
func (r *Record) Index() {
	for ei := range r.Events {
		ev := &r.Events[ei]
		for di := range ev.Draws {
			d := &ev.Draws[di]
			for mi := range d.MatchUps {
				m := &d.MatchUps[mi]
				m.TournamentID = r.TournamentID
				m.EventID = ev.EventID
				m.DrawID = d.DrawID
			}
		}
	}
	for personID, reqs := range r.PersonRequests {
		for i := range reqs {
			if reqs[i].RequestID == "" {
				reqs[i].RequestID = "req_" + uuid.New().String()
			}
		}
		r.PersonRequests[personID] = reqs
	}
}

func (r *Record) find(drawID, matchUpID string) *MatchUp {
	for ei := range r.Events {
		for di := range r.Events[ei].Draws {
			d := &r.Events[ei].Draws[di]
			if drawID != "" && d.DrawID != drawID {
				continue
			}
			for mi := range d.MatchUps {
				if d.MatchUps[mi].MatchUpID == matchUpID {
					return &d.MatchUps[mi]
				}
			}
		}
	}
	return nil
}

// Records is an in-memory collection of tournament records keyed by
// tournament id. It is safe for concurrent use; readers receive copies.
type Records struct {
	mu    sync.RWMutex
	byID  map[string]*Record
	order []string
}

// NewRecords indexes the given tournament records.
func NewRecords(records ...*Record) *Records {
	rs := &Records{byID: make(map[string]*Record)}
	for _, r := range records {
		r.Index()
		if _, ok := rs.byID[r.TournamentID]; !ok {
			rs.order = append(rs.order, r.TournamentID)
		}
		rs.byID[r.TournamentID] = r
	}
	return rs
}

// Len returns the number of tournament records.
func (rs *Records) Len() int {
	if rs == nil {
		return 0
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.byID)
}

// Tournaments returns the records in insertion order.
func (rs *Records) Tournaments() []*Record {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]*Record, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, rs.byID[id])
	}
	return out
}

// AllMatchUps returns copies of every matchUp across all records, grouped
// by draw in record order.
func (rs *Records) AllMatchUps() []*MatchUp {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var out []*MatchUp
	for _, id := range rs.order {
		r := rs.byID[id]
		for _, ev := range r.Events {
			for _, d := range ev.Draws {
				for _, m := range d.MatchUps {
					c := m
					out = append(out, &c)
				}
			}
		}
	}
	return out
}

// ScheduledOn returns copies of the matchUps scheduled on date.
func (rs *Records) ScheduledOn(date string) []*MatchUp {
	var out []*MatchUp
	for _, m := range rs.AllMatchUps() {
		if m.ScheduledOn(date) {
			out = append(out, m)
		}
	}
	return out
}

// Participants returns every participant keyed by participant id.
func (rs *Records) Participants() map[string]*Participant {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make(map[string]*Participant)
	for _, id := range rs.order {
		for _, p := range rs.byID[id].Participants {
			c := p
			out[p.ParticipantID] = &c
		}
	}
	return out
}

// PersonRequests merges every record's requests, keyed by person id.
func (rs *Records) PersonRequests() map[string][]PersonRequest {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make(map[string][]PersonRequest)
	for _, id := range rs.order {
		for personID, reqs := range rs.byID[id].PersonRequests {
			out[personID] = append(out[personID], reqs...)
		}
	}
	return out
}

// Venues returns the venues whose ids are listed, or all venues when ids is
// empty. Venues shared between tournaments are returned once.
func (rs *Records) Venues(ids []string) []Venue {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	seen := make(map[string]bool)
	var out []Venue
	for _, id := range rs.order {
		for _, v := range rs.byID[id].Venues {
			if seen[v.VenueID] {
				continue
			}
			if len(ids) > 0 && !slices.Contains(ids, v.VenueID) {
				continue
			}
			seen[v.VenueID] = true
			out = append(out, v)
		}
	}
	return out
}

// SetScheduledTime implements Mutator.
func (rs *Records) SetScheduledTime(ref MatchUpRef, scheduledTime string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	m, err := rs.lookup(ref)
	if err != nil {
		return err
	}
	m.Schedule.ScheduledTime = scheduledTime
	m.Schedule.ScheduledDate = dateOf(scheduledTime)
	return nil
}

// AssignVenue implements Mutator.
func (rs *Records) AssignVenue(ref MatchUpRef, venueID string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	m, err := rs.lookup(ref)
	if err != nil {
		return err
	}
	m.Schedule.VenueID = venueID
	return nil
}

func (rs *Records) lookup(ref MatchUpRef) (*MatchUp, error) {
	r, ok := rs.byID[ref.TournamentID]
	if !ok {
		return nil, fmt.Errorf("tournament %q: %w", ref.TournamentID, ErrMatchUpNotFound)
	}
	m := r.find(ref.DrawID, ref.MatchUpID)
	if m == nil {
		return nil, fmt.Errorf("%s: %w", ref.MatchUpID, ErrMatchUpNotFound)
	}
	return m, nil
}
