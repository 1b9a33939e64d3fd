package schedule

import (
	"github.com/courthive/dayplan/internal/clock"
)

// Booking is a participant's occupied interval for one matchUp, from its
// start until the participant has recovered.
type Booking struct {
	MatchUpID         string
	DrawID            string
	ScheduleTime      string
	TimeAfterRecovery string
}

func (b Booking) interval() clock.Interval {
	return clock.Interval{Start: clock.MustMinutes(b.ScheduleTime), End: clock.MustMinutes(b.TimeAfterRecovery)}
}

// Profile is one individual's state during a scheduling pass. Potential
// entries are keyed by draw id and record matchUps the individual may, but
// is not guaranteed to, reach.
type Profile struct {
	Counters          map[string]int
	TimeAfterRecovery string
	Bookings          []Booking
	PotentialRecovery map[string]string
	PotentialBookings map[string][]Booking
}

func newProfile() *Profile {
	return &Profile{
		Counters:          make(map[string]int),
		PotentialRecovery: make(map[string]string),
		PotentialBookings: make(map[string][]Booking),
	}
}

func (p *Profile) increment(matchUpType string) {
	p.Counters[matchUpType]++
	p.Counters[TotalKey]++
}

func (p *Profile) decrement(matchUpType string) {
	if p.Counters[matchUpType] > 0 {
		p.Counters[matchUpType]--
	}
	if p.Counters[TotalKey] > 0 {
		p.Counters[TotalKey]--
	}
}

func (p *Profile) book(b Booking) {
	p.Bookings = append(p.Bookings, b)
	p.TimeAfterRecovery = clock.Later(p.TimeAfterRecovery, b.TimeAfterRecovery)
}

func (p *Profile) bookPotential(b Booking) {
	p.PotentialBookings[b.DrawID] = append(p.PotentialBookings[b.DrawID], b)
	p.PotentialRecovery[b.DrawID] = clock.Later(p.PotentialRecovery[b.DrawID], b.TimeAfterRecovery)
}

// profileStore lazily creates profiles on first access.
type profileStore map[string]*Profile

func (s profileStore) get(participantID string) *Profile {
	p, ok := s[participantID]
	if !ok {
		p = newProfile()
		s[participantID] = p
	}
	return p
}

// lookup returns nil for participants without a profile.
func (s profileStore) lookup(participantID string) *Profile {
	return s[participantID]
}
