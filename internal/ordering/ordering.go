package ordering

import (
	"cmp"
	"fmt"

	"github.com/courthive/dayplan/internal/tournament"
)

// Comparator orders matchUps within a draw so that every feeder sorts
// before the matchUp it feeds.
type Comparator func(a, b *tournament.MatchUp) int

// Default is the name of the ordering used when none is configured.
const Default = "round_position"

// Get returns a Comparator by name.
func Get(name string) (Comparator, error) {
	switch name {
	case "", Default:
		return RoundPosition, nil
	case "schedule_order":
		return InputOrder, nil
	default:
		return nil, fmt.Errorf("unknown ordering: %q", name)
	}
}

// RoundPosition sorts by round number, then round position, then id.
func RoundPosition(a, b *tournament.MatchUp) int {
	if c := cmp.Compare(a.RoundNumber, b.RoundNumber); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RoundPosition, b.RoundPosition); c != 0 {
		return c
	}
	return cmp.Compare(a.MatchUpID, b.MatchUpID)
}

// InputOrder treats every pair as equal, so a stable sort keeps the order
// the draw supplied.
func InputOrder(a, b *tournament.MatchUp) int {
	return 0
}
