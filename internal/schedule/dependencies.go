package schedule

import (
	"slices"

	"github.com/courthive/dayplan/internal/ordering"
	"github.com/courthive/dayplan/internal/tournament"
)

// Dependency is the transitive precedence record of one matchUp.
type Dependency struct {
	// MatchUpIDs must be scheduled before this matchUp.
	MatchUpIDs []string
	// ParticipantIDs are the individuals who may reach this matchUp by
	// advancing through MatchUpIDs.
	ParticipantIDs []string
	// DependentMatchUpIDs are gated by this matchUp.
	DependentMatchUpIDs []string
}

type dependencySets struct {
	matchUpIDs     map[string]bool
	participantIDs map[string]bool
}

// BuildDependencies derives every matchUp's transitive dependencies from
// winner, loser and sides-to pointers. Each draw is sorted with cmp so that
// feeders fold into their targets before the targets fold further.
func BuildDependencies(matchUps []*tournament.MatchUp, cmp ordering.Comparator, participantsOf func(*tournament.MatchUp) []string) map[string]*Dependency {
	if cmp == nil {
		cmp = ordering.RoundPosition
	}

	sets := make(map[string]*dependencySets, len(matchUps))
	var drawOrder []string
	byDraw := make(map[string][]*tournament.MatchUp)
	for _, m := range matchUps {
		sets[m.MatchUpID] = &dependencySets{
			matchUpIDs:     make(map[string]bool),
			participantIDs: make(map[string]bool),
		}
		if _, ok := byDraw[m.DrawID]; !ok {
			drawOrder = append(drawOrder, m.DrawID)
		}
		byDraw[m.DrawID] = append(byDraw[m.DrawID], m)
	}

	for _, drawID := range drawOrder {
		drawMatchUps := slices.Clone(byDraw[drawID])
		slices.SortStableFunc(drawMatchUps, cmp)

		for _, m := range drawMatchUps {
			source := sets[m.MatchUpID]
			for _, targetID := range m.Targets() {
				target, ok := sets[targetID]
				if !ok {
					continue
				}
				for id := range source.matchUpIDs {
					target.matchUpIDs[id] = true
				}
				target.matchUpIDs[m.MatchUpID] = true
				for id := range source.participantIDs {
					target.participantIDs[id] = true
				}
				if participantsOf != nil {
					for _, id := range participantsOf(m) {
						target.participantIDs[id] = true
					}
				}
			}
		}
	}

	deps := make(map[string]*Dependency, len(sets))
	dependents := make(map[string]map[string]bool)
	for id, s := range sets {
		deps[id] = &Dependency{
			MatchUpIDs:     sortedKeys(s.matchUpIDs),
			ParticipantIDs: sortedKeys(s.participantIDs),
		}
		for upstream := range s.matchUpIDs {
			if dependents[upstream] == nil {
				dependents[upstream] = make(map[string]bool)
			}
			dependents[upstream][id] = true
		}
	}
	for id, d := range deps {
		d.DependentMatchUpIDs = sortedKeys(dependents[id])
	}
	return deps
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
