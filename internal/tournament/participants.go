package tournament

// IndividualParticipantIDs returns the individuals playing in m: the side
// participant for singles, the pair or team members otherwise. Sides that
// carry their own individual ids win over the participant lookup.
func IndividualParticipantIDs(m *MatchUp, participants map[string]*Participant) []string {
	var ids []string
	for _, side := range m.Sides {
		ids = appendUnique(ids, SideIndividualIDs(side, participants)...)
	}
	return ids
}

// SideIndividualIDs resolves one side to individual participant ids.
func SideIndividualIDs(side Side, participants map[string]*Participant) []string {
	if len(side.IndividualParticipantIDs) > 0 {
		return side.IndividualParticipantIDs
	}
	if side.ParticipantID == "" {
		return nil
	}
	p := participants[side.ParticipantID]
	if p != nil && p.ParticipantType != Individual && len(p.IndividualParticipantIDs) > 0 {
		return p.IndividualParticipantIDs
	}
	return []string{side.ParticipantID}
}

// WinnerAndLoserIDs splits a decided matchUp's individuals by outcome.
// Both are nil when the matchUp has no winning side.
func WinnerAndLoserIDs(m *MatchUp, participants map[string]*Participant) (winners, losers []string) {
	if m.WinningSide == 0 {
		return nil, nil
	}
	for _, side := range m.Sides {
		ids := SideIndividualIDs(side, participants)
		if side.SideNumber == m.WinningSide {
			winners = appendUnique(winners, ids...)
		} else {
			losers = appendUnique(losers, ids...)
		}
	}
	return winners, losers
}

// PersonID returns the person behind an individual participant.
func PersonID(participantID string, participants map[string]*Participant) string {
	if p := participants[participantID]; p != nil {
		return p.PersonID
	}
	return ""
}

func appendUnique(dst []string, ids ...string) []string {
	for _, id := range ids {
		found := false
		for _, d := range dst {
			if d == id {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, id)
		}
	}
	return dst
}
