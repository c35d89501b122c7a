package deal

// AllocateCredit determines what fraction of a deal's financial credit
// belongs to the queried participant.
//
// Non-split deals are binary: 100% to the exact primary participant match,
// 0% to anyone else. Split deals allocate 50/50 between the primary and
// secondary participants, with SplitWithID naming whichever of the two is
// not the queried participant.
//
// The signature stays participant-at-a-time so a future weighted-participant
// list can replace the fixed 50/50 without touching callers.
func AllocateCredit(d Deal, participantID string) SplitCredit {
	if !d.IsSplitDeal {
		if participantID != "" && participantID == d.PrimaryParticipantID {
			return SplitCredit{HasCredit: true, CreditPercentage: 100}
		}
		return SplitCredit{}
	}

	switch participantID {
	case "":
		return SplitCredit{}
	case d.PrimaryParticipantID:
		return SplitCredit{HasCredit: true, CreditPercentage: 50, SplitWithID: d.SecondaryParticipantID}
	case d.SecondaryParticipantID:
		return SplitCredit{HasCredit: true, CreditPercentage: 50, SplitWithID: d.PrimaryParticipantID}
	default:
		return SplitCredit{}
	}
}
