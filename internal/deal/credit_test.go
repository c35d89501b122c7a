package deal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateCredit_NonSplit(t *testing.T) {
	d := Deal{PrimaryParticipantID: "sp-1"}

	t.Run("Primary Gets Full Credit", func(t *testing.T) {
		credit := AllocateCredit(d, "sp-1")
		assert.True(t, credit.HasCredit)
		assert.Equal(t, 100, credit.CreditPercentage)
		assert.Empty(t, credit.SplitWithID)
	})

	t.Run("Anyone Else Gets Nothing", func(t *testing.T) {
		credit := AllocateCredit(d, "sp-2")
		assert.False(t, credit.HasCredit)
		assert.Zero(t, credit.CreditPercentage)
	})
}

func TestAllocateCredit_Split(t *testing.T) {
	d := Deal{
		PrimaryParticipantID:   "sp-1",
		SecondaryParticipantID: "sp-2",
		IsSplitDeal:            true,
	}

	t.Run("Primary Gets Half", func(t *testing.T) {
		credit := AllocateCredit(d, "sp-1")
		assert.True(t, credit.HasCredit)
		assert.Equal(t, 50, credit.CreditPercentage)
		assert.Equal(t, "sp-2", credit.SplitWithID)
	})

	t.Run("Secondary Gets Half", func(t *testing.T) {
		credit := AllocateCredit(d, "sp-2")
		assert.True(t, credit.HasCredit)
		assert.Equal(t, 50, credit.CreditPercentage)
		assert.Equal(t, "sp-1", credit.SplitWithID)
	})

	t.Run("Third Party Gets Nothing", func(t *testing.T) {
		credit := AllocateCredit(d, "sp-3")
		assert.False(t, credit.HasCredit)
		assert.Zero(t, credit.CreditPercentage)
	})
}

func TestAllocateCredit_Conservation(t *testing.T) {
	t.Run("Split Deal Sums To 100", func(t *testing.T) {
		d := Deal{
			PrimaryParticipantID:   "sp-1",
			SecondaryParticipantID: "sp-2",
			IsSplitDeal:            true,
		}

		total := AllocateCredit(d, "sp-1").CreditPercentage + AllocateCredit(d, "sp-2").CreditPercentage
		assert.Equal(t, 100, total)
	})

	t.Run("Non-Split Deal Has Exactly One Full Credit", func(t *testing.T) {
		d := Deal{PrimaryParticipantID: "sp-1"}

		full := 0
		for _, id := range []string{"sp-1", "sp-2", "sp-3", "mgr-1"} {
			if AllocateCredit(d, id).CreditPercentage == 100 {
				full++
			} else {
				assert.Zero(t, AllocateCredit(d, id).CreditPercentage)
			}
		}
		assert.Equal(t, 1, full)
	})
}

func TestEnrich_AdjustsGrossByCredit(t *testing.T) {
	d := Deal{
		Status:                 StatusFunded,
		FrontEndGross:          2000,
		BackEndGross:           1000,
		TotalGross:             3000,
		PrimaryParticipantID:   "sp-1",
		SecondaryParticipantID: "sp-2",
		IsSplitDeal:            true,
		IsActive:               true,
	}

	t.Run("Split Participant Gets Half The Gross", func(t *testing.T) {
		e := Enrich(d, "sp-2")
		assert.Equal(t, 50, e.SplitCredit.CreditPercentage)
		assert.Equal(t, 500.0, e.AdjustedBackGross)
		assert.Equal(t, 1000.0, e.AdjustedFrontGross)
		assert.Equal(t, 1500.0, e.AdjustedTotalGross)
	})

	t.Run("No Participant Filter Keeps Full Gross", func(t *testing.T) {
		e := Enrich(d, "")
		assert.Equal(t, 100, e.SplitCredit.CreditPercentage)
		assert.Equal(t, 1000.0, e.AdjustedBackGross)
	})
}
