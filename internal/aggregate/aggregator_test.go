package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerpulse/dashboard-engine/internal/deal"
)

func fundedDeal(id, salesperson string, front, back float64, products map[deal.Product]float64) deal.Deal {
	return deal.Deal{
		ID:                   id,
		Status:               deal.StatusFunded,
		VehicleType:          deal.VehicleTypeUsed,
		DealDate:             time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC),
		FrontEndGross:        front,
		BackEndGross:         back,
		TotalGross:           front + back,
		ProductProfits:       products,
		PrimaryParticipantID: salesperson,
		IsActive:             true,
	}
}

func TestAggregate_FundedDealSummary(t *testing.T) {
	deals := []deal.Deal{
		fundedDeal("1", "sp-1", 2000, 1000, map[deal.Product]float64{deal.ProductServiceContract: 500}),
		fundedDeal("2", "sp-1", 1500, 500, nil),
		fundedDeal("3", "sp-2", 1000, 0, nil),
	}

	res := Aggregate(deals, Options{})

	require.Empty(t, res.Err)
	assert.Equal(t, 3, res.Metrics.TotalDeals)
	assert.Equal(t, 3, res.Metrics.FundedDeals)
	assert.Equal(t, 0, res.Metrics.PendingDeals)
	assert.Equal(t, 1500.0, res.Metrics.TotalBackGross)
	assert.Equal(t, 500.0, res.Metrics.AvgBackGross)
	assert.Equal(t, 500.0, res.Metrics.TotalPVR)
	assert.InDelta(t, 500.0/3, res.Metrics.AvgPVR, 1e-9)
}

func TestAggregate_UnwoundDealsExcludedByDefault(t *testing.T) {
	unwound := fundedDeal("9", "sp-1", 3000, 2000, nil)
	unwound.Status = deal.StatusUnwound

	deals := []deal.Deal{
		fundedDeal("1", "sp-1", 2000, 1000, nil),
		unwound,
	}

	t.Run("Default Drops Unwound", func(t *testing.T) {
		res := Aggregate(deals, Options{})

		assert.Equal(t, 1, res.Metrics.TotalDeals)
		assert.Equal(t, 1000.0, res.Metrics.TotalBackGross)
		require.Len(t, res.Deals, 1)
		assert.Equal(t, "1", res.Deals[0].ID)
	})

	t.Run("IncludeInactive Keeps Unwound", func(t *testing.T) {
		res := Aggregate(deals, Options{IncludeInactive: true})

		assert.Equal(t, 2, res.Metrics.TotalDeals)
		assert.Equal(t, 3000.0, res.Metrics.TotalBackGross)
	})
}

func TestAggregate_InactiveDealsExcludedByDefault(t *testing.T) {
	malformed := deal.Deal{ID: "bad", IsActive: false, Error: "normalization failed"}

	res := Aggregate([]deal.Deal{
		fundedDeal("1", "sp-1", 2000, 1000, nil),
		malformed,
	}, Options{})

	assert.Equal(t, 1, res.Metrics.TotalDeals)
}

func TestAggregate_ParticipantScoping(t *testing.T) {
	split := fundedDeal("2", "sp-1", 1000, 800, nil)
	split.SecondaryParticipantID = "sp-2"
	split.IsSplitDeal = true

	deals := []deal.Deal{
		fundedDeal("1", "sp-1", 2000, 1000, nil),
		split,
		fundedDeal("3", "sp-3", 5000, 4000, nil),
	}

	res := Aggregate(deals, Options{ParticipantID: "sp-2"})

	require.Equal(t, 1, res.Metrics.TotalDeals, "only the split deal carries sp-2 credit")
	assert.Equal(t, 400.0, res.Metrics.TotalBackGross, "split credit halves the back gross")
	assert.Equal(t, 500.0, res.Metrics.TotalFrontGross)
}

func TestAggregate_EmptyInput(t *testing.T) {
	res := Aggregate(nil, Options{IncludeSalespersonRollup: true})

	assert.Empty(t, res.Err)
	assert.Zero(t, res.Metrics.TotalDeals)
	assert.Zero(t, res.Metrics.AvgFrontGross, "averages stay zero rather than dividing by zero")
	assert.Zero(t, res.Metrics.AvgPVR)
	assert.NotNil(t, res.Deals)
	assert.Empty(t, res.SalespersonMetrics)
}

func TestAggregate_Idempotent(t *testing.T) {
	deals := []deal.Deal{
		fundedDeal("1", "sp-1", 2000, 1000, map[deal.Product]float64{deal.ProductGapInsurance: 300}),
		fundedDeal("2", "sp-2", 1500, 500, nil),
	}
	opts := Options{IncludeSalespersonRollup: true}

	first := Aggregate(deals, opts)
	second := Aggregate(deals, opts)

	assert.Equal(t, first, second)
}

func TestRollup_UnknownBucket(t *testing.T) {
	orphan := fundedDeal("2", "", 1200, 600, nil)

	res := Aggregate([]deal.Deal{
		fundedDeal("1", "sp-1", 2000, 1000, nil),
		orphan,
	}, Options{IncludeSalespersonRollup: true})

	require.Len(t, res.SalespersonMetrics, 2)

	var found bool
	for _, row := range res.SalespersonMetrics {
		if row.ParticipantID == UnknownParticipant {
			found = true
			assert.Equal(t, 1, row.TotalDeals)
			assert.Equal(t, 600.0, row.TotalBackGross)
		}
	}
	assert.True(t, found, "deals without a participant roll into the unknown bucket")
}

func TestRollup_LeaderboardOrdering(t *testing.T) {
	res := Aggregate([]deal.Deal{
		fundedDeal("1", "sp-low", 500, 200, nil),
		fundedDeal("2", "sp-high", 4000, 2000, nil),
		fundedDeal("3", "sp-mid", 2000, 1000, nil),
	}, Options{IncludeSalespersonRollup: true})

	require.Len(t, res.SalespersonMetrics, 3)
	assert.Equal(t, "sp-high", res.SalespersonMetrics[0].ParticipantID)
	assert.Equal(t, "sp-mid", res.SalespersonMetrics[1].ParticipantID)
	assert.Equal(t, "sp-low", res.SalespersonMetrics[2].ParticipantID)
}

func TestRollup_StableTies(t *testing.T) {
	// Identical totals keep first-seen input order.
	res := Aggregate([]deal.Deal{
		fundedDeal("1", "sp-a", 1000, 500, nil),
		fundedDeal("2", "sp-b", 1000, 500, nil),
		fundedDeal("3", "sp-c", 1000, 500, nil),
	}, Options{IncludeSalespersonRollup: true})

	require.Len(t, res.SalespersonMetrics, 3)
	assert.Equal(t, "sp-a", res.SalespersonMetrics[0].ParticipantID)
	assert.Equal(t, "sp-b", res.SalespersonMetrics[1].ParticipantID)
	assert.Equal(t, "sp-c", res.SalespersonMetrics[2].ParticipantID)
}

func TestRollup_GoalPercentage(t *testing.T) {
	deals := make([]deal.Deal, 0, 3)
	for i := 0; i < 3; i++ {
		deals = append(deals, fundedDeal(string(rune('1'+i)), "sp-1", 1000, 500, nil))
	}

	t.Run("Default Goal", func(t *testing.T) {
		res := Aggregate(deals, Options{IncludeSalespersonRollup: true})

		require.Len(t, res.SalespersonMetrics, 1)
		assert.InDelta(t, 20.0, res.SalespersonMetrics[0].GoalPercentage, 1e-9)
	})

	t.Run("Configured Goal", func(t *testing.T) {
		res := Aggregate(deals, Options{IncludeSalespersonRollup: true, GoalDeals: 10})

		require.Len(t, res.SalespersonMetrics, 1)
		assert.InDelta(t, 30.0, res.SalespersonMetrics[0].GoalPercentage, 1e-9)
	})
}

func TestRollup_SplitDealWeighting(t *testing.T) {
	split := fundedDeal("1", "sp-1", 2000, 1000, nil)
	split.SecondaryParticipantID = "sp-2"
	split.IsSplitDeal = true

	res := Aggregate([]deal.Deal{split}, Options{IncludeSalespersonRollup: true})

	require.Len(t, res.SalespersonMetrics, 1)
	row := res.SalespersonMetrics[0]
	assert.Equal(t, "sp-1", row.ParticipantID)
	assert.Equal(t, 500.0, row.TotalBackGross, "the primary carries half the gross on a split deal")
}
