// Package aggregate reduces enriched deal sets into the summary metrics the
// dashboards render. All reductions are pure functions of their input: two
// calls with the same deals and options produce identical results.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/dealerpulse/dashboard-engine/internal/deal"
)

// DefaultGoalDeals is the per-period deal goal used for goal percentage when
// no goal is configured.
const DefaultGoalDeals = 15

// UnknownParticipant is the rollup bucket for deals with no participant
// recorded. Such deals group here rather than being dropped.
const UnknownParticipant = "unknown"

// Options controls one aggregation pass.
type Options struct {
	// ParticipantID scopes the aggregation to deals the participant holds
	// credit on, with gross figures scaled by their credit share. Empty
	// means dashboard-wide.
	ParticipantID string

	// IncludeInactive keeps unwound, dead and unmappable deals in the set.
	IncludeInactive bool

	// IncludeSalespersonRollup adds the per-participant leaderboard.
	IncludeSalespersonRollup bool

	// GoalDeals is the per-period deal goal; zero means DefaultGoalDeals.
	GoalDeals int
}

// Metrics is the dashboard-wide summary over one deal set.
type Metrics struct {
	TotalDeals       int `json:"total_deals"`
	FundedDeals      int `json:"funded_deals"`
	PendingDeals     int `json:"pending_deals"`
	NewVehicleDeals  int `json:"new_vehicle_deals"`
	UsedVehicleDeals int `json:"used_vehicle_deals"`

	TotalFrontGross float64 `json:"total_front_gross"`
	TotalBackGross  float64 `json:"total_back_gross"`
	TotalGross      float64 `json:"total_gross"`
	AvgFrontGross   float64 `json:"avg_front_gross"`
	AvgBackGross    float64 `json:"avg_back_gross"`

	TotalPVR        float64 `json:"total_pvr"`
	AvgPVR          float64 `json:"avg_pvr"`
	ProductsPerDeal float64 `json:"products_per_deal"`
}

// SalespersonMetrics is one row of the per-participant rollup.
type SalespersonMetrics struct {
	ParticipantID  string  `json:"participant_id"`
	Metrics                `json:"metrics"`
	GoalPercentage float64 `json:"goal_percentage"`
}

// Result is the output of one aggregation pass. The shape is always fully
// populated: a failed reduction yields zeroed metrics and Err, never a
// partial or missing structure.
type Result struct {
	Deals              []deal.Enriched      `json:"deals"`
	Metrics            Metrics              `json:"metrics"`
	SalespersonMetrics []SalespersonMetrics `json:"salesperson_metrics,omitempty"`
	Err                string               `json:"error,omitempty"`
}

// Aggregate enriches and reduces a deal set per the options. Unexpected
// panics during reduction are converted into a zeroed-metrics Result with
// Err set; the function never panics past its own boundary.
func Aggregate(deals []deal.Deal, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Deals: []deal.Enriched{},
				Err:   fmt.Sprintf("aggregation failed: %v", r),
			}
		}
	}()

	included := make([]deal.Enriched, 0, len(deals))
	for _, d := range deals {
		e := deal.Enrich(d, opts.ParticipantID)

		if opts.ParticipantID != "" && !e.SplitCredit.HasCredit {
			continue
		}
		if !opts.IncludeInactive && (!e.IsActive || e.MetricFlags.ExcludeFromMetrics) {
			continue
		}

		included = append(included, e)
	}

	res = Result{
		Deals:   included,
		Metrics: reduce(included),
	}

	if opts.IncludeSalespersonRollup {
		res.SalespersonMetrics = rollupBySalesperson(included, opts.goalDeals())
	}

	return res
}

// reduce computes the summary metrics over an already-filtered deal set
// using credit-adjusted gross figures.
func reduce(deals []deal.Enriched) Metrics {
	var m Metrics
	var totalProducts int

	for _, e := range deals {
		m.TotalDeals++
		if e.MetricFlags.CountsForSold {
			m.FundedDeals++
		}
		if e.MetricFlags.CountsForTracking {
			m.PendingDeals++
		}
		if e.VehicleType == deal.VehicleTypeNew {
			m.NewVehicleDeals++
		} else {
			m.UsedVehicleDeals++
		}

		m.TotalFrontGross += e.AdjustedFrontGross
		m.TotalBackGross += e.AdjustedBackGross
		m.TotalGross += e.AdjustedTotalGross

		m.TotalPVR += dealPVR(e)
		totalProducts += len(e.ProductMix)
	}

	if m.TotalDeals > 0 {
		n := float64(m.TotalDeals)
		m.AvgFrontGross = m.TotalFrontGross / n
		m.AvgBackGross = m.TotalBackGross / n
		m.AvgPVR = m.TotalPVR / n
		m.ProductsPerDeal = float64(totalProducts) / n
	}

	return m
}

// dealPVR is a deal's back-end product profit normalized by product count,
// scaled by the participant's credit share. A deal with no attached
// products contributes zero.
func dealPVR(e deal.Enriched) float64 {
	var profit float64
	for _, p := range e.ProductMix {
		profit += p.Profit
	}

	count := len(e.ProductMix)
	if count < 1 {
		count = 1
	}

	scale := float64(e.SplitCredit.CreditPercentage) / 100
	return profit / float64(count) * scale
}

// rollupBySalesperson groups deals by primary participant, weighting each
// deal's financials by that participant's credit share, and orders the
// leaderboard descending by total gross with stable ties.
func rollupBySalesperson(deals []deal.Enriched, goalDeals int) []SalespersonMetrics {
	groups := make(map[string][]deal.Enriched)
	var order []string

	for _, e := range deals {
		id := e.PrimaryParticipantID
		if id == "" {
			id = UnknownParticipant
		}

		// Re-enrich against the group owner so split deals carry the
		// primary's 50% share into the group totals.
		weighted := e
		if id != UnknownParticipant {
			weighted = deal.Enrich(e.Deal, id)
		}

		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], weighted)
	}

	rollup := make([]SalespersonMetrics, 0, len(groups))
	for _, id := range order {
		m := reduce(groups[id])
		rollup = append(rollup, SalespersonMetrics{
			ParticipantID:  id,
			Metrics:        m,
			GoalPercentage: float64(m.TotalDeals) / float64(goalDeals) * 100,
		})
	}

	sort.SliceStable(rollup, func(i, j int) bool {
		return rollup[i].TotalGross > rollup[j].TotalGross
	})

	return rollup
}

func (o Options) goalDeals() int {
	if o.GoalDeals > 0 {
		return o.GoalDeals
	}
	return DefaultGoalDeals
}
