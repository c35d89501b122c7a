// Package provider orchestrates the deal aggregation pipeline for dashboard
// consumers: fetch raw records from the store partition a dashboard reads,
// normalize, enrich, window-filter, aggregate, and hand back a stable
// DashboardData shape under all inputs.
package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dealerpulse/dashboard-engine/internal/aggregate"
	"github.com/dealerpulse/dashboard-engine/internal/deal"
	"github.com/dealerpulse/dashboard-engine/internal/metrics"
	"github.com/dealerpulse/dashboard-engine/internal/store"
	"github.com/dealerpulse/dashboard-engine/internal/timewindow"
)

// DashboardType selects which dashboard a consumer is rendering and, with
// it, which store partition is read.
type DashboardType string

const (
	DashboardTypeSalesperson DashboardType = "salesperson"
	DashboardTypeManager     DashboardType = "manager"
	DashboardTypeDealership  DashboardType = "dealership"
)

// Manager-level roles receive the per-salesperson rollup.
var managerRoles = map[string]bool{
	"manager":         true,
	"general_manager": true,
	"finance_manager": true,
	"admin":           true,
}

// Options is the option set recognized by every dashboard entry point.
type Options struct {
	DashboardType   DashboardType      `json:"dashboard_type"`
	UserRole        string             `json:"user_role,omitempty"`
	ParticipantID   string             `json:"participant_id,omitempty"`
	TimePeriod      string             `json:"time_period,omitempty"`
	CustomRange     *timewindow.Window `json:"custom_range,omitempty"`
	IncludeInactive bool               `json:"include_inactive,omitempty"`
}

// DashboardData is the stable return shape every dashboard consumes.
type DashboardData struct {
	Deals              []deal.Enriched                `json:"deals"`
	Metrics            aggregate.Metrics              `json:"metrics"`
	SalespersonMetrics []aggregate.SalespersonMetrics `json:"salesperson_metrics,omitempty"`
	TimePeriod         string                         `json:"time_period"`
	PeriodLabel        string                         `json:"period_label"`
	LastUpdated        string                         `json:"last_updated"`
	Error              string                         `json:"error,omitempty"`
}

// ManagerDashboardData is the manager view: dealership-wide metrics plus the
// per-salesperson leaderboard.
type ManagerDashboardData struct {
	DashboardData
	DealershipID string `json:"dealership_id"`
}

// Config carries the engine knobs the provider needs.
type Config struct {
	GoalDeals         int
	RefreshInterval   time.Duration
	DefaultTimePeriod string
	CacheEnabled      bool
}

// Provider owns no persistent state of its own; it recomputes from whatever
// record slice the store returns at call time. The optional memoized cache
// is keyed on the record snapshot and the full option set.
type Provider struct {
	store     store.RecordStore
	notifier  store.ChangeNotifier
	collector *metrics.Collector
	logger    *zap.Logger

	cfg   Config
	cache *resultCache

	// now is the outermost clock boundary; everything below it receives the
	// reference time as a parameter.
	now func() time.Time
}

// New creates a dashboard data provider. The notifier and collector may be
// nil when change signals or instrumentation are not wired.
func New(recordStore store.RecordStore, notifier store.ChangeNotifier, collector *metrics.Collector, logger *zap.Logger, cfg Config) *Provider {
	if cfg.GoalDeals <= 0 {
		cfg.GoalDeals = aggregate.DefaultGoalDeals
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 30 * time.Second
	}
	if cfg.DefaultTimePeriod == "" {
		cfg.DefaultTimePeriod = string(timewindow.ThisMonth)
	}

	p := &Provider{
		store:     recordStore,
		notifier:  notifier,
		collector: collector,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	if cfg.CacheEnabled {
		p.cache = newResultCache()
	}
	return p
}

// GetDashboardData fetches the partition for a dashboard type and runs the
// full pipeline. The returned shape is complete under all inputs: a store
// failure yields zeroed metrics with Error set, never a missing structure.
func (p *Provider) GetDashboardData(ctx context.Context, dashboardType DashboardType, opts Options) DashboardData {
	opts.DashboardType = dashboardType
	now := p.now()

	raws, err := p.store.FetchRecords(ctx, PartitionFor(dashboardType))
	if err != nil {
		p.logger.Error("failed to fetch deal records",
			zap.String("dashboard_type", string(dashboardType)),
			zap.Error(err))
		return DashboardData{
			Deals:       []deal.Enriched{},
			TimePeriod:  p.timePeriod(opts),
			PeriodLabel: timewindow.Label(p.window(opts), now),
			LastUpdated: now.UTC().Format(time.RFC3339),
			Error:       err.Error(),
		}
	}

	if p.cache != nil {
		if key, ok := cacheKeyFor(raws, opts); ok {
			if data, hit := p.cache.get(key); hit {
				p.collector.ObserveCache(true)
				return data
			}
			p.collector.ObserveCache(false)

			data := p.AggregateDealsForDashboard(raws, opts)
			p.cache.set(key, data)
			return data
		}
	}

	return p.AggregateDealsForDashboard(raws, opts)
}

// AggregateDealsForDashboard runs the pipeline over an already-fetched raw
// record slice. It is pure apart from reading the provider clock once.
func (p *Provider) AggregateDealsForDashboard(raws []deal.RawRecord, opts Options) DashboardData {
	started := time.Now()
	now := p.now()

	deals := deal.NormalizeAll(raws)

	malformed := 0
	for _, d := range deals {
		if !d.IsActive {
			malformed++
		}
	}

	window := p.window(opts)
	inWindow := make([]deal.Deal, 0, len(deals))
	for _, d := range deals {
		if timewindow.InWindow(d.DealDate, window, now) {
			inWindow = append(inWindow, d)
		}
	}

	result := aggregate.Aggregate(inWindow, aggregate.Options{
		ParticipantID:            opts.ParticipantID,
		IncludeInactive:          opts.IncludeInactive,
		IncludeSalespersonRollup: p.wantsRollup(opts),
		GoalDeals:                p.cfg.GoalDeals,
	})

	p.collector.ObserveAggregation(string(opts.DashboardType), time.Since(started), len(raws), malformed)

	return DashboardData{
		Deals:              result.Deals,
		Metrics:            result.Metrics,
		SalespersonMetrics: result.SalespersonMetrics,
		TimePeriod:         p.timePeriod(opts),
		PeriodLabel:        timewindow.Label(window, now),
		LastUpdated:        now.UTC().Format(time.RFC3339),
		Error:              result.Err,
	}
}

// MapManagerDashboardData builds the manager view over an already-fetched
// raw record slice for one dealership.
func (p *Provider) MapManagerDashboardData(raws []deal.RawRecord, dealershipID, timePeriod string) ManagerDashboardData {
	data := p.AggregateDealsForDashboard(raws, Options{
		DashboardType: DashboardTypeManager,
		UserRole:      "manager",
		TimePeriod:    timePeriod,
	})

	return ManagerDashboardData{
		DashboardData: data,
		DealershipID:  dealershipID,
	}
}

// GetManagerDashboardData fetches the dealership-wide partition and builds
// the manager view. A store failure surfaces as zero records, keeping the
// shape contract intact.
func (p *Provider) GetManagerDashboardData(ctx context.Context, dealershipID, timePeriod string) ManagerDashboardData {
	raws, err := p.store.FetchRecords(ctx, store.PartitionDealership)
	if err != nil {
		p.logger.Error("failed to fetch deal records for manager dashboard",
			zap.String("dealership_id", dealershipID),
			zap.Error(err))
		raws = nil
	}
	return p.MapManagerDashboardData(raws, dealershipID, timePeriod)
}

// ClearCache drops every memoized result. Called on the sign-out equivalent
// event so no derived data outlives its session.
func (p *Provider) ClearCache() {
	if p.cache != nil {
		p.cache.clear()
	}
}

// PartitionFor resolves which store partition a dashboard type reads.
// Single-participant dashboards read a distinct partition from shared
// dealership-wide dashboards.
func PartitionFor(dashboardType DashboardType) string {
	if dashboardType == DashboardTypeSalesperson {
		return store.PartitionSalesperson
	}
	return store.PartitionDealership
}

func (p *Provider) wantsRollup(opts Options) bool {
	if opts.DashboardType == DashboardTypeManager || opts.DashboardType == DashboardTypeDealership {
		return true
	}
	return managerRoles[opts.UserRole]
}

func (p *Provider) timePeriod(opts Options) string {
	if opts.CustomRange != nil {
		return string(timewindow.Custom)
	}
	if opts.TimePeriod != "" {
		return opts.TimePeriod
	}
	return p.cfg.DefaultTimePeriod
}

func (p *Provider) window(opts Options) timewindow.Window {
	if opts.CustomRange != nil {
		return *opts.CustomRange
	}
	return timewindow.Named(p.timePeriod(opts))
}
