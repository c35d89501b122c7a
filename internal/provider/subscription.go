package provider

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealerpulse/dashboard-engine/internal/store"
)

// Refresh triggers, used as the metric label.
const (
	triggerInitial = "initial"
	triggerPoll    = "poll"
	triggerChange  = "change"
)

// Subscription is a long-lived dashboard attachment. The pipeline re-runs on
// a fixed polling interval and whenever the store signals a change; each
// fresh DashboardData is delivered on Updates. Cancel detaches the consumer:
// the ticker stops, the channel closes, and no further results are delivered.
type Subscription struct {
	ID      string
	updates chan DashboardData
	cancel  context.CancelFunc
}

// Updates returns the channel of refreshed dashboard data. It is closed when
// the subscription is cancelled.
func (s *Subscription) Updates() <-chan DashboardData {
	return s.updates
}

// Cancel detaches the subscription.
func (s *Subscription) Cancel() {
	s.cancel()
}

// refreshResult pairs a computed result with its request generation so the
// delivery loop can discard refreshes superseded while in flight.
type refreshResult struct {
	generation uint64
	data       DashboardData
}

// Subscribe starts a long-lived subscription for one dashboard. An initial
// refresh is issued immediately.
func (p *Provider) Subscribe(ctx context.Context, dashboardType DashboardType, opts Options) *Subscription {
	ctx, cancel := context.WithCancel(ctx)

	sub := &Subscription{
		ID:      uuid.New().String(),
		updates: make(chan DashboardData, 1),
		cancel:  cancel,
	}

	p.collector.SubscriptionStarted()
	go p.runSubscription(ctx, sub, dashboardType, opts)

	return sub
}

// runSubscription owns the subscription lifecycle. Refresh computation runs
// in per-request goroutines so a slow store fetch never blocks the next
// trigger; results are serialized back through this loop, which enforces
// last-write-wins by request generation, not completion order.
func (p *Provider) runSubscription(ctx context.Context, sub *Subscription, dashboardType DashboardType, opts Options) {
	defer close(sub.updates)
	defer p.collector.SubscriptionEnded()

	ticker := time.NewTicker(p.cfg.RefreshInterval)
	defer ticker.Stop()

	var changes <-chan store.ChangeEvent
	if p.notifier != nil {
		ch, err := p.notifier.Changes(ctx)
		if err != nil {
			p.logger.Warn("change notifications unavailable, polling only",
				zap.String("subscription_id", sub.ID),
				zap.Error(err))
		} else {
			changes = ch
		}
	}

	partition := PartitionFor(dashboardType)
	results := make(chan refreshResult)

	var requested, delivered uint64
	start := func(trigger string) {
		requested++
		generation := requested
		p.collector.ObserveRefresh(trigger)

		go func() {
			data := p.GetDashboardData(ctx, dashboardType, opts)
			select {
			case results <- refreshResult{generation: generation, data: data}:
			case <-ctx.Done():
			}
		}()
	}

	start(triggerInitial)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			start(triggerPoll)

		case event, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if event.Partition == "" || event.Partition == partition {
				start(triggerChange)
			}

		case result := <-results:
			if result.generation <= delivered {
				p.collector.ObserveStaleRefresh()
				continue
			}
			delivered = result.generation
			deliver(sub.updates, result.data)
		}
	}
}

// deliver pushes a result without blocking the loop: if the consumer has not
// drained the previous update, it is replaced by the newer one.
func deliver(updates chan DashboardData, data DashboardData) {
	for {
		select {
		case updates <- data:
			return
		default:
			select {
			case <-updates:
			default:
			}
		}
	}
}
