// Package store holds the external record store collaborators. The engine
// does not own persistence: it reads an already-written slice of raw deal
// records from a named logical partition and observes change signals. All
// storage errors surface to the engine as zero records, never as panics.
package store

import (
	"context"

	"github.com/dealerpulse/dashboard-engine/internal/deal"
)

// Well-known logical partitions. Single-participant dashboards read a
// distinct partition from shared dealership-wide dashboards.
const (
	PartitionSalesperson = "salesperson_deals"
	PartitionDealership  = "dealership_deals"
)

// RecordStore fetches raw deal records from a logical partition.
type RecordStore interface {
	FetchRecords(ctx context.Context, partition string) ([]deal.RawRecord, error)
}

// ChangeEvent signals that a partition's records changed upstream and any
// derived dashboard data is stale.
type ChangeEvent struct {
	Partition string `json:"partition"`
	DealID    string `json:"deal_id,omitempty"`
	Action    string `json:"action,omitempty"`
}

// ChangeNotifier delivers store change events until the context is
// cancelled. The returned channel is closed on cancellation.
type ChangeNotifier interface {
	Changes(ctx context.Context) (<-chan ChangeEvent, error)
}
