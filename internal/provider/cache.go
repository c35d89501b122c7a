package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/dealerpulse/dashboard-engine/internal/deal"
)

// cacheKey identifies one memoized result. It covers both the raw-record
// snapshot and the full option set; reusing a result across windows or
// participants would be a correctness bug, not just staleness.
type cacheKey struct {
	snapshot        string
	dashboardType   DashboardType
	participantID   string
	userRole        string
	timePeriod      string
	customRange     string
	includeInactive bool
}

type resultCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]DashboardData
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[cacheKey]DashboardData)}
}

func (c *resultCache) get(key cacheKey) (DashboardData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *resultCache) set(key cacheKey, data DashboardData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]DashboardData)
}

// cacheKeyFor hashes the raw-record snapshot and combines it with the
// option fields that change the result. The second return is false when the
// snapshot cannot be hashed; such results are never cached.
func cacheKeyFor(raws []deal.RawRecord, opts Options) (cacheKey, bool) {
	payload, err := json.Marshal(raws)
	if err != nil {
		return cacheKey{}, false
	}
	sum := sha256.Sum256(payload)

	key := cacheKey{
		snapshot:        hex.EncodeToString(sum[:]),
		dashboardType:   opts.DashboardType,
		participantID:   opts.ParticipantID,
		userRole:        opts.UserRole,
		timePeriod:      opts.TimePeriod,
		includeInactive: opts.IncludeInactive,
	}
	if opts.CustomRange != nil {
		key.customRange = opts.CustomRange.Start.String() + "/" + opts.CustomRange.End.String()
	}
	return key, true
}
