package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dealerpulse/dashboard-engine/internal/deal"
)

// DealRecord is one durable raw deal record row. The payload is stored as
// written by the upstream application; the engine never migrates or repairs
// historical shapes in place.
type DealRecord struct {
	ID        string    `json:"id" gorm:"primarykey"`
	Partition string    `json:"partition" gorm:"not null;index"`
	Payload   []byte    `json:"payload" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostgresStore reads raw deal records from the durable store.
type PostgresStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPostgresStore creates a Postgres-backed record store.
func NewPostgresStore(db *gorm.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// FetchRecords reads every raw record in a partition in write order. Rows
// whose payload no longer decodes are passed through as empty records so the
// normalizer can mark them inactive instead of the store dropping them.
func (s *PostgresStore) FetchRecords(ctx context.Context, partition string) ([]deal.RawRecord, error) {
	var rows []DealRecord
	if err := s.db.WithContext(ctx).
		Where("partition = ?", partition).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read partition %s: %w", partition, err)
	}

	records := make([]deal.RawRecord, 0, len(rows))
	for _, row := range rows {
		var record deal.RawRecord
		if err := json.Unmarshal(row.Payload, &record); err != nil {
			s.logger.Warn("undecodable deal record payload",
				zap.String("record_id", row.ID),
				zap.String("partition", partition))
			record = deal.RawRecord{}
		}
		records = append(records, record)
	}

	return records, nil
}
