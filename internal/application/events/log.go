package events

import (
	"context"
	"encoding/json"
	"fmt"

	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// Entry is an event about to be appended.
type Entry struct {
	Type       string
	PropertyID *uint64
	Actor      string
	Data       map[string]interface{}
}

// Append writes an event inside tx, assigning it the next global sequence number,
// and registers it for publication once the operation commits.
func Append(ctx context.Context, tx *gorm.DB, e Entry) (*domain.LedgerEvent, error) {
	if err := tx.Model(&domain.RegistryState{}).
		Where("id = ?", domain.RegistryStateID).
		UpdateColumn("last_event_sequence", gorm.Expr("last_event_sequence + ?", 1)).Error; err != nil {
		return nil, fmt.Errorf("advance event sequence: %w", err)
	}
	state, err := ledger.LoadState(tx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Type, err)
	}
	ev := domain.LedgerEvent{
		Sequence:   state.LastEventSequence,
		EventType:  e.Type,
		PropertyID: e.PropertyID,
		Actor:      e.Actor,
		EventData:  datatypes.JSON(payload),
	}
	if err := tx.Create(&ev).Error; err != nil {
		return nil, err
	}
	ledger.Record(ctx, ev)
	return &ev, nil
}

// Query filters the event log. After is an exclusive sequence cursor.
type Query struct {
	PropertyID *uint64
	EventType  string
	After      uint64
	Limit      int
}

// Log reads the event log.
type Log struct {
	DB *gorm.DB
}

// List returns events in global order.
func (l *Log) List(ctx context.Context, q Query) ([]domain.LedgerEvent, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	db := l.DB.WithContext(ctx).Where("sequence > ?", q.After)
	if q.PropertyID != nil {
		db = db.Where("property_id = ?", *q.PropertyID)
	}
	if q.EventType != "" {
		db = db.Where("event_type = ?", q.EventType)
	}

	var out []domain.LedgerEvent
	if err := db.Order("sequence ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
