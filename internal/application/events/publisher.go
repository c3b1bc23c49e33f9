package events

import (
	"context"
	"strconv"

	"proptoken-backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream committed events are appended to.
const DefaultStream = "ledger:events"

// RedisPublisher appends committed events to a Redis stream for external indexers.
type RedisPublisher struct {
	Rdb    *redis.Client
	Stream string
	MaxLen int64
}

func (p *RedisPublisher) Publish(ctx context.Context, evs []domain.LedgerEvent) error {
	stream := p.Stream
	if stream == "" {
		stream = DefaultStream
	}
	pipe := p.Rdb.Pipeline()
	for _, ev := range evs {
		var propertyID string
		if ev.PropertyID != nil {
			propertyID = strconv.FormatUint(*ev.PropertyID, 10)
		}
		args := &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{
				"event_id":    ev.EventID.String(),
				"sequence":    strconv.FormatUint(ev.Sequence, 10),
				"event_type":  ev.EventType,
				"property_id": propertyID,
				"actor":       ev.Actor,
				"data":        string(ev.EventData),
			},
		}
		if p.MaxLen > 0 {
			args.MaxLen = p.MaxLen
			args.Approx = true
		}
		pipe.XAdd(ctx, args)
	}
	_, err := pipe.Exec(ctx)
	return err
}
