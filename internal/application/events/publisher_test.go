package events

import (
	"context"
	"testing"

	"proptoken-backend/internal/domain"
	"proptoken-backend/internal/testutil/ledgertest"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestRedisPublisher_AppendsToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	pub := &RedisPublisher{Rdb: rdb, MaxLen: 1000}
	id := uint64(7)
	evs := []domain.LedgerEvent{
		{EventID: uuid.New(), Sequence: 1, EventType: domain.EventPropertyTokenized, PropertyID: &id, Actor: "admin", EventData: datatypes.JSON(`{"property_id":7}`)},
		{EventID: uuid.New(), Sequence: 2, EventType: domain.EventPaused, Actor: "admin", EventData: datatypes.JSON(`{}`)},
	}
	require.NoError(t, pub.Publish(context.Background(), evs))

	msgs, err := rdb.XRange(context.Background(), DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].Values["sequence"])
	assert.Equal(t, "7", msgs[0].Values["property_id"])
	assert.Equal(t, `{"property_id":7}`, msgs[0].Values["data"])
	assert.Equal(t, domain.EventPaused, msgs[1].Values["event_type"])
	assert.Equal(t, "", msgs[1].Values["property_id"])
}

func TestRedisPublisher_WiredIntoStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := ledgertest.NewStore(t)
	store.Publisher = &RedisPublisher{Rdb: rdb, Stream: "test:events"}
	appendAll(t, store, Entry{Type: domain.EventPaused, Actor: ledgertest.Admin, Data: map[string]interface{}{"account": ledgertest.Admin}})

	n, err := rdb.XLen(context.Background(), "test:events").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
