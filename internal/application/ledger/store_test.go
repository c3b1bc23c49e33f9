package ledger_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"
	"proptoken-backend/internal/testutil/ledgertest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	batches [][]domain.LedgerEvent
	err     error
}

func (p *recordingPublisher) Publish(ctx context.Context, evs []domain.LedgerEvent) error {
	p.batches = append(p.batches, evs)
	return p.err
}

func walletCount(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Model(&domain.WalletAccount{}).Count(&n).Error)
	return n
}

func TestMutate_Commits(t *testing.T) {
	store := ledgertest.NewStore(t)
	err := store.Mutate(context.Background(), ledger.Op{Name: "open"}, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Create(&domain.WalletAccount{Identity: "alice", Balance: 10}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), walletCount(t, store.DB))
}

func TestMutate_RollsBackOnError(t *testing.T) {
	store := ledgertest.NewStore(t)
	err := store.Mutate(context.Background(), ledger.Op{Name: "open"}, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Create(&domain.WalletAccount{Identity: "alice", Balance: 10}).Error; err != nil {
			return err
		}
		return ledger.Validation("nope")
	})
	assert.True(t, errors.Is(err, ledger.ErrValidation))
	assert.Equal(t, int64(0), walletCount(t, store.DB))
}

func TestMutate_RejectsNestedOperation(t *testing.T) {
	store := ledgertest.NewStore(t)
	var inner error
	err := store.Mutate(context.Background(), ledger.Op{Name: "outer"}, func(ctx context.Context, tx *gorm.DB) error {
		assert.True(t, ledger.InOperation(ctx))
		inner = store.Mutate(ctx, ledger.Op{Name: "inner"}, func(ctx context.Context, tx *gorm.DB) error {
			t.Fatal("nested operation must not run")
			return nil
		})
		return nil
	})
	require.NoError(t, err)
	assert.True(t, errors.Is(inner, ledger.ErrReentrancy))
	assert.Contains(t, inner.Error(), "outer")
}

func TestMutate_DetachedCallDuringGuardedOperationRejected(t *testing.T) {
	store := ledgertest.NewStore(t)
	var inner, plain error
	err := store.Mutate(context.Background(), ledger.Op{Name: "purchase", Guarded: true}, func(ctx context.Context, tx *gorm.DB) error {
		inner = store.Mutate(context.Background(), ledger.Op{Name: "purchase", Guarded: true}, func(ctx context.Context, tx *gorm.DB) error {
			t.Fatal("detached guarded operation must not run")
			return nil
		})
		plain = store.Mutate(context.Background(), ledger.Op{Name: "transfer"}, func(ctx context.Context, tx *gorm.DB) error {
			t.Fatal("detached operation must not run")
			return nil
		})
		return nil
	})
	require.NoError(t, err)
	assert.True(t, errors.Is(inner, ledger.ErrReentrancy))
	assert.True(t, errors.Is(plain, ledger.ErrReentrancy))
	assert.False(t, store.Guard().Held())

	require.NoError(t, store.Mutate(context.Background(), ledger.Op{Name: "after", Guarded: true}, func(ctx context.Context, tx *gorm.DB) error {
		return nil
	}))
}

func TestMutate_GuardReleasedOnEveryPath(t *testing.T) {
	store := ledgertest.NewStore(t)
	guarded := ledger.Op{Name: "guarded", Guarded: true}

	err := store.Mutate(context.Background(), guarded, func(ctx context.Context, tx *gorm.DB) error {
		assert.True(t, ledger.GuardHeld(ctx))
		assert.True(t, store.Guard().Held())
		return ledger.InvalidState("fail")
	})
	assert.Error(t, err)
	assert.False(t, store.Guard().Held())

	err = store.Mutate(context.Background(), guarded, func(ctx context.Context, tx *gorm.DB) error {
		return nil
	})
	require.NoError(t, err)
	assert.False(t, store.Guard().Held())

	err = store.Mutate(context.Background(), ledger.Op{Name: "plain"}, func(ctx context.Context, tx *gorm.DB) error {
		assert.False(t, ledger.GuardHeld(ctx))
		return nil
	})
	require.NoError(t, err)
}

func TestMutate_PublishesOnlyCommittedEvents(t *testing.T) {
	store := ledgertest.NewStore(t)
	pub := &recordingPublisher{}
	store.Publisher = pub

	record := func(fail bool) error {
		return store.Mutate(context.Background(), ledger.Op{Name: "emit"}, func(ctx context.Context, tx *gorm.DB) error {
			ledger.Record(ctx, domain.LedgerEvent{EventType: domain.EventPaused, Sequence: 1})
			if fail {
				return ledger.Validation("fail")
			}
			return nil
		})
	}

	require.Error(t, record(true))
	assert.Empty(t, pub.batches)

	require.NoError(t, record(false))
	require.Len(t, pub.batches, 1)
	assert.Equal(t, domain.EventPaused, pub.batches[0][0].EventType)
}

func TestMutate_PublishFailureDoesNotFailOperation(t *testing.T) {
	store := ledgertest.NewStore(t)
	store.Publisher = &recordingPublisher{err: errors.New("redis down")}
	err := store.Mutate(context.Background(), ledger.Op{Name: "emit"}, func(ctx context.Context, tx *gorm.DB) error {
		ledger.Record(ctx, domain.LedgerEvent{EventType: domain.EventPaused})
		return nil
	})
	assert.NoError(t, err)
}

func TestMutate_CountsOutcomes(t *testing.T) {
	store := ledgertest.NewStore(t)
	reg := prometheus.NewRegistry()
	m, err := ledger.NewMetrics(reg)
	require.NoError(t, err)
	store.Metrics = m

	ok := func(ctx context.Context, tx *gorm.DB) error { return nil }
	bad := func(ctx context.Context, tx *gorm.DB) error { return ledger.Payment("short") }
	boom := func(ctx context.Context, tx *gorm.DB) error { return errors.New("disk") }
	require.NoError(t, store.Mutate(context.Background(), ledger.Op{Name: "a"}, ok))
	require.NoError(t, store.Mutate(context.Background(), ledger.Op{Name: "a"}, ok))
	require.Error(t, store.Mutate(context.Background(), ledger.Op{Name: "b"}, bad))
	require.Error(t, store.Mutate(context.Background(), ledger.Op{Name: "c"}, boom))

	expected := `
# HELP ledger_operations_total Ledger mutations by operation and outcome (ok or error kind).
# TYPE ledger_operations_total counter
ledger_operations_total{operation="a",outcome="ok"} 2
ledger_operations_total{operation="b",outcome="PaymentError"} 1
ledger_operations_total{operation="c",outcome="internal"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "ledger_operations_total"))
}

func TestLoadState_Uninitialized(t *testing.T) {
	db := ledgertest.NewDB(t)
	_, err := ledger.LoadState(db)
	assert.True(t, errors.Is(err, ledger.ErrState))
}

func TestBootstrap_KeepsExistingAdministrator(t *testing.T) {
	db := ledgertest.NewDB(t)
	ctx := context.Background()

	_, err := ledger.Bootstrap(ctx, db, "")
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	state, err := ledger.Bootstrap(ctx, db, "first")
	require.NoError(t, err)
	assert.Equal(t, "first", state.Administrator)

	state, err = ledger.Bootstrap(ctx, db, "second")
	require.NoError(t, err)
	assert.Equal(t, "first", state.Administrator)
}
