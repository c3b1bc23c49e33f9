package settlement

import (
	"context"
	"errors"
	"testing"

	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"
	"proptoken-backend/internal/testutil/ledgertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWalletTransferer(t *testing.T) {
	store := ledgertest.NewStore(t)
	db := store.DB
	ctx := context.Background()
	require.NoError(t, Deposit(db, "alice", 100))

	w := WalletTransferer{}
	ref, err := w.Transfer(ctx, db, Leg{Kind: domain.LegCollect, From: "alice", To: "escrow", Amount: 60})
	require.NoError(t, err)
	assert.Contains(t, ref, "wallet:")

	alice, err := Balance(ctx, db, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(40), alice)
	escrow, err := Balance(ctx, db, "escrow")
	require.NoError(t, err)
	assert.Equal(t, uint64(60), escrow)

	_, err = w.Transfer(ctx, db, Leg{From: "alice", To: "escrow", Amount: 41})
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	_, err = w.Transfer(ctx, db, Leg{From: "nobody", To: "escrow", Amount: 1})
	assert.True(t, errors.Is(err, ErrWalletNotFound))

	none, err := Balance(ctx, db, "nobody")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), none)
}

func TestWalletService_Fund(t *testing.T) {
	store := ledgertest.NewStore(t)
	svc := &WalletService{Store: store}
	ctx := context.Background()

	_, err := svc.Fund(ctx, "mallory", "alice", 10)
	assert.True(t, errors.Is(err, ledger.ErrAuthorization))
	_, err = svc.Fund(ctx, ledgertest.Admin, "alice", 0)
	assert.True(t, errors.Is(err, ledger.ErrValidation))
	_, err = svc.Fund(ctx, ledgertest.Admin, "not valid", 10)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	bal, err := svc.Fund(ctx, ledgertest.Admin, "alice", 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), bal)
	bal, err = svc.Fund(ctx, ledgertest.Admin, "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), bal)

	got, err := svc.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(15), got)
}

func TestWalletTransferer_PurchaseFlow(t *testing.T) {
	store := ledgertest.NewStore(t)
	require.NoError(t, Deposit(store.DB, "alice", 1000))
	a := &Adapter{Transferer: WalletTransferer{}}

	err := store.Mutate(context.Background(), ledger.Op{Name: "collect", Guarded: true}, func(ctx context.Context, tx *gorm.DB) error {
		_, err := a.CollectAndForward(ctx, tx, Collection{PropertyID: 1, Payer: "alice", Payee: "admin", Required: 300, Tendered: 350})
		return err
	})
	require.NoError(t, err)

	ctx := context.Background()
	alice, _ := Balance(ctx, store.DB, "alice")
	admin, _ := Balance(ctx, store.DB, "admin")
	escrow, _ := Balance(ctx, store.DB, DefaultEscrow)
	assert.Equal(t, uint64(700), alice)
	assert.Equal(t, uint64(300), admin)
	assert.Equal(t, uint64(0), escrow)
}

func TestWalletService_CreditPayment(t *testing.T) {
	store := ledgertest.NewStore(t)
	svc := &WalletService{Store: store}
	ctx := context.Background()

	p := domain.Payment{
		StripePaymentIntentID: "pi_1",
		StripeEventID:         "evt_1",
		Identity:              "alice",
		AmountReceived:        700,
		Currency:              "sgd",
		Status:                "succeeded",
		RawPaymentIntent:      []byte(`{}`),
	}
	credited, err := svc.CreditPayment(ctx, p)
	require.NoError(t, err)
	assert.True(t, credited)

	credited, err = svc.CreditPayment(ctx, p)
	require.NoError(t, err)
	assert.False(t, credited, "same intent is credited once")

	bal, err := svc.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(700), bal)

	bad := p
	bad.StripePaymentIntentID = "pi_2"
	bad.AmountReceived = 0
	_, err = svc.CreditPayment(ctx, bad)
	assert.True(t, errors.Is(err, ledger.ErrValidation))
	bad.AmountReceived = 1
	bad.Identity = ""
	_, err = svc.CreditPayment(ctx, bad)
	assert.True(t, errors.Is(err, ledger.ErrValidation))
}
