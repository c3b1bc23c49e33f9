package settlement

import (
	"context"
	"errors"
	"testing"

	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"
	"proptoken-backend/internal/testutil/ledgertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockTransferer struct {
	mock.Mock
}

func (m *mockTransferer) Name() string { return "mock" }

func (m *mockTransferer) Transfer(ctx context.Context, tx *gorm.DB, leg Leg) (string, error) {
	args := m.Called(ctx, tx, leg)
	return args.String(0), args.Error(1)
}

func collect(t *testing.T, store *ledger.Store, a *Adapter, c Collection) (*Result, error) {
	t.Helper()
	var res *Result
	err := store.Mutate(context.Background(), ledger.Op{Name: "collect", Guarded: true}, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		res, err = a.CollectAndForward(ctx, tx, c)
		return err
	})
	return res, err
}

func TestCollectAndForward_RunsLegsInOrder(t *testing.T) {
	store := ledgertest.NewStore(t)
	m := &mockTransferer{}
	var order []string
	m.On("Transfer", mock.Anything, mock.Anything, mock.AnythingOfType("settlement.Leg")).
		Run(func(args mock.Arguments) { order = append(order, args.Get(2).(Leg).Kind) }).
		Return("ref", nil)

	a := &Adapter{Transferer: m}
	res, err := collect(t, store, a, Collection{PropertyID: 1, Payer: "alice", Payee: "admin", Required: 500, Tendered: 600})
	require.NoError(t, err)
	assert.Equal(t, uint64(500), res.Forwarded)
	assert.Equal(t, uint64(100), res.Refunded)
	assert.Equal(t, []string{domain.LegCollect, domain.LegForward, domain.LegRefund}, order)

	m.AssertCalled(t, "Transfer", mock.Anything, mock.Anything, Leg{Kind: domain.LegCollect, PropertyID: 1, From: "alice", To: DefaultEscrow, Amount: 600})
	m.AssertCalled(t, "Transfer", mock.Anything, mock.Anything, Leg{Kind: domain.LegForward, PropertyID: 1, From: DefaultEscrow, To: "admin", Amount: 500})
	m.AssertCalled(t, "Transfer", mock.Anything, mock.Anything, Leg{Kind: domain.LegRefund, PropertyID: 1, From: DefaultEscrow, To: "alice", Amount: 100})

	var rows []domain.Settlement
	require.NoError(t, store.DB.Find(&rows).Error)
	assert.Len(t, rows, 3)
}

func TestCollectAndForward_ExactPaymentSkipsRefund(t *testing.T) {
	store := ledgertest.NewStore(t)
	m := &mockTransferer{}
	m.On("Transfer", mock.Anything, mock.Anything, mock.Anything).Return("ref", nil)

	res, err := collect(t, store, &Adapter{Transferer: m, Escrow: "escrow"}, Collection{PropertyID: 1, Payer: "alice", Payee: "admin", Required: 500, Tendered: 500})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Refunded)
	m.AssertNumberOfCalls(t, "Transfer", 2)
}

func TestCollectAndForward_Underpayment(t *testing.T) {
	store := ledgertest.NewStore(t)
	m := &mockTransferer{}
	_, err := collect(t, store, &Adapter{Transferer: m}, Collection{Payer: "alice", Payee: "admin", Required: 500, Tendered: 499})
	assert.True(t, errors.Is(err, ledger.ErrPayment))
	m.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything)
}

func TestCollectAndForward_LegFailureRollsBack(t *testing.T) {
	store := ledgertest.NewStore(t)
	m := &mockTransferer{}
	m.On("Transfer", mock.Anything, mock.Anything, mock.MatchedBy(func(l Leg) bool { return l.Kind == domain.LegCollect })).Return("ref", nil)
	m.On("Transfer", mock.Anything, mock.Anything, mock.MatchedBy(func(l Leg) bool { return l.Kind == domain.LegForward })).Return("", errors.New("payee rejected"))

	_, err := collect(t, store, &Adapter{Transferer: m}, Collection{PropertyID: 1, Payer: "alice", Payee: "admin", Required: 500, Tendered: 600})
	assert.True(t, errors.Is(err, ledger.ErrSettlement))
	assert.Contains(t, err.Error(), "payee rejected")

	var n int64
	require.NoError(t, store.DB.Model(&domain.Settlement{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestCollectAndForward_RequiresGuard(t *testing.T) {
	store := ledgertest.NewStore(t)
	a := &Adapter{Transferer: &mockTransferer{}}
	err := store.Mutate(context.Background(), ledger.Op{Name: "unguarded"}, func(ctx context.Context, tx *gorm.DB) error {
		_, err := a.CollectAndForward(ctx, tx, Collection{Required: 1, Tendered: 1})
		return err
	})
	assert.True(t, errors.Is(err, ledger.ErrState))
}
