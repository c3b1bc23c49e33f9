package registry

import (
	"context"
	"errors"
	"testing"

	"proptoken-backend/internal/application/events"
	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"
	"proptoken-backend/internal/testutil/ledgertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	return &Service{Store: ledgertest.NewStore(t)}
}

func tokenize(t *testing.T, s *Service, value, shares uint64) *domain.Property {
	t.Helper()
	p, err := s.TokenizeProperty(context.Background(), ledgertest.Admin, TokenizeInput{
		Address:     "1 Marina Boulevard",
		TotalValue:  value,
		TotalShares: shares,
		MetadataURI: "ipfs://meta",
	})
	require.NoError(t, err)
	return p
}

func TestTokenizeProperty(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	id, err := s.GetCurrentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)

	p := tokenize(t, s, 1000, 10)
	assert.Equal(t, uint64(1), p.PropertyID)
	assert.Equal(t, uint64(10), p.AvailableShares)
	assert.Equal(t, uint64(100), p.PricePerShare)
	assert.True(t, p.IsActive)
	assert.Equal(t, ledgertest.Admin, p.Owner)

	second := tokenize(t, s, 100, 3)
	assert.Equal(t, uint64(2), second.PropertyID)
	assert.Equal(t, uint64(33), second.PricePerShare, "price per share is floored")

	id, err = s.GetCurrentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	got, err := s.GetProperty(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "1 Marina Boulevard", got.Address)

	list, err := (&events.Log{DB: s.Store.DB}).List(ctx, events.Query{EventType: domain.EventPropertyTokenized})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestTokenizeProperty_Rejections(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.TokenizeProperty(ctx, "mallory", TokenizeInput{Address: "x", TotalValue: 1, TotalShares: 1})
	assert.True(t, errors.Is(err, ledger.ErrAuthorization))

	cases := []TokenizeInput{
		{Address: "x", TotalValue: 0, TotalShares: 1},
		{Address: "x", TotalValue: 1, TotalShares: 0},
		{Address: "   ", TotalValue: 1, TotalShares: 1},
	}
	for _, in := range cases {
		_, err := s.TokenizeProperty(ctx, ledgertest.Admin, in)
		assert.True(t, errors.Is(err, ledger.ErrValidation), "input %+v", in)
	}

	id, err := s.GetCurrentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id, "rejected calls allocate no id")
}

func TestGetProperty_NotFound(t *testing.T) {
	s := newService(t)
	_, err := s.GetProperty(context.Background(), 42)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestDeactivateProperty(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	p := tokenize(t, s, 1000, 10)

	assert.True(t, errors.Is(s.DeactivateProperty(ctx, "mallory", p.PropertyID), ledger.ErrAuthorization))
	assert.True(t, errors.Is(s.DeactivateProperty(ctx, ledgertest.Admin, 99), ledger.ErrNotFound))

	require.NoError(t, s.DeactivateProperty(ctx, ledgertest.Admin, p.PropertyID))
	require.NoError(t, s.DeactivateProperty(ctx, ledgertest.Admin, p.PropertyID))

	got, err := s.GetProperty(ctx, p.PropertyID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := s.ListProperties(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := s.ListProperties(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestWithdrawUnsoldShares(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	p := tokenize(t, s, 1000, 10)

	_, err := s.WithdrawUnsoldShares(ctx, ledgertest.Admin, p.PropertyID)
	assert.True(t, errors.Is(err, ledger.ErrState), "active property")

	require.NoError(t, s.DeactivateProperty(ctx, ledgertest.Admin, p.PropertyID))
	_, err = s.WithdrawUnsoldShares(ctx, "mallory", p.PropertyID)
	assert.True(t, errors.Is(err, ledger.ErrAuthorization))

	n, err := s.WithdrawUnsoldShares(ctx, ledgertest.Admin, p.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), n)
	assert.False(t, s.Store.Guard().Held())

	got, err := s.GetProperty(ctx, p.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.AvailableShares)
	assert.Equal(t, uint64(10), got.TotalShares)

	_, err = s.WithdrawUnsoldShares(ctx, ledgertest.Admin, p.PropertyID)
	assert.True(t, errors.Is(err, ledger.ErrState), "nothing left to withdraw")
}

func TestUpdateMetadataURI(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	p := tokenize(t, s, 1000, 10)

	assert.True(t, errors.Is(s.UpdateMetadataURI(ctx, "mallory", p.PropertyID, "x"), ledger.ErrAuthorization))
	require.NoError(t, s.UpdateMetadataURI(ctx, ledgertest.Admin, p.PropertyID, "ipfs://v2"))

	got, err := s.GetProperty(ctx, p.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://v2", got.MetadataURI)
}
