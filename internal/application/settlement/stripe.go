package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"proptoken-backend/internal/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/transfer"
	"github.com/stripe/stripe-go/v76/transferreversal"
	"gorm.io/gorm"
)

var ErrNoConnectedAccount = errors.New("no connected account for identity")

// StripeTransferer pays sellers through Stripe Connect transfers from the
// platform balance. Buyers tender from their wallet, which is only credited by
// verified payment_intent.succeeded webhooks, so collection and refunds stay in
// WalletAccount rows and the forward leg is the only one that leaves the ledger.
type StripeTransferer struct {
	SecretKey string
	Currency  string
	// Accounts maps ledger identities to connected account ids (acct_...).
	Accounts map[string]string
	// create and reverse are swapped in tests.
	create  func(params *stripe.TransferParams) (*stripe.Transfer, error)
	reverse func(params *stripe.TransferReversalParams) (*stripe.TransferReversal, error)
}

func (s *StripeTransferer) Name() string { return "stripe" }

// ValidateLegs checks configuration, destinations and amounts of the payout legs.
func (s *StripeTransferer) ValidateLegs(ctx context.Context, tx *gorm.DB, legs []Leg) error {
	for _, leg := range legs {
		if leg.Kind != domain.LegForward {
			continue
		}
		if s.SecretKey == "" {
			return errors.New("stripe settlement is not configured")
		}
		if _, ok := s.Accounts[leg.To]; !ok {
			return fmt.Errorf("%w: %s", ErrNoConnectedAccount, leg.To)
		}
		if leg.Amount > math.MaxInt64 {
			return fmt.Errorf("amount %d exceeds stripe limits", leg.Amount)
		}
	}
	return nil
}

func (s *StripeTransferer) Transfer(ctx context.Context, tx *gorm.DB, leg Leg) (string, error) {
	if leg.Kind != domain.LegForward {
		return WalletTransferer{}.Transfer(ctx, tx, leg)
	}
	if err := s.ValidateLegs(ctx, tx, []Leg{leg}); err != nil {
		return "", err
	}
	// The escrow wallet is drained by the amount paid out.
	if err := Withdraw(tx, leg.From, leg.Amount); err != nil {
		return "", err
	}
	currency := s.Currency
	if currency == "" {
		currency = "sgd"
	}

	params := &stripe.TransferParams{
		Amount:        stripe.Int64(int64(leg.Amount)),
		Currency:      stripe.String(currency),
		Destination:   stripe.String(s.Accounts[leg.To]),
		TransferGroup: stripe.String("property-" + strconv.FormatUint(leg.PropertyID, 10)),
	}
	params.Context = ctx
	params.AddMetadata("kind", leg.Kind)
	params.AddMetadata("from", leg.From)
	params.AddMetadata("to", leg.To)

	create := s.create
	if create == nil {
		stripe.Key = s.SecretKey
		create = transfer.New
	}
	tr, err := create(params)
	if err != nil {
		return "", err
	}
	return tr.ID, nil
}

// Reverse returns a completed payout to the platform balance. Wallet legs are
// undone by the ledger rollback.
func (s *StripeTransferer) Reverse(ctx context.Context, leg Leg, ref string) error {
	if leg.Kind != domain.LegForward {
		return nil
	}
	params := &stripe.TransferReversalParams{
		ID:     stripe.String(ref),
		Amount: stripe.Int64(int64(leg.Amount)),
	}
	params.Context = ctx
	params.AddMetadata("reason", "settlement_rollback")

	reverse := s.reverse
	if reverse == nil {
		stripe.Key = s.SecretKey
		reverse = transferreversal.New
	}
	_, err := reverse(params)
	return err
}
