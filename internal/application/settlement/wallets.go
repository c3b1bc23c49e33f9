package settlement

import (
	"context"
	"errors"

	"proptoken-backend/internal/application/access"
	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"
	"proptoken-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

// WalletService funds and reads internal wallet balances.
type WalletService struct {
	Store *ledger.Store
}

// Fund credits amount to identity's wallet. Administrator only.
func (w *WalletService) Fund(ctx context.Context, caller, identity string, amount uint64) (uint64, error) {
	var balance uint64
	err := w.Store.Mutate(ctx, ledger.Op{Name: "fundWallet"}, func(ctx context.Context, tx *gorm.DB) error {
		state, err := ledger.LoadState(tx)
		if err != nil {
			return err
		}
		if err := access.RequireAdministrator(state, caller); err != nil {
			return err
		}
		if !validation.IsValidIdentity(identity) {
			return ledger.Validation("wallet identity is invalid")
		}
		if amount == 0 {
			return ledger.Validation("amount must be positive")
		}
		if err := Deposit(tx, identity, amount); err != nil {
			return err
		}
		var acct domain.WalletAccount
		if err := tx.Where("identity = ?", identity).First(&acct).Error; err != nil {
			return err
		}
		balance = acct.Balance
		return nil
	})
	return balance, err
}

// Balance returns identity's wallet balance.
func (w *WalletService) Balance(ctx context.Context, identity string) (uint64, error) {
	return Balance(ctx, w.Store.DB, identity)
}

// CreditPayment deposits a confirmed payment into its identity's wallet. A
// payment intent that was already credited is skipped and reports false.
func (w *WalletService) CreditPayment(ctx context.Context, p domain.Payment) (bool, error) {
	credited := false
	err := w.Store.Mutate(ctx, ledger.Op{Name: "creditPayment"}, func(ctx context.Context, tx *gorm.DB) error {
		if p.StripePaymentIntentID == "" {
			return ledger.Validation("payment intent id is required")
		}
		if !validation.IsValidIdentity(p.Identity) {
			return ledger.Validation("wallet identity is invalid")
		}
		if p.AmountReceived == 0 {
			return ledger.Validation("amount must be positive")
		}
		var existing domain.Payment
		err := tx.Where("stripe_payment_intent_id = ?", p.StripePaymentIntentID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if err := Deposit(tx, p.Identity, p.AmountReceived); err != nil {
			return err
		}
		credited = true
		return nil
	})
	return credited, err
}
