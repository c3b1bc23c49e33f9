package settlement

import (
	"context"
	"errors"
	"fmt"

	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
)

// WalletTransferer keeps balances in WalletAccount rows of the ledger database.
type WalletTransferer struct{}

func (WalletTransferer) Name() string { return "wallet" }

func (WalletTransferer) Transfer(ctx context.Context, tx *gorm.DB, leg Leg) (string, error) {
	if err := Withdraw(tx, leg.From, leg.Amount); err != nil {
		return "", err
	}
	if err := Deposit(tx, leg.To, leg.Amount); err != nil {
		return "", err
	}
	return "wallet:" + uuid.NewString(), nil
}

// Withdraw debits identity's wallet.
func Withdraw(tx *gorm.DB, identity string, amount uint64) error {
	var acct domain.WalletAccount
	if err := tx.Where("identity = ?", identity).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrWalletNotFound, identity)
		}
		return err
	}
	if acct.Balance < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, identity, acct.Balance, amount)
	}
	return tx.Model(&acct).Update("balance", acct.Balance-amount).Error
}

// Deposit credits identity's wallet, opening it if needed.
func Deposit(tx *gorm.DB, identity string, amount uint64) error {
	var acct domain.WalletAccount
	err := tx.Where("identity = ?", identity).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&domain.WalletAccount{Identity: identity, Balance: amount}).Error
	}
	if err != nil {
		return err
	}
	if acct.Balance+amount < acct.Balance {
		return ledger.Validation("wallet %s balance would overflow", identity)
	}
	return tx.Model(&acct).Update("balance", acct.Balance+amount).Error
}

// Balance returns identity's wallet balance (0 when it has none).
func Balance(ctx context.Context, db *gorm.DB, identity string) (uint64, error) {
	var acct domain.WalletAccount
	err := db.WithContext(ctx).Where("identity = ?", identity).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}
