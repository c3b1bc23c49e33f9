package shares

import (
	"context"
	"errors"
	"math/bits"

	"proptoken-backend/internal/application/access"
	"proptoken-backend/internal/application/events"
	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/application/registry"
	"proptoken-backend/internal/application/settlement"
	"proptoken-backend/internal/domain"
	"proptoken-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

// Service owns per-investor holdings and the investor rosters.
type Service struct {
	Store      *ledger.Store
	Settlement *settlement.Adapter
}

// Purchase is the outcome of PurchaseShares.
type Purchase struct {
	PropertyID uint64                `json:"property_id"`
	Buyer      string                `json:"buyer"`
	Shares     uint64                `json:"shares"`
	TotalCost  uint64                `json:"total_cost"`
	Refunded   uint64                `json:"refunded"`
	Ownership  domain.ShareOwnership `json:"ownership"`
}

// PurchaseShares sells shares of an active property to buyer at the floor
// per-share price. Ledger writes, settlement and the event are one transaction.
func (s *Service) PurchaseShares(ctx context.Context, buyer string, propertyID, shares, tendered uint64) (*Purchase, error) {
	var out Purchase
	err := s.Store.Mutate(ctx, ledger.Op{Name: "purchaseShares", Guarded: true}, func(ctx context.Context, tx *gorm.DB) error {
		state, err := ledger.LoadState(tx)
		if err != nil {
			return err
		}
		if err := access.RequireNotPaused(state); err != nil {
			return err
		}
		if !validation.IsValidIdentity(buyer) {
			return ledger.Validation("buyer identity is invalid")
		}
		p, err := registry.FindProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return ledger.InvalidState("property %d is not active", propertyID)
		}
		if shares == 0 {
			return ledger.Validation("share count must be positive")
		}
		if shares > p.AvailableShares {
			return ledger.InvalidState("only %d shares of property %d are available", p.AvailableShares, propertyID)
		}
		cost, ok := mul(shares, p.PricePerShare)
		if !ok {
			return ledger.Validation("purchase cost overflows")
		}
		if tendered < cost {
			return ledger.Payment("tendered %d is below cost %d", tendered, cost)
		}

		if err := tx.Model(p).Update("available_shares", p.AvailableShares-shares).Error; err != nil {
			return err
		}
		own, err := s.credit(tx, p, buyer, shares, cost, true)
		if err != nil {
			return err
		}

		result, err := s.Settlement.CollectAndForward(ctx, tx, settlement.Collection{
			PropertyID: p.PropertyID,
			Payer:      buyer,
			Payee:      p.Owner,
			Required:   cost,
			Tendered:   tendered,
		})
		if err != nil {
			return err
		}

		if _, err := events.Append(ctx, tx, events.Entry{
			Type:       domain.EventSharesPurchased,
			PropertyID: &p.PropertyID,
			Actor:      buyer,
			Data: map[string]interface{}{
				"property_id": p.PropertyID,
				"buyer":       buyer,
				"shares":      shares,
				"cost":        cost,
			},
		}); err != nil {
			return err
		}
		out = Purchase{
			PropertyID: p.PropertyID,
			Buyer:      buyer,
			Shares:     shares,
			TotalCost:  cost,
			Refunded:   result.Refunded,
			Ownership:  *own,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TransferShares moves shares between investors. No value changes hands.
func (s *Service) TransferShares(ctx context.Context, from string, propertyID uint64, to string, shares uint64) error {
	return s.Store.Mutate(ctx, ledger.Op{Name: "transferShares"}, func(ctx context.Context, tx *gorm.DB) error {
		state, err := ledger.LoadState(tx)
		if err != nil {
			return err
		}
		if err := access.RequireNotPaused(state); err != nil {
			return err
		}
		p, err := registry.FindProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if to == "" || !validation.IsValidIdentity(to) {
			return ledger.Validation("recipient identity is invalid")
		}
		if to == from {
			return ledger.Validation("cannot transfer shares to yourself")
		}
		if shares == 0 {
			return ledger.Validation("share count must be positive")
		}

		sender, err := findOwnership(tx, propertyID, from)
		if err != nil {
			return err
		}
		if sender.Shares < shares {
			return ledger.Validation("sender holds %d shares, cannot transfer %d", sender.Shares, shares)
		}
		remaining := sender.Shares - shares
		if err := tx.Model(sender).Update("shares", remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := removeInvestor(tx, propertyID, from); err != nil {
				return err
			}
		}

		bookValue, ok := mul(shares, p.PricePerShare)
		if !ok {
			return ledger.Validation("transfer book value overflows")
		}
		if _, err := s.credit(tx, p, to, shares, bookValue, false); err != nil {
			return err
		}

		_, err = events.Append(ctx, tx, events.Entry{
			Type:       domain.EventSharesTransferred,
			PropertyID: &p.PropertyID,
			Actor:      from,
			Data: map[string]interface{}{
				"property_id": p.PropertyID,
				"from":        from,
				"to":          to,
				"shares":      shares,
			},
		})
		return err
	})
}

// credit adds shares to investor's holding. A missing or empty holding starts
// over with price as its purchase price and joins the roster; an existing one
// accumulates shares, and price too when accumulatePrice is set.
func (s *Service) credit(tx *gorm.DB, p *domain.Property, investor string, shares, price uint64, accumulatePrice bool) (*domain.ShareOwnership, error) {
	own, err := findOwnership(tx, p.PropertyID, investor)
	if err != nil {
		return nil, err
	}
	if own.Shares == 0 {
		fresh := domain.ShareOwnership{
			PropertyID:    p.PropertyID,
			Investor:      investor,
			Shares:        shares,
			PurchasePrice: price,
			PurchaseDate:  s.Store.Clock(),
		}
		if err := tx.Save(&fresh).Error; err != nil {
			return nil, err
		}
		if err := addInvestor(tx, p.PropertyID, investor); err != nil {
			return nil, err
		}
		return &fresh, nil
	}

	updates := map[string]interface{}{"shares": own.Shares + shares}
	if accumulatePrice {
		total, ok := add(own.PurchasePrice, price)
		if !ok {
			return nil, ledger.Validation("cumulative purchase price overflows")
		}
		updates["purchase_price"] = total
		own.PurchasePrice = total
	}
	if err := tx.Model(own).Updates(updates).Error; err != nil {
		return nil, err
	}
	own.Shares += shares
	return own, nil
}

func findOwnership(db *gorm.DB, propertyID uint64, investor string) (*domain.ShareOwnership, error) {
	var own domain.ShareOwnership
	err := db.Where("property_id = ? AND investor = ?", propertyID, investor).First(&own).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.ShareOwnership{PropertyID: propertyID, Investor: investor}, nil
	}
	if err != nil {
		return nil, err
	}
	return &own, nil
}

// GetShareOwnership returns investor's record; investors with no history get a zero record.
func (s *Service) GetShareOwnership(ctx context.Context, propertyID uint64, investor string) (*domain.ShareOwnership, error) {
	db := s.Store.DB.WithContext(ctx)
	if _, err := registry.FindProperty(db, propertyID); err != nil {
		return nil, err
	}
	return findOwnership(db, propertyID, investor)
}

// GetInvestorShares returns investor's share balance.
func (s *Service) GetInvestorShares(ctx context.Context, propertyID uint64, investor string) (uint64, error) {
	own, err := s.GetShareOwnership(ctx, propertyID, investor)
	if err != nil {
		return 0, err
	}
	return own.Shares, nil
}

// GetPropertyInvestors returns the roster. Order carries no meaning.
func (s *Service) GetPropertyInvestors(ctx context.Context, propertyID uint64) ([]string, error) {
	db := s.Store.DB.WithContext(ctx)
	if _, err := registry.FindProperty(db, propertyID); err != nil {
		return nil, err
	}
	return rosterOf(db, propertyID)
}

// GetInvestorPortfolio returns every nonzero holding of investor.
func (s *Service) GetInvestorPortfolio(ctx context.Context, investor string) ([]domain.ShareOwnership, error) {
	var out []domain.ShareOwnership
	if err := s.Store.DB.WithContext(ctx).
		Where("investor = ? AND shares > 0", investor).
		Order("property_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func mul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

func add(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}
