package registry

import (
	"context"
	"errors"

	"proptoken-backend/internal/application/access"
	"proptoken-backend/internal/application/events"
	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"
	"proptoken-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

// Service owns the property catalog.
type Service struct {
	Store *ledger.Store
}

// TokenizeInput carries the attributes of a new property.
type TokenizeInput struct {
	Address     string
	TotalValue  uint64
	TotalShares uint64
	MetadataURI string
}

// TokenizeProperty registers a property with every share available. The
// tokenizing administrator becomes the property's owner and payee.
func (s *Service) TokenizeProperty(ctx context.Context, caller string, in TokenizeInput) (*domain.Property, error) {
	var out domain.Property
	err := s.Store.Mutate(ctx, ledger.Op{Name: "tokenizeProperty"}, func(ctx context.Context, tx *gorm.DB) error {
		state, err := ledger.LoadState(tx)
		if err != nil {
			return err
		}
		if err := access.RequireAdministrator(state, caller); err != nil {
			return err
		}
		if in.TotalValue == 0 {
			return ledger.Validation("total value must be positive")
		}
		if in.TotalShares == 0 {
			return ledger.Validation("total shares must be positive")
		}
		if !validation.IsValidAddress(in.Address) {
			return ledger.Validation("property address is required")
		}

		id := state.LastPropertyID + 1
		if err := tx.Model(state).UpdateColumn("last_property_id", id).Error; err != nil {
			return err
		}
		p := domain.Property{
			PropertyID:      id,
			Address:         in.Address,
			TotalValue:      in.TotalValue,
			TotalShares:     in.TotalShares,
			AvailableShares: in.TotalShares,
			PricePerShare:   in.TotalValue / in.TotalShares,
			MetadataURI:     in.MetadataURI,
			IsActive:        true,
			Owner:           caller,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if _, err := events.Append(ctx, tx, events.Entry{
			Type:       domain.EventPropertyTokenized,
			PropertyID: &p.PropertyID,
			Actor:      caller,
			Data: map[string]interface{}{
				"property_id":     p.PropertyID,
				"address":         p.Address,
				"total_value":     p.TotalValue,
				"total_shares":    p.TotalShares,
				"price_per_share": p.PricePerShare,
			},
		}); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateProperty closes a property to new purchases. Deactivating an
// inactive property succeeds without change.
func (s *Service) DeactivateProperty(ctx context.Context, caller string, id uint64) error {
	return s.Store.Mutate(ctx, ledger.Op{Name: "deactivateProperty"}, func(ctx context.Context, tx *gorm.DB) error {
		p, err := s.adminProperty(tx, caller, id)
		if err != nil {
			return err
		}
		if err := tx.Model(p).Update("is_active", false).Error; err != nil {
			return err
		}
		_, err = events.Append(ctx, tx, events.Entry{
			Type:       domain.EventPropertyDeactivated,
			PropertyID: &p.PropertyID,
			Actor:      caller,
			Data:       map[string]interface{}{"property_id": p.PropertyID},
		})
		return err
	})
}

// WithdrawUnsoldShares retires the unsold inventory of an inactive property.
// Only the share count changes; no value is paid out.
func (s *Service) WithdrawUnsoldShares(ctx context.Context, caller string, id uint64) (uint64, error) {
	var withdrawn uint64
	err := s.Store.Mutate(ctx, ledger.Op{Name: "withdrawUnsoldShares", Guarded: true}, func(ctx context.Context, tx *gorm.DB) error {
		p, err := s.adminProperty(tx, caller, id)
		if err != nil {
			return err
		}
		if p.IsActive {
			return ledger.InvalidState("property %d is still active", id)
		}
		if p.AvailableShares == 0 {
			return ledger.InvalidState("property %d has no unsold shares", id)
		}
		count := p.AvailableShares
		if err := tx.Model(p).Update("available_shares", uint64(0)).Error; err != nil {
			return err
		}
		if _, err := events.Append(ctx, tx, events.Entry{
			Type:       domain.EventSharesWithdrawn,
			PropertyID: &p.PropertyID,
			Actor:      caller,
			Data: map[string]interface{}{
				"property_id": p.PropertyID,
				"admin":       caller,
				"count":       count,
			},
		}); err != nil {
			return err
		}
		withdrawn = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return withdrawn, nil
}

// UpdateMetadataURI replaces the property's metadata reference.
func (s *Service) UpdateMetadataURI(ctx context.Context, caller string, id uint64, uri string) error {
	return s.Store.Mutate(ctx, ledger.Op{Name: "updateMetadataURI"}, func(ctx context.Context, tx *gorm.DB) error {
		p, err := s.adminProperty(tx, caller, id)
		if err != nil {
			return err
		}
		if err := tx.Model(p).Update("metadata_uri", uri).Error; err != nil {
			return err
		}
		_, err = events.Append(ctx, tx, events.Entry{
			Type:       domain.EventMetadataUpdated,
			PropertyID: &p.PropertyID,
			Actor:      caller,
			Data: map[string]interface{}{
				"property_id":  p.PropertyID,
				"metadata_uri": uri,
			},
		})
		return err
	})
}

func (s *Service) adminProperty(tx *gorm.DB, caller string, id uint64) (*domain.Property, error) {
	state, err := ledger.LoadState(tx)
	if err != nil {
		return nil, err
	}
	if err := access.RequireAdministrator(state, caller); err != nil {
		return nil, err
	}
	return FindProperty(tx, id)
}

// FindProperty loads a property, mapping a missing row to NotFoundError.
func FindProperty(db *gorm.DB, id uint64) (*domain.Property, error) {
	var p domain.Property
	if err := db.Where("property_id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.NotFound("property %d not found", id)
		}
		return nil, err
	}
	return &p, nil
}

// GetProperty returns a property by id.
func (s *Service) GetProperty(ctx context.Context, id uint64) (*domain.Property, error) {
	return FindProperty(s.Store.DB.WithContext(ctx), id)
}

// GetCurrentID returns the last allocated property id (0 before the first tokenization).
func (s *Service) GetCurrentID(ctx context.Context) (uint64, error) {
	state, err := ledger.LoadState(s.Store.DB.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	return state.LastPropertyID, nil
}

// ListProperties returns properties in id order.
func (s *Service) ListProperties(ctx context.Context, activeOnly bool) ([]domain.Property, error) {
	db := s.Store.DB.WithContext(ctx)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	var out []domain.Property
	if err := db.Order("property_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
