package access

import (
	"context"

	"proptoken-backend/internal/application/events"
	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"
	"proptoken-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

// Service toggles the pause flag and hands over administration.
type Service struct {
	Store *ledger.Store
}

// Pause sets the pause flag. Pausing an already paused registry succeeds.
func (s *Service) Pause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, true)
}

// Unpause clears the pause flag.
func (s *Service) Unpause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, false)
}

func (s *Service) setPaused(ctx context.Context, caller string, paused bool) error {
	name, eventType := "unpause", domain.EventUnpaused
	if paused {
		name, eventType = "pause", domain.EventPaused
	}
	return s.Store.Mutate(ctx, ledger.Op{Name: name}, func(ctx context.Context, tx *gorm.DB) error {
		state, err := ledger.LoadState(tx)
		if err != nil {
			return err
		}
		if err := RequireAdministrator(state, caller); err != nil {
			return err
		}
		if err := tx.Model(state).UpdateColumn("paused", paused).Error; err != nil {
			return err
		}
		_, err = events.Append(ctx, tx, events.Entry{
			Type:  eventType,
			Actor: caller,
			Data:  map[string]interface{}{"account": caller},
		})
		return err
	})
}

// TransferAdministration hands the administrator capability to next.
func (s *Service) TransferAdministration(ctx context.Context, caller, next string) error {
	return s.Store.Mutate(ctx, ledger.Op{Name: "transferAdministration"}, func(ctx context.Context, tx *gorm.DB) error {
		state, err := ledger.LoadState(tx)
		if err != nil {
			return err
		}
		if err := RequireAdministrator(state, caller); err != nil {
			return err
		}
		if !validation.IsValidIdentity(next) {
			return ledger.Validation("new administrator identity is invalid")
		}
		if err := tx.Model(state).UpdateColumn("administrator", next).Error; err != nil {
			return err
		}
		_, err = events.Append(ctx, tx, events.Entry{
			Type:  domain.EventAdministrationTransferred,
			Actor: caller,
			Data: map[string]interface{}{
				"previous": caller,
				"next":     next,
			},
		})
		return err
	})
}

// State returns the current administrator and pause flag.
func (s *Service) State(ctx context.Context) (*domain.RegistryState, error) {
	return ledger.LoadState(s.Store.DB.WithContext(ctx))
}
