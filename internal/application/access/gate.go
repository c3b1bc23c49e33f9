package access

import (
	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"
)

// RequireAdministrator fails unless caller is the registry administrator.
func RequireAdministrator(state *domain.RegistryState, caller string) error {
	if caller == "" || caller != state.Administrator {
		return ledger.Unauthorized("caller is not the registry administrator")
	}
	return nil
}

// RequireNotPaused fails while the registry is paused.
func RequireNotPaused(state *domain.RegistryState) error {
	if state.Paused {
		return ledger.InvalidState("registry is paused")
	}
	return nil
}
