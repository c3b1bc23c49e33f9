package settlement

import (
	"context"
	"fmt"

	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultEscrow is the identity holding tendered value between collection and payout.
const DefaultEscrow = "ledger:escrow"

// Leg is one value transfer.
type Leg struct {
	Kind       string
	PropertyID uint64
	From       string
	To         string
	Amount     uint64
}

// Transferer moves value between principals. It either fully succeeds or
// changes nothing. tx is the enclosing ledger transaction; providers that keep
// balances in the ledger database must write through it.
type Transferer interface {
	Name() string
	Transfer(ctx context.Context, tx *gorm.DB, leg Leg) (ref string, err error)
}

// LegValidator is implemented by transferers that can reject a leg before any
// leg of the collection moves value.
type LegValidator interface {
	ValidateLegs(ctx context.Context, tx *gorm.DB, legs []Leg) error
}

// Reverser is implemented by transferers whose legs take effect outside the
// ledger transaction. Reverse undoes a leg that completed with ref.
type Reverser interface {
	Reverse(ctx context.Context, leg Leg, ref string) error
}

type executedLeg struct {
	leg Leg
	ref string
}

// Collection describes the value flow of one purchase.
type Collection struct {
	PropertyID uint64
	Payer      string
	Payee      string
	Required   uint64
	Tendered   uint64
}

// Result reports what a collection moved.
type Result struct {
	Forwarded uint64 `json:"forwarded"`
	Refunded  uint64 `json:"refunded"`
}

// Adapter collects tendered value, forwards the required amount to the payee
// and refunds any surplus to the payer.
type Adapter struct {
	Transferer Transferer
	Escrow     string
}

func (a *Adapter) escrow() string {
	if a.Escrow == "" {
		return DefaultEscrow
	}
	return a.Escrow
}

// CollectAndForward must run inside a guarded ledger operation. Every leg is
// validated before the first one runs. Any leg failure is reported as a
// SettlementError: legs already completed outside the ledger are reversed and
// the caller's transaction discards every ledger write of the operation.
func (a *Adapter) CollectAndForward(ctx context.Context, tx *gorm.DB, c Collection) (*Result, error) {
	if !ledger.GuardHeld(ctx) {
		return nil, ledger.InvalidState("settlement must run under the reentrancy guard")
	}
	if c.Tendered < c.Required {
		return nil, ledger.Payment("tendered %d is below required %d", c.Tendered, c.Required)
	}

	escrow := a.escrow()
	legs := []Leg{
		{Kind: domain.LegCollect, From: c.Payer, To: escrow, Amount: c.Tendered},
		{Kind: domain.LegForward, From: escrow, To: c.Payee, Amount: c.Required},
	}
	surplus := c.Tendered - c.Required
	if surplus > 0 {
		legs = append(legs, Leg{Kind: domain.LegRefund, From: escrow, To: c.Payer, Amount: surplus})
	}

	planned := legs[:0]
	for _, leg := range legs {
		if leg.Amount == 0 {
			continue
		}
		leg.PropertyID = c.PropertyID
		planned = append(planned, leg)
	}
	if v, ok := a.Transferer.(LegValidator); ok {
		if err := v.ValidateLegs(ctx, tx, planned); err != nil {
			return nil, ledger.SettlementFailed("settlement rejected before any transfer: %v", err)
		}
	}

	done := make([]executedLeg, 0, len(planned))
	for _, leg := range planned {
		ref, err := a.Transferer.Transfer(ctx, tx, leg)
		if err != nil {
			return nil, a.unwind(ctx, done, ledger.SettlementFailed("%s of %d from %s to %s failed: %v", leg.Kind, leg.Amount, leg.From, leg.To, err))
		}
		done = append(done, executedLeg{leg: leg, ref: ref})
		if err := a.record(tx, leg, ref); err != nil {
			return nil, a.unwind(ctx, done, err)
		}
	}
	return &Result{Forwarded: c.Required, Refunded: surplus}, nil
}

// unwind reverses completed legs, newest first, when the transferer moves value
// outside the ledger transaction. Ledger-side writes are left to the rollback.
func (a *Adapter) unwind(ctx context.Context, done []executedLeg, cause error) error {
	r, ok := a.Transferer.(Reverser)
	if !ok {
		return cause
	}
	for i := len(done) - 1; i >= 0; i-- {
		d := done[i]
		if err := r.Reverse(ctx, d.leg, d.ref); err != nil {
			log.Error().Err(err).Str("leg", d.leg.Kind).Str("ref", d.ref).Uint64("property_id", d.leg.PropertyID).Uint64("amount", d.leg.Amount).Msg("Settlement reversal failed")
			cause = fmt.Errorf("%w; reversal of %s %s failed: %v", cause, d.leg.Kind, d.ref, err)
		}
	}
	return cause
}

func (a *Adapter) record(tx *gorm.DB, leg Leg, ref string) error {
	return tx.Create(&domain.Settlement{
		PropertyID:   leg.PropertyID,
		Kind:         leg.Kind,
		FromIdentity: leg.From,
		ToIdentity:   leg.To,
		Amount:       leg.Amount,
		Provider:     a.Transferer.Name(),
		ExternalRef:  ref,
	}).Error
}
