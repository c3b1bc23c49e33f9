package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment is a confirmed Stripe payment credited to an internal wallet. The
// payment intent id makes crediting idempotent across webhook retries.
type Payment struct {
	ID                    uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StripePaymentIntentID string         `gorm:"column:stripe_payment_intent_id;uniqueIndex;not null" json:"stripe_payment_intent_id"`
	StripeEventID         string         `gorm:"column:stripe_event_id;not null" json:"stripe_event_id"`
	Identity              string         `gorm:"column:identity;type:varchar(128);not null;index" json:"identity"`
	AmountReceived        uint64         `gorm:"column:amount_received;not null" json:"amount_received"`
	Currency              string         `gorm:"column:currency;not null" json:"currency"`
	Status                string         `gorm:"column:status;not null" json:"status"`
	RawPaymentIntent      datatypes.JSON `gorm:"column:raw_payment_intent;type:jsonb;not null" json:"raw_payment_intent"`
	CreatedAt             time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt             time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Payment) TableName() string {
	return "Payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
