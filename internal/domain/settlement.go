package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settlement leg kinds.
const (
	LegCollect = "collect"
	LegForward = "forward"
	LegRefund  = "refund"
)

// Settlement records one executed value transfer leg of a purchase.
type Settlement struct {
	SettlementID uuid.UUID `gorm:"column:settlement_id;type:uuid;primaryKey" json:"settlement_id"`
	PropertyID   uint64    `gorm:"column:property_id;not null;index" json:"property_id"`
	Kind         string    `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	FromIdentity string    `gorm:"column:from_identity;type:varchar(128);not null" json:"from_identity"`
	ToIdentity   string    `gorm:"column:to_identity;type:varchar(128);not null" json:"to_identity"`
	Amount       uint64    `gorm:"column:amount;not null" json:"amount"`
	Provider     string    `gorm:"column:provider;type:varchar(20);not null" json:"provider"`
	ExternalRef  string    `gorm:"column:external_ref" json:"external_ref"`
	CreatedAt    time.Time `gorm:"column:createdAt" json:"createdAt"`
}

func (Settlement) TableName() string {
	return "Settlements"
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.SettlementID == uuid.Nil {
		s.SettlementID = uuid.New()
	}
	return nil
}

// WalletAccount is an internal balance used by the wallet settlement provider.
type WalletAccount struct {
	Identity  string    `gorm:"column:identity;type:varchar(128);primaryKey" json:"identity"`
	Balance   uint64    `gorm:"column:balance;not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (WalletAccount) TableName() string {
	return "WalletAccounts"
}
