package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event types written to the ledger event log.
const (
	EventPropertyTokenized         = "PropertyTokenized"
	EventSharesPurchased           = "SharesPurchased"
	EventSharesTransferred         = "SharesTransferred"
	EventPropertyDeactivated       = "PropertyDeactivated"
	EventSharesWithdrawn           = "SharesWithdrawn"
	EventMetadataUpdated           = "MetadataUpdated"
	EventPaused                    = "Paused"
	EventUnpaused                  = "Unpaused"
	EventAdministrationTransferred = "AdministrationTransferred"
)

// LedgerEvent is an append-only record of a committed mutation. Sequence follows
// the global operation order.
type LedgerEvent struct {
	EventID    uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Sequence   uint64         `gorm:"column:sequence;not null;uniqueIndex" json:"sequence"`
	EventType  string         `gorm:"column:event_type;type:varchar(40);not null" json:"event_type"`
	PropertyID *uint64        `gorm:"column:property_id;index" json:"property_id"`
	Actor      string         `gorm:"column:actor;type:varchar(128)" json:"actor"`
	EventData  datatypes.JSON `gorm:"column:event_data;type:jsonb;not null" json:"event_data"`
	CreatedAt  time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (LedgerEvent) TableName() string {
	return "LedgerEvents"
}

func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
