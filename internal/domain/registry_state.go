package domain

import "time"

// RegistryStateID is the primary key of the single RegistryState row.
const RegistryStateID uint = 1

// RegistryState holds the process-wide administrator, pause flag and id counters.
type RegistryState struct {
	ID                uint      `gorm:"column:id;primaryKey;autoIncrement:false" json:"-"`
	Administrator     string    `gorm:"column:administrator;type:varchar(128);not null" json:"administrator"`
	Paused            bool      `gorm:"column:paused;not null" json:"paused"`
	LastPropertyID    uint64    `gorm:"column:last_property_id;not null;default:0" json:"last_property_id"`
	LastEventSequence uint64    `gorm:"column:last_event_sequence;not null;default:0" json:"last_event_sequence"`
	UpdatedAt         time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (RegistryState) TableName() string {
	return "RegistryState"
}
