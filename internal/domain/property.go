package domain

import "time"

// Property is one real-world asset split into a fixed number of shares.
// PricePerShare is TotalValue / TotalShares with integer truncation.
type Property struct {
	PropertyID      uint64    `gorm:"column:property_id;primaryKey;autoIncrement:false" json:"property_id"`
	Address         string    `gorm:"column:address;not null" json:"address"`
	TotalValue      uint64    `gorm:"column:total_value;not null" json:"total_value"`
	TotalShares     uint64    `gorm:"column:total_shares;not null" json:"total_shares"`
	AvailableShares uint64    `gorm:"column:available_shares;not null" json:"available_shares"`
	PricePerShare   uint64    `gorm:"column:price_per_share;not null" json:"price_per_share"`
	MetadataURI     string    `gorm:"column:metadata_uri" json:"metadata_uri"`
	IsActive        bool      `gorm:"column:is_active;not null" json:"is_active"`
	Owner           string    `gorm:"column:owner;type:varchar(128);not null" json:"owner"`
	CreatedAt       time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Property) TableName() string {
	return "Properties"
}
