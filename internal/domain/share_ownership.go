package domain

import "time"

// ShareOwnership is keyed by (property, investor). The row survives a zero balance;
// the next acquisition resets PurchasePrice and PurchaseDate.
type ShareOwnership struct {
	PropertyID    uint64    `gorm:"column:property_id;primaryKey;autoIncrement:false" json:"property_id"`
	Investor      string    `gorm:"column:investor;type:varchar(128);primaryKey" json:"investor"`
	Shares        uint64    `gorm:"column:shares;not null;default:0" json:"shares"`
	PurchasePrice uint64    `gorm:"column:purchase_price;not null;default:0" json:"purchase_price"`
	PurchaseDate  time.Time `gorm:"column:purchase_date" json:"purchase_date"`
	UpdatedAt     time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (ShareOwnership) TableName() string {
	return "ShareOwnerships"
}

// PropertyInvestor is one roster entry. Position is dense in [0, n) per property
// and carries no meaning beyond supporting swap-and-pop removal.
type PropertyInvestor struct {
	PropertyID uint64 `gorm:"column:property_id;primaryKey;autoIncrement:false;uniqueIndex:idx_roster_position,priority:1" json:"property_id"`
	Investor   string `gorm:"column:investor;type:varchar(128);primaryKey" json:"investor"`
	Position   uint64 `gorm:"column:position;not null;uniqueIndex:idx_roster_position,priority:2" json:"position"`
}

func (PropertyInvestor) TableName() string {
	return "PropertyInvestors"
}
