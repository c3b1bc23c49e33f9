package shares

import (
	"errors"
	"fmt"

	"proptoken-backend/internal/domain"

	"gorm.io/gorm"
)

func addInvestor(tx *gorm.DB, propertyID uint64, investor string) error {
	var existing int64
	if err := tx.Model(&domain.PropertyInvestor{}).
		Where("property_id = ? AND investor = ?", propertyID, investor).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}
	var size int64
	if err := tx.Model(&domain.PropertyInvestor{}).Where("property_id = ?", propertyID).Count(&size).Error; err != nil {
		return err
	}
	return tx.Create(&domain.PropertyInvestor{
		PropertyID: propertyID,
		Investor:   investor,
		Position:   uint64(size),
	}).Error
}

// removeInvestor deletes investor's entry and moves the last entry into the
// freed position. Roster order is not preserved.
func removeInvestor(tx *gorm.DB, propertyID uint64, investor string) error {
	var entry domain.PropertyInvestor
	if err := tx.Where("property_id = ? AND investor = ?", propertyID, investor).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("roster of property %d has no entry for %s", propertyID, investor)
		}
		return err
	}
	var last domain.PropertyInvestor
	if err := tx.Where("property_id = ?", propertyID).Order("position DESC").First(&last).Error; err != nil {
		return err
	}
	if err := tx.Delete(&entry).Error; err != nil {
		return err
	}
	if last.Investor == entry.Investor {
		return nil
	}
	return tx.Model(&last).Update("position", entry.Position).Error
}

func rosterOf(db *gorm.DB, propertyID uint64) ([]string, error) {
	var entries []domain.PropertyInvestor
	if err := db.Where("property_id = ?", propertyID).Order("position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Investor)
	}
	return out, nil
}
