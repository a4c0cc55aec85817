package lifecycle

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"sign_ops/internal/model"
)

// consumeStorage marks the stored inventory behind one storage-category
// order item as consumed. Runs exactly once per reference, at installation
// time; orders created, edited or cancelled beforehand never touch storage
// state. Callers guarantee it.FromStorage().
func (e *Engine) consumeStorage(ctx context.Context, it *model.OrderItem) error {
	db := e.db.WithContext(ctx)

	switch {
	case it.CustomerRiderID != nil:
		return db.Model(&model.CustomerRider{}).
			Where("id = ?", *it.CustomerRiderID).
			Update("in_storage", false).Error

	case it.CustomerLockboxID != nil:
		return db.Model(&model.CustomerLockbox{}).
			Where("id = ?", *it.CustomerLockboxID).
			Update("in_storage", false).Error

	case it.CustomerSignID != nil:
		var s model.CustomerSign
		if err := db.First(&s, *it.CustomerSignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return db.Model(&s).Update("quantity", floorZero(s.Quantity-it.Quantity)).Error

	case it.CustomerBrochureBoxID != nil:
		var b model.CustomerBrochureBox
		if err := db.First(&b, *it.CustomerBrochureBoxID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return db.Model(&b).Update("quantity", floorZero(b.Quantity-it.Quantity)).Error
	}
	return nil
}

// floorZero clamps a consumed quantity; storage counts never go negative.
func floorZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
