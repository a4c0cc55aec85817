package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"sign_ops/internal/model"
)

// materialize builds the durable installation record and its rider/lockbox
// children from the completed order's items, then consumes storage inventory
// for storage-sourced items. The unique order_id on installations is the
// idempotency guard: if one exists the whole pass is skipped, so repeated
// "mark completed" calls are safe.
func (e *Engine) materialize(ctx context.Context, order *model.Order) error {
	db := e.db.WithContext(ctx)

	var existing model.Installation
	err := db.Where("order_id = ?", order.ID).First(&existing).Error
	if err == nil {
		return nil // already materialized
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check existing installation: %w", err)
	}

	items := order.Items
	if len(items) == 0 {
		if err := db.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return fmt.Errorf("load order items: %w", err)
		}
	}

	inst := &model.Installation{
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		AddressLine1: order.AddressLine1,
		AddressLine2: order.AddressLine2,
		City:         order.City,
		State:        order.State,
		Zip:          order.Zip,
		Status:       model.InstallationActive,
		InstalledAt:  time.Now(),
	}
	if err := db.Create(inst).Error; err != nil {
		return fmt.Errorf("create installation: %w", err)
	}

	// Child rows and inventory flags are individually fault tolerant: a bad
	// reference on one item must not lose the rest of the installation.
	for i := range items {
		it := &items[i]
		var err error
		switch it.ItemType {
		case model.ItemRider:
			err = e.materializeRider(ctx, inst, it)
		case model.ItemLockbox:
			err = e.materializeLockbox(ctx, inst, it)
		case model.ItemSign, model.ItemBrochureBox:
			if it.FromStorage() {
				err = e.consumeStorage(ctx, it)
			}
		}
		if err != nil {
			log.Printf("order %s: materialize item %d (%s): %v", order.OrderNumber, it.ID, it.ItemType, err)
		}
	}
	return nil
}

// materializeRider resolves the catalog rider directly or through the
// customer's stored-rider reference. An unresolvable reference is a
// data-quality issue, skipped silently rather than failing the install.
func (e *Engine) materializeRider(ctx context.Context, inst *model.Installation, it *model.OrderItem) error {
	db := e.db.WithContext(ctx)

	var riderTypeID uint
	switch {
	case it.RiderTypeID != nil:
		riderTypeID = *it.RiderTypeID
	case it.CustomerRiderID != nil:
		var stored model.CustomerRider
		if err := db.First(&stored, *it.CustomerRiderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		riderTypeID = stored.RiderTypeID
	default:
		return nil
	}

	rider := &model.InstallationRider{
		InstallationID: inst.ID,
		RiderTypeID:    riderTypeID,
		IsRental:       it.ItemCategory == model.CategoryRental,
	}
	if err := db.Create(rider).Error; err != nil {
		return err
	}
	if it.FromStorage() {
		return e.consumeStorage(ctx, it)
	}
	return nil
}

// materializeLockbox resolves a lockbox type from the stored-lockbox
// reference (keeping its code), then from the explicit type id on the item,
// and only as a last resort by brand-name matching against the active
// catalog.
func (e *Engine) materializeLockbox(ctx context.Context, inst *model.Installation, it *model.OrderItem) error {
	db := e.db.WithContext(ctx)

	var (
		lockboxTypeID uint
		code          string
	)
	switch {
	case it.CustomerLockboxID != nil:
		var stored model.CustomerLockbox
		if err := db.First(&stored, *it.CustomerLockboxID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		lockboxTypeID = stored.LockboxTypeID
		code = stored.Code
	case it.LockboxTypeID != nil:
		lockboxTypeID = *it.LockboxTypeID
	default:
		var types []model.LockboxType
		if err := db.Where("is_active = ?", true).Find(&types).Error; err != nil {
			return err
		}
		matched := matchLockboxTypeByName(types, it.Description)
		if matched == nil {
			return nil
		}
		lockboxTypeID = matched.ID
	}

	box := &model.InstallationLockbox{
		InstallationID: inst.ID,
		LockboxTypeID:  lockboxTypeID,
		Code:           code,
		IsRental:       it.ItemCategory == model.CategoryRental,
	}
	if err := db.Create(box).Error; err != nil {
		return err
	}
	if it.FromStorage() {
		return e.consumeStorage(ctx, it)
	}
	return nil
}

// Lockbox brand tokens recognized by the legacy name heuristic.
var lockboxBrands = []string{"sentrilock", "supra"}

// matchLockboxTypeByName pairs an item description with a catalog entry by
// shared brand token. Legacy fallback for items created without an explicit
// lockbox_type_id.
func matchLockboxTypeByName(types []model.LockboxType, description string) *model.LockboxType {
	desc := strings.ToLower(description)
	for _, brand := range lockboxBrands {
		if !strings.Contains(desc, brand) {
			continue
		}
		for i := range types {
			if strings.Contains(strings.ToLower(types[i].Name), brand) {
				return &types[i]
			}
		}
	}
	return nil
}
