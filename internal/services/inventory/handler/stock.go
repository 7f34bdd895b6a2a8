package handler

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wms-system/internal/database/models"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrInsufficientStock = errors.New("insufficient inventory")
)

// Direction tells the movement primitive which way the balance moves.
// Movement rows always carry a positive quantity; the movement type and
// direction encode the sign.
type Direction int32

const (
	DirectionIn  Direction = 1
	DirectionOut Direction = -1
)

// LockInventory loads the balance row for update so concurrent requests on
// the same (product, warehouse) pair serialize. Must be called inside a
// transaction.
func LockInventory(tx *gorm.DB, productID, warehouseID int32) (*models.Inventory, error) {
	var inv models.Inventory
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func LockInventoryByID(tx *gorm.DB, id int64) (*models.Inventory, error) {
	var inv models.Inventory
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetOrCreateInventory returns the locked balance for the pair, creating a
// zero-quantity row on first movement.
func GetOrCreateInventory(tx *gorm.DB, productID, warehouseID int32) (*models.Inventory, error) {
	inv, err := LockInventory(tx, productID, warehouseID)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := models.Inventory{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    0,
	}
	if err := tx.Create(&created).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// ApplyMovement is the only path by which a balance quantity changes. It
// adjusts the locked balance row and appends the ledger entry in the
// caller's transaction; an outbound movement that would drive the balance
// negative fails before anything is written.
func ApplyMovement(tx *gorm.DB, inv *models.Inventory, movementType models.MovementType, dir Direction, quantity int32, reference, notes string, actor *int64) (*models.InventoryMovement, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	switch dir {
	case DirectionIn:
		inv.Quantity += quantity
		now := time.Now()
		inv.LastRestockDate = &now
	case DirectionOut:
		if inv.Quantity < quantity {
			return nil, ErrInsufficientStock
		}
		inv.Quantity -= quantity
	default:
		return nil, ErrInvalidQuantity
	}

	inv.UpdatedAt = time.Now()
	if err := tx.Save(inv).Error; err != nil {
		return nil, err
	}

	movement := models.InventoryMovement{
		InventoryID:  inv.ID,
		MovementType: movementType,
		Quantity:     quantity,
		Reference:    strPtr(reference),
		Notes:        strPtr(notes),
		CreatedBy:    actor,
		CreatedAt:    time.Now(),
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}

	return &movement, nil
}
