package models

import "time"

type MovementType string

const (
	MovementTypeIn         MovementType = "IN"
	MovementTypeOut        MovementType = "OUT"
	MovementTypeReturn     MovementType = "RETURN"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	MovementTypeTransfer   MovementType = "TRANSFER"
)

// Inventory is the on-hand balance for one product in one warehouse.
// Quantity is only ever changed through the movement primitive, so it
// stays equal to the signed sum of this balance's movement rows.
type Inventory struct {
	ID              int64 `gorm:"primaryKey;autoIncrement"`
	ProductID       int32 `gorm:"not null;uniqueIndex:idx_product_warehouse"`
	WarehouseID     int32 `gorm:"not null;uniqueIndex:idx_product_warehouse"`
	Quantity        int32 `gorm:"not null;default:0"`
	MinQuantity     int32 `gorm:"not null;default:0"`
	MaxQuantity     int32 `gorm:"not null;default:0"`
	ReorderLevel    int32 `gorm:"not null;default:0"`
	LastRestockDate *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Product   *Product            `gorm:"foreignKey:ProductID"`
	Warehouse *Warehouse          `gorm:"foreignKey:WarehouseID"`
	Movements []InventoryMovement `gorm:"foreignKey:InventoryID"`
}

// InventoryMovement is an append-only ledger row. Quantity is always
// positive; direction is carried by the movement type.
type InventoryMovement struct {
	ID           int64        `gorm:"primaryKey;autoIncrement"`
	InventoryID  int64        `gorm:"index;not null"`
	MovementType MovementType `gorm:"type:varchar(20);not null"`
	Quantity     int32        `gorm:"not null"`
	Reference    *string      `gorm:"size:100"`
	Notes        *string      `gorm:"type:text"`
	CreatedBy    *int64
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	Inventory *Inventory `gorm:"foreignKey:InventoryID"`
}
