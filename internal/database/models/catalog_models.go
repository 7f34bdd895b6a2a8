package models

import "time"

type Category struct {
	ID          int32   `gorm:"primaryKey;autoIncrement"`
	Name        string  `gorm:"size:100;not null"`
	Description *string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Products []Product `gorm:"foreignKey:CategoryID"`
}

type Product struct {
	ID           int32   `gorm:"primaryKey;autoIncrement"`
	SKU          string  `gorm:"size:50;uniqueIndex;not null"`
	Barcode      *string `gorm:"size:100"`
	ProductName  string  `gorm:"size:200;not null"`
	Description  *string `gorm:"type:text"`
	CategoryID   *int32
	CostPrice    string  `gorm:"type:varchar(32);not null"`
	SellingPrice string  `gorm:"type:varchar(32);not null"`
	Weight       *string `gorm:"type:varchar(32)"`
	Height       *string `gorm:"type:varchar(32)"`
	Width        *string `gorm:"type:varchar(32)"`
	Length       *string `gorm:"type:varchar(32)"`
	IsActive     bool    `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Category    *Category   `gorm:"foreignKey:CategoryID"`
	Inventories []Inventory `gorm:"foreignKey:ProductID"`
}

type Warehouse struct {
	ID            int32   `gorm:"primaryKey;autoIncrement"`
	WarehouseName string  `gorm:"size:100;not null"`
	Address       *string `gorm:"type:text"`
	City          *string `gorm:"size:100"`
	State         *string `gorm:"size:100"`
	Country       *string `gorm:"size:100"`
	PostalCode    *string `gorm:"size:20"`
	Phone         *string `gorm:"size:20"`
	Email         *string `gorm:"size:100"`
	ManagerID     *int64
	IsActive      bool `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Inventories []Inventory `gorm:"foreignKey:WarehouseID"`
}
