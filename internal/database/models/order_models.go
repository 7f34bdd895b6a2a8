package models

import "time"

type POStatus string

const (
	POStatusDraft     POStatus = "DRAFT"
	POStatusSubmitted POStatus = "SUBMITTED"
	POStatusApproved  POStatus = "APPROVED"
	POStatusShipped   POStatus = "SHIPPED"
	POStatusReceived  POStatus = "RECEIVED"
	POStatusCancelled POStatus = "CANCELLED"
)

func (s POStatus) String() string {
	return string(s)
}

type SOStatus string

const (
	SOStatusDraft      SOStatus = "DRAFT"
	SOStatusSubmitted  SOStatus = "SUBMITTED"
	SOStatusProcessing SOStatus = "PROCESSING"
	SOStatusPicking    SOStatus = "PICKING"
	SOStatusPacked     SOStatus = "PACKED"
	SOStatusShipped    SOStatus = "SHIPPED"
	SOStatusDelivered  SOStatus = "DELIVERED"
	SOStatusCancelled  SOStatus = "CANCELLED"
	SOStatusReturned   SOStatus = "RETURNED"
)

func (s SOStatus) String() string {
	return string(s)
}

type Supplier struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	SupplierName  string  `gorm:"size:200;not null"`
	ContactPerson *string `gorm:"size:100"`
	Email         *string `gorm:"size:100"`
	Phone         *string `gorm:"size:20"`
	Address       *string `gorm:"type:text"`
	City          *string `gorm:"size:100"`
	Country       *string `gorm:"size:100"`
	Notes         *string `gorm:"type:text"`
	IsActive      bool    `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	PurchaseOrders []PurchaseOrder `gorm:"foreignKey:SupplierID"`
}

type Customer struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	CustomerName  string  `gorm:"size:200;not null"`
	ContactPerson *string `gorm:"size:100"`
	Email         *string `gorm:"size:100"`
	Phone         *string `gorm:"size:20"`
	Address       *string `gorm:"type:text"`
	City          *string `gorm:"size:100"`
	Country       *string `gorm:"size:100"`
	Notes         *string `gorm:"type:text"`
	IsActive      bool    `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	SalesOrders []SalesOrder `gorm:"foreignKey:CustomerID"`
}

type PurchaseOrder struct {
	ID                   int64    `gorm:"primaryKey;autoIncrement"`
	PONumber             string   `gorm:"size:50;uniqueIndex;not null"`
	SupplierID           int64    `gorm:"not null"`
	WarehouseID          int32    `gorm:"not null"`
	Status               POStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	OrderDate            time.Time
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	ShippingAddress      *string `gorm:"type:text"`
	ShippingMethod       *string `gorm:"size:100"`
	TrackingNumber       *string `gorm:"size:100"`
	Subtotal             string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	Tax                  string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	ShippingCost         string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	Total                string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	Notes                *string `gorm:"type:text"`
	CreatedBy            *int64
	ApprovedBy           *int64
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Supplier  *Supplier           `gorm:"foreignKey:SupplierID"`
	Warehouse *Warehouse          `gorm:"foreignKey:WarehouseID"`
	Items     []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID"`
}

type PurchaseOrderItem struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	PurchaseOrderID  int64  `gorm:"index;not null"`
	ProductID        int32  `gorm:"not null"`
	Quantity         int32  `gorm:"not null"`
	ReceivedQuantity int32  `gorm:"not null;default:0"`
	UnitPrice        string `gorm:"type:varchar(32);not null"`
	TaxRate          string `gorm:"type:varchar(32);not null;default:'0.00'"`
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

type SalesOrder struct {
	ID              int64    `gorm:"primaryKey;autoIncrement"`
	OrderNumber     string   `gorm:"size:50;uniqueIndex;not null"`
	CustomerID      int64    `gorm:"not null"`
	WarehouseID     int32    `gorm:"not null"`
	Status          SOStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	OrderDate       time.Time
	ShippingAddress string  `gorm:"type:text;not null"`
	ShippingMethod  *string `gorm:"size:100"`
	TrackingNumber  *string `gorm:"size:100"`
	ShippingDate    *time.Time
	DeliveryDate    *time.Time
	Subtotal        string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	Tax             string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	ShippingCost    string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	Discount        string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	Total           string  `gorm:"type:varchar(32);not null;default:'0.00'"`
	Notes           *string `gorm:"type:text"`
	CreatedBy       *int64
	ProcessedBy     *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Customer  *Customer        `gorm:"foreignKey:CustomerID"`
	Warehouse *Warehouse       `gorm:"foreignKey:WarehouseID"`
	Items     []SalesOrderItem `gorm:"foreignKey:SalesOrderID"`
}

type SalesOrderItem struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	SalesOrderID int64  `gorm:"index;not null"`
	ProductID    int32  `gorm:"not null"`
	Quantity     int32  `gorm:"not null"`
	UnitPrice    string `gorm:"type:varchar(32);not null"`
	TaxRate      string `gorm:"type:varchar(32);not null;default:'0.00'"`
	Discount     string `gorm:"type:varchar(32);not null;default:'0.00'"`
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
