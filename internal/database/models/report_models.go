package models

import "time"

type ReportType string

const (
	ReportTypeInventory ReportType = "INVENTORY"
	ReportTypeMovements ReportType = "MOVEMENTS"
	ReportTypeOrders    ReportType = "ORDERS"
	ReportTypeSales     ReportType = "SALES"
)

type ReportFormat string

const (
	ReportFormatCSV   ReportFormat = "CSV"
	ReportFormatJSON  ReportFormat = "JSON"
	ReportFormatExcel ReportFormat = "EXCEL"
	ReportFormatPDF   ReportFormat = "PDF"
)

type Report struct {
	ID          int64        `gorm:"primaryKey;autoIncrement"`
	Title       string       `gorm:"size:255;not null"`
	ReportType  ReportType   `gorm:"type:varchar(20);not null"`
	Description *string      `gorm:"type:text"`
	Format      ReportFormat `gorm:"type:varchar(10);not null;default:'CSV'"`
	Parameters  *string      `gorm:"type:text"`
	IsScheduled bool         `gorm:"default:false"`
	IsPublic    bool         `gorm:"default:false"`
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Generations []GeneratedReport `gorm:"foreignKey:ReportID"`
}

type GeneratedReport struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	ReportID     int64   `gorm:"index;not null"`
	Status       string  `gorm:"type:varchar(20);not null;default:'PENDING'"`
	ErrorMessage *string `gorm:"type:text"`
	StartTime    time.Time
	EndTime      *time.Time
	GeneratedBy  *int64

	Report *Report `gorm:"foreignKey:ReportID"`
}
