package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wms-system/config"
	"wms-system/internal/database/models"
	"wms-system/internal/gateway/middleware"
)

type ReportHandler struct {
	db *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{db: db}
}

func (s *ReportHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *ReportHandler) created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *ReportHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// -- Report definitions --

type CreateReportRequest struct {
	Title       string  `json:"title" binding:"required"`
	ReportType  string  `json:"report_type" binding:"required"`
	Description *string `json:"description,omitempty"`
	Format      string  `json:"format"`
	Parameters  *string `json:"parameters,omitempty"`
	IsScheduled bool    `json:"is_scheduled"`
	IsPublic    bool    `json:"is_public"`
}

func (s *ReportHandler) Create(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reportType := models.ReportType(strings.ToUpper(req.ReportType))
	switch reportType {
	case models.ReportTypeInventory, models.ReportTypeMovements, models.ReportTypeOrders, models.ReportTypeSales:
	default:
		s.error(c, http.StatusBadRequest, "Unknown report type: "+req.ReportType)
		return
	}

	format := models.ReportFormatCSV
	if req.Format != "" {
		parsed, err := parseFormat(req.Format)
		if err != nil {
			s.error(c, http.StatusBadRequest, err.Error())
			return
		}
		format = parsed
	}

	report := models.Report{
		Title:       req.Title,
		ReportType:  reportType,
		Description: req.Description,
		Format:      format,
		Parameters:  req.Parameters,
		IsScheduled: req.IsScheduled,
		IsPublic:    req.IsPublic,
		CreatedBy:   middleware.ActorID(c),
	}

	if err := s.db.Create(&report).Error; err != nil {
		config.LogError(config.GetLogger(), "reports", "Create", "create report", err)
		s.error(c, http.StatusInternalServerError, "Failed to create report")
		return
	}

	s.created(c, report)
}

func (s *ReportHandler) List(c *gin.Context) {
	query := s.db.Model(&models.Report{}).Order("created_at DESC")

	if reportType := c.Query("report_type"); reportType != "" {
		query = query.Where("report_type = ?", strings.ToUpper(reportType))
	}

	var reports []models.Report
	if err := query.Find(&reports).Error; err != nil {
		config.LogError(config.GetLogger(), "reports", "List", "list reports", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, reports)
}

func (s *ReportHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid report id")
		return
	}

	var report models.Report
	if err := s.db.Preload("Generations").Where("id = ?", id).First(&report).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Report not found")
			return
		}
		config.LogError(config.GetLogger(), "reports", "Get", "load report", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, report)
}

func (s *ReportHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid report id")
		return
	}

	result := s.db.Where("id = ?", id).Delete(&models.Report{})
	if result.Error != nil {
		config.LogError(config.GetLogger(), "reports", "Delete", "delete report", result.Error)
		s.error(c, http.StatusInternalServerError, "Failed to delete report")
		return
	}
	if result.RowsAffected == 0 {
		s.error(c, http.StatusNotFound, "Report not found")
		return
	}

	s.success(c, gin.H{"deleted": id})
}

// Generate runs a stored report definition, records the run, and streams
// the rendered output. A failed run is recorded with its error message.
func (s *ReportHandler) Generate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid report id")
		return
	}

	var report models.Report
	if err := s.db.Where("id = ?", id).First(&report).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Report not found")
			return
		}
		config.LogError(config.GetLogger(), "reports", "Generate", "load report", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	generation := models.GeneratedReport{
		ReportID:    report.ID,
		Status:      "RUNNING",
		StartTime:   time.Now(),
		GeneratedBy: middleware.ActorID(c),
	}
	if err := s.db.Create(&generation).Error; err != nil {
		config.LogError(config.GetLogger(), "reports", "Generate", "create generation record", err)
		s.error(c, http.StatusInternalServerError, "Failed to record report run")
		return
	}

	ds, err := s.buildDataset(c, report.ReportType)
	if err != nil {
		s.finishGeneration(&generation, "FAILED", err)
		config.LogError(config.GetLogger(), "reports", "Generate", "build dataset", err)
		s.error(c, http.StatusInternalServerError, "Failed to build report data")
		return
	}

	if ok := s.writeDataset(c, ds, report.Format, reportFilename(&report)); !ok {
		s.finishGeneration(&generation, "FAILED", fmt.Errorf("render %s failed", report.Format))
		return
	}
	s.finishGeneration(&generation, "COMPLETED", nil)
}

func (s *ReportHandler) finishGeneration(g *models.GeneratedReport, status string, runErr error) {
	now := time.Now()
	g.Status = status
	g.EndTime = &now
	if runErr != nil {
		msg := runErr.Error()
		g.ErrorMessage = &msg
	}
	if err := s.db.Save(g).Error; err != nil {
		config.LogError(config.GetLogger(), "reports", "finishGeneration", "save generation record", err)
	}
}

func parseFormat(v string) (models.ReportFormat, error) {
	switch strings.ToUpper(v) {
	case "CSV":
		return models.ReportFormatCSV, nil
	case "JSON":
		return models.ReportFormatJSON, nil
	case "EXCEL", "XLSX":
		return models.ReportFormatExcel, nil
	case "PDF":
		return models.ReportFormatPDF, nil
	}
	return "", fmt.Errorf("unknown report format %q", v)
}

func reportFilename(r *models.Report) string {
	return fmt.Sprintf("%s_%s", strings.ToLower(string(r.ReportType)), time.Now().Format("20060102_150405"))
}

// -- Ad-hoc report endpoints --

func (s *ReportHandler) InventoryReport(c *gin.Context) {
	s.adhoc(c, models.ReportTypeInventory)
}

func (s *ReportHandler) MovementsReport(c *gin.Context) {
	s.adhoc(c, models.ReportTypeMovements)
}

func (s *ReportHandler) OrdersReport(c *gin.Context) {
	s.adhoc(c, models.ReportTypeOrders)
}

func (s *ReportHandler) SalesReport(c *gin.Context) {
	s.adhoc(c, models.ReportTypeSales)
}

func (s *ReportHandler) adhoc(c *gin.Context, reportType models.ReportType) {
	format := models.ReportFormatJSON
	if v := c.Query("format"); v != "" {
		parsed, err := parseFormat(v)
		if err != nil {
			s.error(c, http.StatusBadRequest, err.Error())
			return
		}
		format = parsed
	}
	if format == models.ReportFormatPDF {
		s.error(c, http.StatusBadRequest, "PDF output is not supported")
		return
	}

	ds, err := s.buildDataset(c, reportType)
	if err != nil {
		config.LogError(config.GetLogger(), "reports", "adhoc", "build dataset", err)
		s.error(c, http.StatusInternalServerError, "Failed to build report data")
		return
	}

	name := fmt.Sprintf("%s_%s", strings.ToLower(string(reportType)), time.Now().Format("20060102_150405"))
	s.writeDataset(c, ds, format, name)
}

func (s *ReportHandler) buildDataset(c *gin.Context, reportType models.ReportType) (*dataset, error) {
	switch reportType {
	case models.ReportTypeInventory:
		var rows []models.Inventory
		query := s.db.Preload("Product").Preload("Warehouse").Order("id ASC")
		if warehouseID := c.Query("warehouse_id"); warehouseID != "" {
			query = query.Where("warehouse_id = ?", warehouseID)
		}
		if c.Query("low_stock") == "true" {
			query = query.Where("quantity <= reorder_level")
		}
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		return inventoryDataset(rows), nil

	case models.ReportTypeMovements:
		var rows []models.InventoryMovement
		query := s.db.Preload("Inventory.Product").Preload("Inventory.Warehouse").
			Order("created_at DESC")
		if from := c.Query("from"); from != "" {
			t, err := time.Parse("2006-01-02", from)
			if err != nil {
				return nil, fmt.Errorf("invalid from date %q", from)
			}
			query = query.Where("created_at >= ?", t)
		}
		if to := c.Query("to"); to != "" {
			t, err := time.Parse("2006-01-02", to)
			if err != nil {
				return nil, fmt.Errorf("invalid to date %q", to)
			}
			query = query.Where("created_at < ?", t.AddDate(0, 0, 1))
		}
		if movementType := c.Query("movement_type"); movementType != "" {
			query = query.Where("movement_type = ?", strings.ToUpper(movementType))
		}
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		return movementsDataset(rows), nil

	case models.ReportTypeOrders:
		var rows []models.PurchaseOrder
		query := s.db.Preload("Supplier").Preload("Warehouse").Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", strings.ToUpper(status))
		}
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		return purchaseOrdersDataset(rows), nil

	case models.ReportTypeSales:
		var rows []models.SalesOrder
		query := s.db.Preload("Customer").Preload("Warehouse").Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", strings.ToUpper(status))
		}
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		return salesOrdersDataset(rows), nil
	}

	return nil, fmt.Errorf("unknown report type %q", reportType)
}

func (s *ReportHandler) writeDataset(c *gin.Context, ds *dataset, format models.ReportFormat, filename string) bool {
	switch format {
	case models.ReportFormatJSON:
		s.success(c, renderJSON(ds))
		return true

	case models.ReportFormatCSV:
		out, err := renderCSV(ds)
		if err != nil {
			config.LogError(config.GetLogger(), "reports", "writeDataset", "render csv", err)
			s.error(c, http.StatusInternalServerError, "Failed to render report")
			return false
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", out)
		return true

	case models.ReportFormatExcel:
		out, err := renderExcel(ds)
		if err != nil {
			config.LogError(config.GetLogger(), "reports", "writeDataset", "render excel", err)
			s.error(c, http.StatusInternalServerError, "Failed to render report")
			return false
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
		return true

	case models.ReportFormatPDF:
		s.error(c, http.StatusBadRequest, "PDF output is not supported")
		return false
	}

	s.error(c, http.StatusBadRequest, "Unknown report format")
	return false
}
