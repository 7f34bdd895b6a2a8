package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wms-system/config"
	"wms-system/internal/database/models"
)

const (
	PRODUCT_LIST_CACHE_KEY = "products:all"
	PRODUCT_CACHE_DURATION = 5 * time.Minute
)

type CatalogHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogHandler(db *gorm.DB, redisClient *redis.Client) *CatalogHandler {
	return &CatalogHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *CatalogHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *CatalogHandler) created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *CatalogHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func (s *CatalogHandler) invalidateProductCaches(ctx context.Context) {
	_ = s.redis.Del(ctx, PRODUCT_LIST_CACHE_KEY)
}

func (s *CatalogHandler) paramID32(c *gin.Context) (int32, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return int32(id), true
}

func validAmount(value string) bool {
	d, err := decimal.NewFromString(value)
	return err == nil && !d.IsNegative()
}

// -- Categories --

type CategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

func (s *CatalogHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.db.Create(&category).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "CreateCategory", "create category", err)
		s.error(c, http.StatusInternalServerError, "Failed to create category")
		return
	}

	s.created(c, category)
}

func (s *CatalogHandler) ListCategories(c *gin.Context) {
	var categories []models.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "ListCategories", "list categories", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}
	s.success(c, categories)
}

func (s *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	var category models.Category
	if err := s.db.Preload("Products").Where("id = ?", id).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Category not found")
			return
		}
		config.LogError(config.GetLogger(), "catalog", "GetCategory", "load category", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}
	s.success(c, category)
}

func (s *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	var category models.Category
	if err := s.db.Where("id = ?", id).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Category not found")
			return
		}
		config.LogError(config.GetLogger(), "catalog", "UpdateCategory", "load category", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	category.Name = req.Name
	category.Description = req.Description

	if err := s.db.Save(&category).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "UpdateCategory", "save category", err)
		s.error(c, http.StatusInternalServerError, "Failed to update category")
		return
	}
	s.success(c, category)
}

func (s *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	var count int64
	if err := s.db.Model(&models.Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "DeleteCategory", "count products", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}
	if count > 0 {
		s.error(c, http.StatusConflict, "Category still has products")
		return
	}

	result := s.db.Where("id = ?", id).Delete(&models.Category{})
	if result.Error != nil {
		config.LogError(config.GetLogger(), "catalog", "DeleteCategory", "delete category", result.Error)
		s.error(c, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	if result.RowsAffected == 0 {
		s.error(c, http.StatusNotFound, "Category not found")
		return
	}

	s.success(c, gin.H{"deleted": id})
}

// -- Products --

type ProductRequest struct {
	SKU          string  `json:"sku" binding:"required"`
	Barcode      *string `json:"barcode,omitempty"`
	ProductName  string  `json:"product_name" binding:"required"`
	Description  *string `json:"description,omitempty"`
	CategoryID   *int32  `json:"category_id,omitempty"`
	CostPrice    string  `json:"cost_price" binding:"required"`
	SellingPrice string  `json:"selling_price" binding:"required"`
	Weight       *string `json:"weight,omitempty"`
	Height       *string `json:"height,omitempty"`
	Width        *string `json:"width,omitempty"`
	Length       *string `json:"length,omitempty"`
}

func (s *CatalogHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if !validAmount(req.CostPrice) || !validAmount(req.SellingPrice) {
		s.error(c, http.StatusBadRequest, "Prices must be non-negative decimal strings")
		return
	}

	var existing models.Product
	err := s.db.Where("sku = ?", req.SKU).First(&existing).Error
	if err == nil {
		s.error(c, http.StatusBadRequest, "SKU already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		config.LogError(config.GetLogger(), "catalog", "CreateProduct", "check sku", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	if req.CategoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ?", *req.CategoryID).First(&category).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				s.error(c, http.StatusBadRequest, "Unknown category")
				return
			}
			config.LogError(config.GetLogger(), "catalog", "CreateProduct", "load category", err)
			s.error(c, http.StatusInternalServerError, "database error")
			return
		}
	}

	product := models.Product{
		SKU:          req.SKU,
		Barcode:      req.Barcode,
		ProductName:  req.ProductName,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Weight:       req.Weight,
		Height:       req.Height,
		Width:        req.Width,
		Length:       req.Length,
		IsActive:     true,
	}

	if err := s.db.Create(&product).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "CreateProduct", "create product", err)
		s.error(c, http.StatusInternalServerError, "Failed to create product")
		return
	}

	s.invalidateProductCaches(c.Request.Context())
	s.created(c, product)
}

func (s *CatalogHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	// Only the unfiltered listing is cached.
	unfiltered := c.Query("search") == "" && c.Query("category_id") == "" && c.Query("is_active") == ""
	if unfiltered {
		if cached, err := s.redis.Get(ctx, PRODUCT_LIST_CACHE_KEY).Result(); err == nil {
			var products []models.Product
			if err := json.Unmarshal([]byte(cached), &products); err == nil {
				s.success(c, products)
				return
			}
		}
	}

	query := s.db.Model(&models.Product{}).Preload("Category").Order("product_name ASC")
	if search := c.Query("search"); search != "" {
		query = query.Where("product_name ILIKE ? OR sku ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "ListProducts", "list products", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	if unfiltered {
		if encoded, err := json.Marshal(products); err == nil {
			_ = s.redis.Set(ctx, PRODUCT_LIST_CACHE_KEY, encoded, PRODUCT_CACHE_DURATION)
		}
	}

	s.success(c, products)
}

func (s *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	var product models.Product
	if err := s.db.Preload("Category").Where("id = ?", id).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Product not found")
			return
		}
		config.LogError(config.GetLogger(), "catalog", "GetProduct", "load product", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}
	s.success(c, product)
}

func (s *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	var product models.Product
	if err := s.db.Where("id = ?", id).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Product not found")
			return
		}
		config.LogError(config.GetLogger(), "catalog", "UpdateProduct", "load product", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if !validAmount(req.CostPrice) || !validAmount(req.SellingPrice) {
		s.error(c, http.StatusBadRequest, "Prices must be non-negative decimal strings")
		return
	}

	if req.SKU != product.SKU {
		var existing models.Product
		err := s.db.Where("sku = ?", req.SKU).First(&existing).Error
		if err == nil {
			s.error(c, http.StatusBadRequest, "SKU already exists")
			return
		} else if err != gorm.ErrRecordNotFound {
			config.LogError(config.GetLogger(), "catalog", "UpdateProduct", "check sku", err)
			s.error(c, http.StatusInternalServerError, "database error")
			return
		}
	}

	product.SKU = req.SKU
	product.Barcode = req.Barcode
	product.ProductName = req.ProductName
	product.Description = req.Description
	product.CategoryID = req.CategoryID
	product.CostPrice = req.CostPrice
	product.SellingPrice = req.SellingPrice
	product.Weight = req.Weight
	product.Height = req.Height
	product.Width = req.Width
	product.Length = req.Length

	if err := s.db.Save(&product).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "UpdateProduct", "save product", err)
		s.error(c, http.StatusInternalServerError, "Failed to update product")
		return
	}

	s.invalidateProductCaches(c.Request.Context())
	s.success(c, product)
}

func (s *CatalogHandler) DeactivateProduct(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	result := s.db.Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		config.LogError(config.GetLogger(), "catalog", "DeactivateProduct", "deactivate product", result.Error)
		s.error(c, http.StatusInternalServerError, "Failed to deactivate product")
		return
	}
	if result.RowsAffected == 0 {
		s.error(c, http.StatusNotFound, "Product not found")
		return
	}

	s.invalidateProductCaches(c.Request.Context())
	s.success(c, gin.H{"deactivated": id})
}

// ListProductInventory returns the per-warehouse balances for one product.
func (s *CatalogHandler) ListProductInventory(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	var product models.Product
	if err := s.db.Where("id = ?", id).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Product not found")
			return
		}
		config.LogError(config.GetLogger(), "catalog", "ListProductInventory", "load product", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var balances []models.Inventory
	if err := s.db.Preload("Warehouse").Where("product_id = ?", id).Find(&balances).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "ListProductInventory", "list balances", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, gin.H{
		"product":   product,
		"inventory": balances,
	})
}

// -- Warehouses --

type WarehouseRequest struct {
	WarehouseName string  `json:"warehouse_name" binding:"required"`
	Address       *string `json:"address,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	Country       *string `json:"country,omitempty"`
	PostalCode    *string `json:"postal_code,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	ManagerID     *int64  `json:"manager_id,omitempty"`
}

func (s *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	warehouse := models.Warehouse{
		WarehouseName: req.WarehouseName,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Country:       req.Country,
		PostalCode:    req.PostalCode,
		Phone:         req.Phone,
		Email:         req.Email,
		ManagerID:     req.ManagerID,
		IsActive:      true,
	}

	if err := s.db.Create(&warehouse).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "CreateWarehouse", "create warehouse", err)
		s.error(c, http.StatusInternalServerError, "Failed to create warehouse")
		return
	}

	s.created(c, warehouse)
}

func (s *CatalogHandler) ListWarehouses(c *gin.Context) {
	query := s.db.Model(&models.Warehouse{}).Order("warehouse_name ASC")
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var warehouses []models.Warehouse
	if err := query.Find(&warehouses).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "ListWarehouses", "list warehouses", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}
	s.success(c, warehouses)
}

func (s *CatalogHandler) GetWarehouse(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	var warehouse models.Warehouse
	if err := s.db.Where("id = ?", id).First(&warehouse).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Warehouse not found")
			return
		}
		config.LogError(config.GetLogger(), "catalog", "GetWarehouse", "load warehouse", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}
	s.success(c, warehouse)
}

func (s *CatalogHandler) UpdateWarehouse(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	var warehouse models.Warehouse
	if err := s.db.Where("id = ?", id).First(&warehouse).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Warehouse not found")
			return
		}
		config.LogError(config.GetLogger(), "catalog", "UpdateWarehouse", "load warehouse", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var req WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	warehouse.WarehouseName = req.WarehouseName
	warehouse.Address = req.Address
	warehouse.City = req.City
	warehouse.State = req.State
	warehouse.Country = req.Country
	warehouse.PostalCode = req.PostalCode
	warehouse.Phone = req.Phone
	warehouse.Email = req.Email
	warehouse.ManagerID = req.ManagerID

	if err := s.db.Save(&warehouse).Error; err != nil {
		config.LogError(config.GetLogger(), "catalog", "UpdateWarehouse", "save warehouse", err)
		s.error(c, http.StatusInternalServerError, "Failed to update warehouse")
		return
	}
	s.success(c, warehouse)
}

func (s *CatalogHandler) DeactivateWarehouse(c *gin.Context) {
	id, ok := s.paramID32(c)
	if !ok {
		return
	}

	result := s.db.Model(&models.Warehouse{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		config.LogError(config.GetLogger(), "catalog", "DeactivateWarehouse", "deactivate warehouse", result.Error)
		s.error(c, http.StatusInternalServerError, "Failed to deactivate warehouse")
		return
	}
	if result.RowsAffected == 0 {
		s.error(c, http.StatusNotFound, "Warehouse not found")
		return
	}

	s.success(c, gin.H{"deactivated": id})
}
