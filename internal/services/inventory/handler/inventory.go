package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"wms-system/config"
	"wms-system/internal/database/models"
	"wms-system/internal/gateway/middleware"
)

const (
	INVENTORY_CACHE_PREFIX   = "inventory:"
	INVENTORY_LIST_CACHE_KEY = "inventory:balances"
	CACHE_TTL_SHORT          = 5 * time.Minute
	CACHE_TTL_MEDIUM         = 30 * time.Minute
)

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type InventoryHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewInventoryHandler(db *gorm.DB, redisClient *redis.Client) *InventoryHandler {
	return &InventoryHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *InventoryHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *InventoryHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func (s *InventoryHandler) InvalidateInventoryCaches(ctx context.Context, inventoryIDs ...int64) {
	_ = s.redis.Del(ctx, INVENTORY_LIST_CACHE_KEY)

	for _, id := range inventoryIDs {
		cacheKey := fmt.Sprintf("%s%d", INVENTORY_CACHE_PREFIX, id)
		_ = s.redis.Del(ctx, cacheKey)
	}
}

// -- Balances --

func (s *InventoryHandler) ListInventory(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID := c.Query("warehouse_id")
	productID := c.Query("product_id")

	unfiltered := warehouseID == "" && productID == ""
	if unfiltered {
		if cached, err := s.redis.Get(ctx, INVENTORY_LIST_CACHE_KEY).Result(); err == nil {
			var balances []models.Inventory
			if json.Unmarshal([]byte(cached), &balances) == nil {
				s.success(c, balances)
				return
			}
		}
	}

	query := s.db.Model(&models.Inventory{}).Preload("Product").Preload("Warehouse")
	if warehouseID != "" {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	if productID != "" {
		query = query.Where("product_id = ?", productID)
	}

	var balances []models.Inventory
	if err := query.Find(&balances).Error; err != nil {
		config.LogError(config.GetLogger(), "inventory", "ListInventory", "query balances", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	if unfiltered {
		if payload, err := json.Marshal(balances); err == nil {
			_ = s.redis.Set(ctx, INVENTORY_LIST_CACHE_KEY, payload, CACHE_TTL_SHORT)
		}
	}

	s.success(c, balances)
}

func (s *InventoryHandler) GetInventory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid inventory id")
		return
	}

	var inv models.Inventory
	if err := s.db.Preload("Product").Preload("Warehouse").
		Where("id = ?", id).First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Inventory not found")
			return
		}
		config.LogError(config.GetLogger(), "inventory", "GetInventory", "load balance", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, inv)
}

func (s *InventoryHandler) ListLowStock(c *gin.Context) {
	var balances []models.Inventory
	if err := s.db.Preload("Product").Preload("Warehouse").
		Where("quantity <= reorder_level").
		Find(&balances).Error; err != nil {
		config.LogError(config.GetLogger(), "inventory", "ListLowStock", "query balances", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, balances)
}

// -- Movements --

func (s *InventoryHandler) ListMovements(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid inventory id")
		return
	}

	var inv models.Inventory
	if err := s.db.Where("id = ?", id).First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Inventory not found")
			return
		}
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var movements []models.InventoryMovement
	if err := s.db.Where("inventory_id = ?", id).
		Order("created_at DESC").
		Find(&movements).Error; err != nil {
		config.LogError(config.GetLogger(), "inventory", "ListMovements", "query movements", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, movements)
}

func (s *InventoryHandler) ListAllMovements(c *gin.Context) {
	query := s.db.Model(&models.InventoryMovement{}).
		Preload("Inventory.Product").
		Preload("Inventory.Warehouse").
		Order("created_at DESC")

	if movementType := c.Query("movement_type"); movementType != "" {
		query = query.Where("movement_type = ?", movementType)
	}
	if reference := c.Query("reference"); reference != "" {
		query = query.Where("reference ILIKE ?", "%"+reference+"%")
	}

	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if pageSize <= 0 {
		pageSize = 50
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	var movements []models.InventoryMovement
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&movements).Error; err != nil {
		config.LogError(config.GetLogger(), "inventory", "ListAllMovements", "query movements", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, movements)
}

// -- Administrative adjustments --

type StockAdjustmentRequest struct {
	Quantity  int32  `json:"quantity" binding:"required"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

func (s *InventoryHandler) AddStock(c *gin.Context) {
	s.adjustStock(c, DirectionIn, models.MovementTypeIn)
}

func (s *InventoryHandler) RemoveStock(c *gin.Context) {
	s.adjustStock(c, DirectionOut, models.MovementTypeOut)
}

func (s *InventoryHandler) adjustStock(c *gin.Context, dir Direction, movementType models.MovementType) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid inventory id")
		return
	}

	var req StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Quantity <= 0 {
		s.error(c, http.StatusBadRequest, "Quantity must be positive")
		return
	}

	actor := middleware.ActorID(c)

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	inv, err := LockInventoryByID(tx, id)
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Inventory not found")
			return
		}
		config.LogError(config.GetLogger(), "inventory", "adjustStock", "lock balance", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	movement, err := ApplyMovement(tx, inv, movementType, dir, req.Quantity, req.Reference, req.Notes, actor)
	if err != nil {
		tx.Rollback()
		if err == ErrInsufficientStock {
			s.error(c, http.StatusBadRequest, fmt.Sprintf("Insufficient inventory. Available: %d, Requested: %d",
				inv.Quantity, req.Quantity))
			return
		}
		if err == ErrInvalidQuantity {
			s.error(c, http.StatusBadRequest, "Quantity must be positive")
			return
		}
		config.LogError(config.GetLogger(), "inventory", "adjustStock", "apply movement", err)
		s.error(c, http.StatusInternalServerError, "Failed to record stock movement")
		return
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "inventory", "adjustStock", "commit", err)
		s.error(c, http.StatusInternalServerError, "Failed to commit transaction")
		return
	}

	s.InvalidateInventoryCaches(c.Request.Context(), inv.ID)

	s.success(c, gin.H{
		"new_quantity": inv.Quantity,
		"movement_id":  movement.ID,
	})
}

// -- Transfers --

type TransferStockRequest struct {
	ProductID       int32  `json:"product_id" binding:"required"`
	FromWarehouseID int32  `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   int32  `json:"to_warehouse_id" binding:"required"`
	Quantity        int32  `json:"quantity" binding:"required"`
	Reference       string `json:"reference"`
	Notes           string `json:"notes"`
}

// TransferStock moves quantity between two warehouse balances as a paired
// OUT/IN in a single transaction. Balances are locked in a fixed order to
// avoid deadlocking against the opposite transfer.
func (s *InventoryHandler) TransferStock(c *gin.Context) {
	var req TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Quantity <= 0 {
		s.error(c, http.StatusBadRequest, "Quantity must be positive")
		return
	}
	if req.FromWarehouseID == req.ToWarehouseID {
		s.error(c, http.StatusBadRequest, "Source and destination warehouse must differ")
		return
	}

	actor := middleware.ActorID(c)

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var source, dest *models.Inventory
	var err error
	if req.FromWarehouseID < req.ToWarehouseID {
		source, err = LockInventory(tx, req.ProductID, req.FromWarehouseID)
		if err == nil {
			dest, err = GetOrCreateInventory(tx, req.ProductID, req.ToWarehouseID)
		}
	} else {
		dest, err = GetOrCreateInventory(tx, req.ProductID, req.ToWarehouseID)
		if err == nil {
			source, err = LockInventory(tx, req.ProductID, req.FromWarehouseID)
		}
	}
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Stock not found for this product and warehouse")
			return
		}
		config.LogError(config.GetLogger(), "inventory", "TransferStock", "lock balances", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	if source.Quantity < req.Quantity {
		tx.Rollback()
		s.error(c, http.StatusBadRequest, fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d",
			source.Quantity, req.Quantity))
		return
	}

	if _, err := ApplyMovement(tx, source, models.MovementTypeTransfer, DirectionOut, req.Quantity, req.Reference, req.Notes, actor); err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "inventory", "TransferStock", "outbound movement", err)
		s.error(c, http.StatusInternalServerError, "Failed to record stock movement")
		return
	}
	if _, err := ApplyMovement(tx, dest, models.MovementTypeTransfer, DirectionIn, req.Quantity, req.Reference, req.Notes, actor); err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "inventory", "TransferStock", "inbound movement", err)
		s.error(c, http.StatusInternalServerError, "Failed to record stock movement")
		return
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "inventory", "TransferStock", "commit", err)
		s.error(c, http.StatusInternalServerError, "Failed to commit transaction")
		return
	}

	s.InvalidateInventoryCaches(c.Request.Context(), source.ID, dest.ID)

	s.success(c, gin.H{
		"source_quantity":      source.Quantity,
		"destination_quantity": dest.Quantity,
	})
}
