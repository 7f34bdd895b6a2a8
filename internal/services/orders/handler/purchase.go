package handler

import (
	"context"
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
	invhandler "wms-system/internal/services/inventory/handler"
)

const (
	PO_LIST_CACHE_KEY = "orders:purchase"
	SO_LIST_CACHE_KEY = "orders:sales"
	CACHE_TTL_SHORT   = 5 * time.Minute
)

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

type PurchaseOrderHandler struct {
	db        *gorm.DB
	redis     *redis.Client
	inventory *invhandler.InventoryHandler
}

func NewPurchaseOrderHandler(db *gorm.DB, redisClient *redis.Client, inventory *invhandler.InventoryHandler) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		db:        db,
		redis:     redisClient,
		inventory: inventory,
	}
}

func (s *PurchaseOrderHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *PurchaseOrderHandler) created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *PurchaseOrderHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func (s *PurchaseOrderHandler) invalidateOrderCaches(ctx context.Context) {
	_ = s.redis.Del(ctx, PO_LIST_CACHE_KEY)
}

func (s *PurchaseOrderHandler) loadOrder(c *gin.Context) (*models.PurchaseOrder, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid purchase order id")
		return nil, false
	}

	var po models.PurchaseOrder
	if err := s.db.Where("id = ?", id).First(&po).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Purchase order not found")
			return nil, false
		}
		config.LogError(config.GetLogger(), "orders", "loadOrder", "load purchase order", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return nil, false
	}
	return &po, true
}

func (s *PurchaseOrderHandler) reload(c *gin.Context, id int64) {
	var po models.PurchaseOrder
	if err := s.db.Where("id = ?", id).
		Preload("Supplier").
		Preload("Warehouse").
		Preload("Items.Product").
		First(&po).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "reload", "reload purchase order", err)
		s.error(c, http.StatusInternalServerError, "Failed to reload order")
		return
	}
	s.success(c, po)
}

// -- CRUD --

type CreatePurchaseOrderRequest struct {
	PONumber             string  `json:"po_number" binding:"required"`
	SupplierID           int64   `json:"supplier_id" binding:"required"`
	WarehouseID          int32   `json:"warehouse_id" binding:"required"`
	ExpectedDeliveryDate *string `json:"expected_delivery_date,omitempty"`
	ShippingAddress      *string `json:"shipping_address,omitempty"`
	ShippingMethod       *string `json:"shipping_method,omitempty"`
	Tax                  string  `json:"tax"`
	ShippingCost         string  `json:"shipping_cost"`
	Notes                *string `json:"notes,omitempty"`
}

func (s *PurchaseOrderHandler) Create(c *gin.Context) {
	var req CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var existing models.PurchaseOrder
	err := s.db.Where("po_number = ?", req.PONumber).First(&existing).Error
	if err == nil {
		s.error(c, http.StatusBadRequest, "PO number already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		config.LogError(config.GetLogger(), "orders", "Create", "check po_number", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	if _, _, err := computePurchaseOrderTotals(nil, req.Tax, req.ShippingCost); err != nil {
		s.error(c, http.StatusBadRequest, err.Error())
		return
	}

	tax := req.Tax
	if tax == "" {
		tax = "0.00"
	}
	shippingCost := req.ShippingCost
	if shippingCost == "" {
		shippingCost = "0.00"
	}

	po := models.PurchaseOrder{
		PONumber:             req.PONumber,
		SupplierID:           req.SupplierID,
		WarehouseID:          req.WarehouseID,
		Status:               models.POStatusDraft,
		OrderDate:            time.Now(),
		ExpectedDeliveryDate: nil,
		ShippingAddress:      req.ShippingAddress,
		ShippingMethod:       req.ShippingMethod,
		Tax:                  tax,
		ShippingCost:         shippingCost,
		Notes:                req.Notes,
		CreatedBy:            middleware.ActorID(c),
	}
	if req.ExpectedDeliveryDate != nil {
		po.ExpectedDeliveryDate = parseDate(*req.ExpectedDeliveryDate)
	}

	if err := s.db.Create(&po).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "Create", "create purchase order", err)
		s.error(c, http.StatusInternalServerError, "Failed to create purchase order")
		return
	}

	s.invalidateOrderCaches(c.Request.Context())
	s.created(c, po)
}

func (s *PurchaseOrderHandler) Get(c *gin.Context) {
	po, ok := s.loadOrder(c)
	if !ok {
		return
	}
	s.reload(c, po.ID)
}

func (s *PurchaseOrderHandler) List(c *gin.Context) {
	query := s.db.Model(&models.PurchaseOrder{}).
		Preload("Supplier").
		Preload("Warehouse").
		Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if supplierID := c.Query("supplier_id"); supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("po_number ILIKE ?", "%"+search+"%")
	}

	var orders []models.PurchaseOrder
	if err := query.Find(&orders).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "List", "list purchase orders", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, orders)
}

// -- Line items --

type AddPurchaseOrderItemRequest struct {
	ProductID int32   `json:"product_id" binding:"required"`
	Quantity  int32   `json:"quantity" binding:"required"`
	UnitPrice string  `json:"unit_price" binding:"required"`
	TaxRate   string  `json:"tax_rate"`
	Notes     *string `json:"notes,omitempty"`
}

func (s *PurchaseOrderHandler) AddItem(c *gin.Context) {
	po, ok := s.loadOrder(c)
	if !ok {
		return
	}

	if !poEditable(po.Status) {
		s.error(c, http.StatusConflict, "Cannot modify purchase order in status "+po.Status.String())
		return
	}

	var req AddPurchaseOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Quantity <= 0 {
		s.error(c, http.StatusBadRequest, "Quantity must be positive")
		return
	}
	unitPrice, err := parseAmount("unit_price", req.UnitPrice)
	if err != nil || unitPrice.IsNegative() {
		s.error(c, http.StatusBadRequest, "Invalid unit price")
		return
	}
	if _, err := parseAmount("tax_rate", req.TaxRate); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid tax rate")
		return
	}

	var product models.Product
	if err := s.db.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, fmt.Sprintf("Product %d not found", req.ProductID))
			return
		}
		config.LogError(config.GetLogger(), "orders", "AddItem", "load product", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	taxRate := req.TaxRate
	if taxRate == "" {
		taxRate = "0.00"
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	item := models.PurchaseOrderItem{
		PurchaseOrderID: po.ID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		TaxRate:         taxRate,
		Notes:           req.Notes,
	}
	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "AddItem", "create item", err)
		s.error(c, http.StatusInternalServerError, "Failed to create order item")
		return
	}

	if err := recalcPurchaseOrderTotals(tx, po); err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "AddItem", "recalculate totals", err)
		s.error(c, http.StatusInternalServerError, "Failed to update order totals")
		return
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "AddItem", "commit", err)
		s.error(c, http.StatusInternalServerError, "Failed to commit transaction")
		return
	}

	s.invalidateOrderCaches(c.Request.Context())
	s.created(c, item)
}

func (s *PurchaseOrderHandler) RemoveItem(c *gin.Context) {
	po, ok := s.loadOrder(c)
	if !ok {
		return
	}

	if !poEditable(po.Status) {
		s.error(c, http.StatusConflict, "Cannot modify purchase order in status "+po.Status.String())
		return
	}

	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid item id")
		return
	}

	var item models.PurchaseOrderItem
	if err := s.db.Where("id = ? AND purchase_order_id = ?", itemID, po.ID).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Order item not found")
			return
		}
		config.LogError(config.GetLogger(), "orders", "RemoveItem", "load item", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Delete(&item).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "RemoveItem", "delete item", err)
		s.error(c, http.StatusInternalServerError, "Failed to delete order item")
		return
	}

	if err := recalcPurchaseOrderTotals(tx, po); err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "RemoveItem", "recalculate totals", err)
		s.error(c, http.StatusInternalServerError, "Failed to update order totals")
		return
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "RemoveItem", "commit", err)
		s.error(c, http.StatusInternalServerError, "Failed to commit transaction")
		return
	}

	s.invalidateOrderCaches(c.Request.Context())
	s.success(c, gin.H{"deleted": item.ID})
}

// -- Transitions --

func (s *PurchaseOrderHandler) Submit(c *gin.Context) {
	s.simpleTransition(c, poEventSubmit, nil)
}

func (s *PurchaseOrderHandler) Approve(c *gin.Context) {
	actor := middleware.ActorID(c)
	s.simpleTransition(c, poEventApprove, func(po *models.PurchaseOrder) {
		po.ApprovedBy = actor
	})
}

func (s *PurchaseOrderHandler) Ship(c *gin.Context) {
	s.simpleTransition(c, poEventShip, nil)
}

func (s *PurchaseOrderHandler) Cancel(c *gin.Context) {
	s.simpleTransition(c, poEventCancel, nil)
}

func (s *PurchaseOrderHandler) simpleTransition(c *gin.Context, event poEvent, apply func(*models.PurchaseOrder)) {
	po, ok := s.loadOrder(c)
	if !ok {
		return
	}

	next, err := transitionPO(po.Status, event)
	if err != nil {
		s.error(c, http.StatusConflict, err.Error())
		return
	}

	po.Status = next
	if apply != nil {
		apply(po)
	}

	if err := s.db.Save(po).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "simpleTransition", string(event), err)
		s.error(c, http.StatusInternalServerError, "Failed to update purchase order")
		return
	}

	s.invalidateOrderCaches(c.Request.Context())
	s.reload(c, po.ID)
}

// -- Receipt --

type ReceiveItemRequest struct {
	ID               int64 `json:"id"`
	ReceivedQuantity int32 `json:"received_quantity"`
}

type ReceivePurchaseOrderRequest struct {
	Items []ReceiveItemRequest `json:"items"`
}

// Receive processes a batch of received lines. Unknown item ids and
// non-positive quantities are skipped; received amounts are clamped to the
// remaining quantity on each line. Inventory is credited and the ledger
// written in the same transaction. The order flips to RECEIVED only once
// every line is fully received; a partial receipt leaves the status alone.
func (s *PurchaseOrderHandler) Receive(c *gin.Context) {
	po, ok := s.loadOrder(c)
	if !ok {
		return
	}

	if _, err := transitionPO(po.Status, poEventReceive); err != nil {
		s.error(c, http.StatusConflict, err.Error())
		return
	}

	var req ReceivePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	actor := middleware.ActorID(c)

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	touched := make([]int64, 0, len(req.Items))
	for _, line := range req.Items {
		if line.ID == 0 || line.ReceivedQuantity <= 0 {
			continue
		}

		var item models.PurchaseOrderItem
		if err := tx.Where("id = ? AND purchase_order_id = ?", line.ID, po.ID).First(&item).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			tx.Rollback()
			config.LogError(config.GetLogger(), "orders", "Receive", "load item", err)
			s.error(c, http.StatusInternalServerError, "database error")
			return
		}

		receivedQty := line.ReceivedQuantity
		remaining := item.Quantity - item.ReceivedQuantity
		if receivedQty > remaining {
			receivedQty = remaining
		}
		if receivedQty <= 0 {
			continue
		}

		item.ReceivedQuantity += receivedQty
		if err := tx.Save(&item).Error; err != nil {
			tx.Rollback()
			config.LogError(config.GetLogger(), "orders", "Receive", "update item", err)
			s.error(c, http.StatusInternalServerError, "Failed to update order item")
			return
		}

		inv, err := invhandler.GetOrCreateInventory(tx, item.ProductID, po.WarehouseID)
		if err != nil {
			tx.Rollback()
			config.LogError(config.GetLogger(), "orders", "Receive", "get or create inventory", err)
			s.error(c, http.StatusInternalServerError, "database error")
			return
		}

		reference := fmt.Sprintf("PO #%s", po.PONumber)
		notes := fmt.Sprintf("Received from PO #%s", po.PONumber)
		if _, err := invhandler.ApplyMovement(tx, inv, models.MovementTypeIn, invhandler.DirectionIn, receivedQty, reference, notes, actor); err != nil {
			tx.Rollback()
			config.LogError(config.GetLogger(), "orders", "Receive", "apply movement", err)
			s.error(c, http.StatusInternalServerError, "Failed to record stock movement")
			return
		}
		touched = append(touched, inv.ID)
	}

	var items []models.PurchaseOrderItem
	if err := tx.Where("purchase_order_id = ?", po.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "Receive", "reload items", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	allReceived := len(items) > 0
	for _, item := range items {
		if item.ReceivedQuantity < item.Quantity {
			allReceived = false
			break
		}
	}

	if allReceived {
		now := time.Now()
		po.Status = models.POStatusReceived
		po.ActualDeliveryDate = &now
		if err := tx.Save(po).Error; err != nil {
			tx.Rollback()
			config.LogError(config.GetLogger(), "orders", "Receive", "update status", err)
			s.error(c, http.StatusInternalServerError, "Failed to update purchase order")
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "Receive", "commit", err)
		s.error(c, http.StatusInternalServerError, "Failed to commit transaction")
		return
	}

	s.inventory.InvalidateInventoryCaches(c.Request.Context(), touched...)
	s.invalidateOrderCaches(c.Request.Context())
	s.reload(c, po.ID)
}
