package handler

import (
	"context"
	"errors"
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

type SalesOrderHandler struct {
	db        *gorm.DB
	redis     *redis.Client
	inventory *invhandler.InventoryHandler
}

func NewSalesOrderHandler(db *gorm.DB, redisClient *redis.Client, inventory *invhandler.InventoryHandler) *SalesOrderHandler {
	return &SalesOrderHandler{
		db:        db,
		redis:     redisClient,
		inventory: inventory,
	}
}

func (s *SalesOrderHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *SalesOrderHandler) created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *SalesOrderHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func (s *SalesOrderHandler) invalidateOrderCaches(ctx context.Context) {
	_ = s.redis.Del(ctx, SO_LIST_CACHE_KEY)
}

func (s *SalesOrderHandler) loadOrder(c *gin.Context) (*models.SalesOrder, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid sales order id")
		return nil, false
	}

	var so models.SalesOrder
	if err := s.db.Where("id = ?", id).First(&so).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Sales order not found")
			return nil, false
		}
		config.LogError(config.GetLogger(), "orders", "loadOrder", "load sales order", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return nil, false
	}
	return &so, true
}

func (s *SalesOrderHandler) reload(c *gin.Context, id int64) {
	var so models.SalesOrder
	if err := s.db.Where("id = ?", id).
		Preload("Customer").
		Preload("Warehouse").
		Preload("Items.Product").
		First(&so).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "reload", "reload sales order", err)
		s.error(c, http.StatusInternalServerError, "Failed to reload order")
		return
	}
	s.success(c, so)
}

// -- CRUD --

type CreateSalesOrderRequest struct {
	OrderNumber     string  `json:"order_number" binding:"required"`
	CustomerID      int64   `json:"customer_id" binding:"required"`
	WarehouseID     int32   `json:"warehouse_id" binding:"required"`
	ShippingAddress string  `json:"shipping_address" binding:"required"`
	ShippingMethod  *string `json:"shipping_method,omitempty"`
	Tax             string  `json:"tax"`
	ShippingCost    string  `json:"shipping_cost"`
	Discount        string  `json:"discount"`
	Notes           *string `json:"notes,omitempty"`
}

func (s *SalesOrderHandler) Create(c *gin.Context) {
	var req CreateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var existing models.SalesOrder
	err := s.db.Where("order_number = ?", req.OrderNumber).First(&existing).Error
	if err == nil {
		s.error(c, http.StatusBadRequest, "Order number already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		config.LogError(config.GetLogger(), "orders", "Create", "check order_number", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	if _, _, err := computeSalesOrderTotals(nil, req.Tax, req.ShippingCost, req.Discount); err != nil {
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
	discount := req.Discount
	if discount == "" {
		discount = "0.00"
	}

	so := models.SalesOrder{
		OrderNumber:     req.OrderNumber,
		CustomerID:      req.CustomerID,
		WarehouseID:     req.WarehouseID,
		Status:          models.SOStatusDraft,
		OrderDate:       time.Now(),
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
		Tax:             tax,
		ShippingCost:    shippingCost,
		Discount:        discount,
		Notes:           req.Notes,
		CreatedBy:       middleware.ActorID(c),
	}

	if err := s.db.Create(&so).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "Create", "create sales order", err)
		s.error(c, http.StatusInternalServerError, "Failed to create sales order")
		return
	}

	s.invalidateOrderCaches(c.Request.Context())
	s.created(c, so)
}

func (s *SalesOrderHandler) Get(c *gin.Context) {
	so, ok := s.loadOrder(c)
	if !ok {
		return
	}
	s.reload(c, so.ID)
}

func (s *SalesOrderHandler) List(c *gin.Context) {
	query := s.db.Model(&models.SalesOrder{}).
		Preload("Customer").
		Preload("Warehouse").
		Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("order_number ILIKE ?", "%"+search+"%")
	}

	var orders []models.SalesOrder
	if err := query.Find(&orders).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "List", "list sales orders", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, orders)
}

// -- Line items --

type AddSalesOrderItemRequest struct {
	ProductID int32   `json:"product_id" binding:"required"`
	Quantity  int32   `json:"quantity" binding:"required"`
	UnitPrice string  `json:"unit_price" binding:"required"`
	TaxRate   string  `json:"tax_rate"`
	Discount  string  `json:"discount"`
	Notes     *string `json:"notes,omitempty"`
}

// AddItem checks availability against the order's warehouse before
// accepting the line. The check is advisory: it does not reserve stock, and
// process/fulfill re-validate against the balances current at that time.
func (s *SalesOrderHandler) AddItem(c *gin.Context) {
	so, ok := s.loadOrder(c)
	if !ok {
		return
	}

	if !soEditable(so.Status) {
		s.error(c, http.StatusConflict, "Cannot modify sales order in status "+so.Status.String())
		return
	}

	var req AddSalesOrderItemRequest
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
	if _, err := parseAmount("discount", req.Discount); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid discount")
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

	var inv models.Inventory
	err = s.db.Where("product_id = ? AND warehouse_id = ?", req.ProductID, so.WarehouseID).
		First(&inv).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		config.LogError(config.GetLogger(), "orders", "AddItem", "check inventory", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}
	if err == gorm.ErrRecordNotFound || inv.Quantity < req.Quantity {
		s.error(c, http.StatusBadRequest, "Insufficient inventory")
		return
	}

	taxRate := req.TaxRate
	if taxRate == "" {
		taxRate = "0.00"
	}
	discount := req.Discount
	if discount == "" {
		discount = "0.00"
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	item := models.SalesOrderItem{
		SalesOrderID: so.ID,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		TaxRate:      taxRate,
		Discount:     discount,
		Notes:        req.Notes,
	}
	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "AddItem", "create item", err)
		s.error(c, http.StatusInternalServerError, "Failed to create order item")
		return
	}

	if err := recalcSalesOrderTotals(tx, so); err != nil {
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

func (s *SalesOrderHandler) RemoveItem(c *gin.Context) {
	so, ok := s.loadOrder(c)
	if !ok {
		return
	}

	if !soEditable(so.Status) {
		s.error(c, http.StatusConflict, "Cannot modify sales order in status "+so.Status.String())
		return
	}

	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid item id")
		return
	}

	var item models.SalesOrderItem
	if err := s.db.Where("id = ? AND sales_order_id = ?", itemID, so.ID).First(&item).Error; err != nil {
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

	if err := recalcSalesOrderTotals(tx, so); err != nil {
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

func (s *SalesOrderHandler) Submit(c *gin.Context) {
	s.simpleTransition(c, soEventSubmit, nil)
}

func (s *SalesOrderHandler) Pick(c *gin.Context) {
	s.simpleTransition(c, soEventPick, nil)
}

func (s *SalesOrderHandler) Deliver(c *gin.Context) {
	s.simpleTransition(c, soEventDeliver, func(so *models.SalesOrder) {
		now := time.Now()
		so.DeliveryDate = &now
	})
}

func (s *SalesOrderHandler) Cancel(c *gin.Context) {
	s.simpleTransition(c, soEventCancel, nil)
}

type ShipSalesOrderRequest struct {
	TrackingNumber *string `json:"tracking_number,omitempty"`
	ShippingMethod *string `json:"shipping_method,omitempty"`
}

func (s *SalesOrderHandler) Ship(c *gin.Context) {
	var req ShipSalesOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	s.simpleTransition(c, soEventShip, func(so *models.SalesOrder) {
		if req.TrackingNumber != nil {
			so.TrackingNumber = req.TrackingNumber
		}
		if req.ShippingMethod != nil {
			so.ShippingMethod = req.ShippingMethod
		}
		now := time.Now()
		so.ShippingDate = &now
	})
}

func (s *SalesOrderHandler) simpleTransition(c *gin.Context, event soEvent, apply func(*models.SalesOrder)) {
	so, ok := s.loadOrder(c)
	if !ok {
		return
	}

	next, err := transitionSO(so.Status, event)
	if err != nil {
		s.error(c, http.StatusConflict, err.Error())
		return
	}

	so.Status = next
	if apply != nil {
		apply(so)
	}

	if err := s.db.Save(so).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "simpleTransition", string(event), err)
		s.error(c, http.StatusInternalServerError, "Failed to update sales order")
		return
	}

	s.invalidateOrderCaches(c.Request.Context())
	s.reload(c, so.ID)
}

// -- Processing --

// Process re-validates availability for every line against the current
// balances and moves the order to PROCESSING. Nothing is debited here.
func (s *SalesOrderHandler) Process(c *gin.Context) {
	so, ok := s.loadOrder(c)
	if !ok {
		return
	}

	next, err := transitionSO(so.Status, soEventProcess)
	if err != nil {
		s.error(c, http.StatusConflict, err.Error())
		return
	}

	var items []models.SalesOrderItem
	if err := s.db.Preload("Product").Where("sales_order_id = ?", so.ID).Find(&items).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "Process", "load items", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	for _, item := range items {
		var inv models.Inventory
		err := s.db.Where("product_id = ? AND warehouse_id = ?", item.ProductID, so.WarehouseID).
			First(&inv).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			config.LogError(config.GetLogger(), "orders", "Process", "check inventory", err)
			s.error(c, http.StatusInternalServerError, "database error")
			return
		}

		available := inv.Quantity
		if err == gorm.ErrRecordNotFound {
			available = 0
		}
		if available < item.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{
				"success":   false,
				"error":     fmt.Sprintf("Insufficient inventory for %s", productName(item.Product)),
				"available": available,
				"required":  item.Quantity,
			})
			return
		}
	}

	so.Status = next
	so.ProcessedBy = middleware.ActorID(c)
	if err := s.db.Save(so).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "Process", "update sales order", err)
		s.error(c, http.StatusInternalServerError, "Failed to update sales order")
		return
	}

	s.invalidateOrderCaches(c.Request.Context())
	s.reload(c, so.ID)
}

// -- Fulfillment --

// Fulfill debits every line from the order's warehouse and writes the
// outbound ledger entries in a single transaction. All balances are locked
// and preflighted before any debit, so a shortfall on any line leaves the
// stock untouched.
func (s *SalesOrderHandler) Fulfill(c *gin.Context) {
	so, ok := s.loadOrder(c)
	if !ok {
		return
	}

	next, err := transitionSO(so.Status, soEventFulfill)
	if err != nil {
		s.error(c, http.StatusConflict, err.Error())
		return
	}

	actor := middleware.ActorID(c)

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var items []models.SalesOrderItem
	if err := tx.Preload("Product").Where("sales_order_id = ?", so.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "Fulfill", "load items", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	balances := make([]*models.Inventory, len(items))
	for i, item := range items {
		inv, err := invhandler.LockInventory(tx, item.ProductID, so.WarehouseID)
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				config.LogError(config.GetLogger(), "orders", "Fulfill", "missing balance",
					fmt.Errorf("no inventory record for product %d in warehouse %d", item.ProductID, so.WarehouseID))
				s.error(c, http.StatusInternalServerError,
					fmt.Sprintf("No inventory record for %s", productName(item.Product)))
				return
			}
			config.LogError(config.GetLogger(), "orders", "Fulfill", "lock inventory", err)
			s.error(c, http.StatusInternalServerError, "database error")
			return
		}

		if inv.Quantity < item.Quantity {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{
				"success":   false,
				"error":     fmt.Sprintf("Insufficient inventory for %s", productName(item.Product)),
				"available": inv.Quantity,
				"required":  item.Quantity,
			})
			return
		}
		balances[i] = inv
	}

	reference := fmt.Sprintf("SO #%s", so.OrderNumber)
	notes := fmt.Sprintf("Fulfilled for SO #%s", so.OrderNumber)
	touched := make([]int64, 0, len(items))
	for i, item := range items {
		if _, err := invhandler.ApplyMovement(tx, balances[i], models.MovementTypeOut, invhandler.DirectionOut, item.Quantity, reference, notes, actor); err != nil {
			tx.Rollback()
			config.LogError(config.GetLogger(), "orders", "Fulfill", "apply movement", err)
			s.error(c, http.StatusInternalServerError, "Failed to record stock movement")
			return
		}
		touched = append(touched, balances[i].ID)
	}

	so.Status = next
	if err := tx.Save(so).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "Fulfill", "update sales order", err)
		s.error(c, http.StatusInternalServerError, "Failed to update sales order")
		return
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "Fulfill", "commit", err)
		s.error(c, http.StatusInternalServerError, "Failed to commit transaction")
		return
	}

	s.inventory.InvalidateInventoryCaches(c.Request.Context(), touched...)
	s.invalidateOrderCaches(c.Request.Context())
	s.reload(c, so.ID)
}

// -- Returns --

// Return credits every fulfilled line back to the order's warehouse with
// RETURN movements and moves the order to RETURNED.
func (s *SalesOrderHandler) Return(c *gin.Context) {
	so, ok := s.loadOrder(c)
	if !ok {
		return
	}

	next, err := transitionSO(so.Status, soEventReturn)
	if err != nil {
		s.error(c, http.StatusConflict, err.Error())
		return
	}

	actor := middleware.ActorID(c)

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var items []models.SalesOrderItem
	if err := tx.Where("sales_order_id = ?", so.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "Return", "load items", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	reference := fmt.Sprintf("SO #%s", so.OrderNumber)
	notes := fmt.Sprintf("Returned from SO #%s", so.OrderNumber)
	touched := make([]int64, 0, len(items))
	for _, item := range items {
		inv, err := invhandler.GetOrCreateInventory(tx, item.ProductID, so.WarehouseID)
		if err != nil {
			tx.Rollback()
			config.LogError(config.GetLogger(), "orders", "Return", "get or create inventory", err)
			s.error(c, http.StatusInternalServerError, "database error")
			return
		}
		if _, err := invhandler.ApplyMovement(tx, inv, models.MovementTypeReturn, invhandler.DirectionIn, item.Quantity, reference, notes, actor); err != nil {
			tx.Rollback()
			config.LogError(config.GetLogger(), "orders", "Return", "apply movement", err)
			s.error(c, http.StatusInternalServerError, "Failed to record stock movement")
			return
		}
		touched = append(touched, inv.ID)
	}

	so.Status = next
	if err := tx.Save(so).Error; err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "orders", "Return", "update sales order", err)
		s.error(c, http.StatusInternalServerError, "Failed to update sales order")
		return
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "Return", "commit", err)
		s.error(c, http.StatusInternalServerError, "Failed to commit transaction")
		return
	}

	s.inventory.InvalidateInventoryCaches(c.Request.Context(), touched...)
	s.invalidateOrderCaches(c.Request.Context())
	s.reload(c, so.ID)
}

func productName(p *models.Product) string {
	if p == nil {
		return "unknown product"
	}
	return p.ProductName
}
