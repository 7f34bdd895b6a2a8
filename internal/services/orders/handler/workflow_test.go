package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"wms-system/internal/database"
	"wms-system/internal/database/models"
	invhandler "wms-system/internal/services/inventory/handler"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS to run database tests")
	}

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=postgres dbname=wms_test sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// testRedis returns a client that may point at nothing; cache calls in the
// handlers tolerate redis being down.
func testRedis() *redis.Client {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}

func postJSON(t *testing.T, handler gin.HandlerFunc, orderID int64, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatInt(orderID, 10)}}

	handler(c)
	return w
}

type workflowFixture struct {
	db        *gorm.DB
	purchase  *PurchaseOrderHandler
	sales     *SalesOrderHandler
	warehouse *models.Warehouse
	product   *models.Product
	supplier  *models.Supplier
	customer  *models.Customer
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testDB(t)
	rdb := testRedis()
	inventoryHandler := invhandler.NewInventoryHandler(db, rdb)

	suffix := time.Now().UnixNano()
	warehouse := models.Warehouse{WarehouseName: fmt.Sprintf("WF %d", suffix), IsActive: true}
	require.NoError(t, db.Create(&warehouse).Error)

	product := models.Product{
		SKU:          fmt.Sprintf("WF-%d", suffix),
		ProductName:  "Workflow widget",
		CostPrice:    "2.00",
		SellingPrice: "5.00",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&product).Error)

	supplier := models.Supplier{SupplierName: "Acme Supply", IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)

	customer := models.Customer{CustomerName: "Retail Co", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	return &workflowFixture{
		db:        db,
		purchase:  NewPurchaseOrderHandler(db, rdb, inventoryHandler),
		sales:     NewSalesOrderHandler(db, rdb, inventoryHandler),
		warehouse: &warehouse,
		product:   &product,
		supplier:  &supplier,
		customer:  &customer,
	}
}

func (f *workflowFixture) createPO(t *testing.T, status models.POStatus, quantity int32) (*models.PurchaseOrder, *models.PurchaseOrderItem) {
	t.Helper()

	po := models.PurchaseOrder{
		PONumber:    fmt.Sprintf("PO-%d", time.Now().UnixNano()),
		SupplierID:  f.supplier.ID,
		WarehouseID: f.warehouse.ID,
		Status:      status,
		OrderDate:   time.Now(),
	}
	require.NoError(t, f.db.Create(&po).Error)

	item := models.PurchaseOrderItem{
		PurchaseOrderID: po.ID,
		ProductID:       f.product.ID,
		Quantity:        quantity,
		UnitPrice:       "2.00",
	}
	require.NoError(t, f.db.Create(&item).Error)
	return &po, &item
}

func (f *workflowFixture) createSO(t *testing.T, status models.SOStatus, quantity int32) (*models.SalesOrder, *models.SalesOrderItem) {
	t.Helper()

	so := models.SalesOrder{
		OrderNumber:     fmt.Sprintf("SO-%d", time.Now().UnixNano()),
		CustomerID:      f.customer.ID,
		WarehouseID:     f.warehouse.ID,
		Status:          status,
		OrderDate:       time.Now(),
		ShippingAddress: "1 Main St",
	}
	require.NoError(t, f.db.Create(&so).Error)

	item := models.SalesOrderItem{
		SalesOrderID: so.ID,
		ProductID:    f.product.ID,
		Quantity:     quantity,
		UnitPrice:    "5.00",
	}
	require.NoError(t, f.db.Create(&item).Error)
	return &so, &item
}

func (f *workflowFixture) balance(t *testing.T) *models.Inventory {
	t.Helper()

	var inv models.Inventory
	err := f.db.Where("product_id = ? AND warehouse_id = ?", f.product.ID, f.warehouse.ID).
		First(&inv).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	require.NoError(t, err)
	return &inv
}

func (f *workflowFixture) setBalance(t *testing.T, quantity int32) *models.Inventory {
	t.Helper()

	inv := models.Inventory{
		ProductID:   f.product.ID,
		WarehouseID: f.warehouse.ID,
		Quantity:    quantity,
	}
	require.NoError(t, f.db.Create(&inv).Error)
	return &inv
}

func TestReceiveClampsToRemainingQuantity(t *testing.T) {
	f := newWorkflowFixture(t)
	po, item := f.createPO(t, models.POStatusApproved, 10)

	w := postJSON(t, f.purchase.Receive, po.ID, ReceivePurchaseOrderRequest{
		Items: []ReceiveItemRequest{{ID: item.ID, ReceivedQuantity: 15}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloadedItem models.PurchaseOrderItem
	require.NoError(t, f.db.Where("id = ?", item.ID).First(&reloadedItem).Error)
	assert.Equal(t, int32(10), reloadedItem.ReceivedQuantity)

	inv := f.balance(t)
	require.NotNil(t, inv)
	assert.Equal(t, int32(10), inv.Quantity)

	var reloadedPO models.PurchaseOrder
	require.NoError(t, f.db.Where("id = ?", po.ID).First(&reloadedPO).Error)
	assert.Equal(t, models.POStatusReceived, reloadedPO.Status)
	assert.NotNil(t, reloadedPO.ActualDeliveryDate)
}

func TestPartialReceiveKeepsStatus(t *testing.T) {
	f := newWorkflowFixture(t)
	po, item := f.createPO(t, models.POStatusApproved, 10)

	w := postJSON(t, f.purchase.Receive, po.ID, ReceivePurchaseOrderRequest{
		Items: []ReceiveItemRequest{{ID: item.ID, ReceivedQuantity: 4}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloadedPO models.PurchaseOrder
	require.NoError(t, f.db.Where("id = ?", po.ID).First(&reloadedPO).Error)
	assert.Equal(t, models.POStatusApproved, reloadedPO.Status)

	inv := f.balance(t)
	require.NotNil(t, inv)
	assert.Equal(t, int32(4), inv.Quantity)
}

func TestReceiveSkipsUnknownAndInvalidLines(t *testing.T) {
	f := newWorkflowFixture(t)
	po, item := f.createPO(t, models.POStatusApproved, 10)

	w := postJSON(t, f.purchase.Receive, po.ID, ReceivePurchaseOrderRequest{
		Items: []ReceiveItemRequest{
			{ID: 999999999, ReceivedQuantity: 5},
			{ID: item.ID, ReceivedQuantity: 0},
			{ID: item.ID, ReceivedQuantity: 3},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloadedItem models.PurchaseOrderItem
	require.NoError(t, f.db.Where("id = ?", item.ID).First(&reloadedItem).Error)
	assert.Equal(t, int32(3), reloadedItem.ReceivedQuantity)
}

func TestReceiveRejectedBeforeApproval(t *testing.T) {
	f := newWorkflowFixture(t)
	po, item := f.createPO(t, models.POStatusDraft, 10)

	w := postJSON(t, f.purchase.Receive, po.ID, ReceivePurchaseOrderRequest{
		Items: []ReceiveItemRequest{{ID: item.ID, ReceivedQuantity: 5}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Nil(t, f.balance(t))
}

func TestFulfillDebitsStockAndPacksOrder(t *testing.T) {
	f := newWorkflowFixture(t)
	f.setBalance(t, 5)
	so, _ := f.createSO(t, models.SOStatusProcessing, 5)

	w := postJSON(t, f.sales.Fulfill, so.ID, struct{}{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	inv := f.balance(t)
	require.NotNil(t, inv)
	assert.Equal(t, int32(0), inv.Quantity)

	var movements []models.InventoryMovement
	require.NoError(t, f.db.Where("inventory_id = ? AND movement_type = ?",
		inv.ID, models.MovementTypeOut).Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, int32(5), movements[0].Quantity)
	require.NotNil(t, movements[0].Reference)
	assert.Equal(t, fmt.Sprintf("SO #%s", so.OrderNumber), *movements[0].Reference)

	var reloadedSO models.SalesOrder
	require.NoError(t, f.db.Where("id = ?", so.ID).First(&reloadedSO).Error)
	assert.Equal(t, models.SOStatusPacked, reloadedSO.Status)
}

func TestFulfillShortfallLeavesStockUntouched(t *testing.T) {
	f := newWorkflowFixture(t)
	f.setBalance(t, 3)
	so, _ := f.createSO(t, models.SOStatusProcessing, 5)

	w := postJSON(t, f.sales.Fulfill, so.ID, struct{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Success   bool   `json:"success"`
		Error     string `json:"error"`
		Available int32  `json:"available"`
		Required  int32  `json:"required"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Workflow widget")
	assert.Equal(t, int32(3), resp.Available)
	assert.Equal(t, int32(5), resp.Required)

	inv := f.balance(t)
	require.NotNil(t, inv)
	assert.Equal(t, int32(3), inv.Quantity)

	var count int64
	require.NoError(t, f.db.Model(&models.InventoryMovement{}).
		Where("inventory_id = ?", inv.ID).Count(&count).Error)
	assert.Zero(t, count)

	var reloadedSO models.SalesOrder
	require.NoError(t, f.db.Where("id = ?", so.ID).First(&reloadedSO).Error)
	assert.Equal(t, models.SOStatusProcessing, reloadedSO.Status)
}

func TestReturnCreditsStockBack(t *testing.T) {
	f := newWorkflowFixture(t)
	f.setBalance(t, 0)
	so, _ := f.createSO(t, models.SOStatusDelivered, 4)

	w := postJSON(t, f.sales.Return, so.ID, struct{}{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	inv := f.balance(t)
	require.NotNil(t, inv)
	assert.Equal(t, int32(4), inv.Quantity)

	var movements []models.InventoryMovement
	require.NoError(t, f.db.Where("inventory_id = ? AND movement_type = ?",
		inv.ID, models.MovementTypeReturn).Find(&movements).Error)
	require.Len(t, movements, 1)

	var reloadedSO models.SalesOrder
	require.NoError(t, f.db.Where("id = ?", so.ID).First(&reloadedSO).Error)
	assert.Equal(t, models.SOStatusReturned, reloadedSO.Status)
}
