package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wms-system/config"
	"wms-system/internal/database/models"
)

// Suppliers and customers are plain reference data. No caching here; the
// lists are small and read rarely compared to inventory.

type PartyHandler struct {
	db *gorm.DB
}

func NewPartyHandler(db *gorm.DB) *PartyHandler {
	return &PartyHandler{db: db}
}

func (s *PartyHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *PartyHandler) created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *PartyHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func (s *PartyHandler) paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// -- Suppliers --

type SupplierRequest struct {
	SupplierName  string  `json:"supplier_name" binding:"required"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	City          *string `json:"city,omitempty"`
	Country       *string `json:"country,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

func (s *PartyHandler) CreateSupplier(c *gin.Context) {
	var req SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	supplier := models.Supplier{
		SupplierName:  req.SupplierName,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Notes:         req.Notes,
		IsActive:      true,
	}

	if err := s.db.Create(&supplier).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "CreateSupplier", "create supplier", err)
		s.error(c, http.StatusInternalServerError, "Failed to create supplier")
		return
	}

	s.created(c, supplier)
}

func (s *PartyHandler) GetSupplier(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}

	var supplier models.Supplier
	if err := s.db.Where("id = ?", id).First(&supplier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Supplier not found")
			return
		}
		config.LogError(config.GetLogger(), "orders", "GetSupplier", "load supplier", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, supplier)
}

func (s *PartyHandler) ListSuppliers(c *gin.Context) {
	query := s.db.Model(&models.Supplier{}).Order("supplier_name ASC")

	if search := c.Query("search"); search != "" {
		query = query.Where("supplier_name ILIKE ?", "%"+search+"%")
	}
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var suppliers []models.Supplier
	if err := query.Find(&suppliers).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "ListSuppliers", "list suppliers", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, suppliers)
}

func (s *PartyHandler) UpdateSupplier(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}

	var supplier models.Supplier
	if err := s.db.Where("id = ?", id).First(&supplier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Supplier not found")
			return
		}
		config.LogError(config.GetLogger(), "orders", "UpdateSupplier", "load supplier", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var req SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	supplier.SupplierName = req.SupplierName
	supplier.ContactPerson = req.ContactPerson
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.Address = req.Address
	supplier.City = req.City
	supplier.Country = req.Country
	supplier.Notes = req.Notes

	if err := s.db.Save(&supplier).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "UpdateSupplier", "save supplier", err)
		s.error(c, http.StatusInternalServerError, "Failed to update supplier")
		return
	}

	s.success(c, supplier)
}

func (s *PartyHandler) DeactivateSupplier(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}

	result := s.db.Model(&models.Supplier{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		config.LogError(config.GetLogger(), "orders", "DeactivateSupplier", "deactivate supplier", result.Error)
		s.error(c, http.StatusInternalServerError, "Failed to deactivate supplier")
		return
	}
	if result.RowsAffected == 0 {
		s.error(c, http.StatusNotFound, "Supplier not found")
		return
	}

	s.success(c, gin.H{"deactivated": id})
}

func (s *PartyHandler) ListSupplierOrders(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}

	var supplier models.Supplier
	if err := s.db.Where("id = ?", id).First(&supplier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Supplier not found")
			return
		}
		config.LogError(config.GetLogger(), "orders", "ListSupplierOrders", "load supplier", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var orders []models.PurchaseOrder
	if err := s.db.Where("supplier_id = ?", id).Order("created_at DESC").Find(&orders).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "ListSupplierOrders", "list purchase orders", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, orders)
}

// -- Customers --

type CustomerRequest struct {
	CustomerName  string  `json:"customer_name" binding:"required"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	City          *string `json:"city,omitempty"`
	Country       *string `json:"country,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

func (s *PartyHandler) CreateCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	customer := models.Customer{
		CustomerName:  req.CustomerName,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Notes:         req.Notes,
		IsActive:      true,
	}

	if err := s.db.Create(&customer).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "CreateCustomer", "create customer", err)
		s.error(c, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	s.created(c, customer)
}

func (s *PartyHandler) GetCustomer(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}

	var customer models.Customer
	if err := s.db.Where("id = ?", id).First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Customer not found")
			return
		}
		config.LogError(config.GetLogger(), "orders", "GetCustomer", "load customer", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, customer)
}

func (s *PartyHandler) ListCustomers(c *gin.Context) {
	query := s.db.Model(&models.Customer{}).Order("customer_name ASC")

	if search := c.Query("search"); search != "" {
		query = query.Where("customer_name ILIKE ?", "%"+search+"%")
	}
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var customers []models.Customer
	if err := query.Find(&customers).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "ListCustomers", "list customers", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, customers)
}

func (s *PartyHandler) UpdateCustomer(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}

	var customer models.Customer
	if err := s.db.Where("id = ?", id).First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Customer not found")
			return
		}
		config.LogError(config.GetLogger(), "orders", "UpdateCustomer", "load customer", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	customer.CustomerName = req.CustomerName
	customer.ContactPerson = req.ContactPerson
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.City = req.City
	customer.Country = req.Country
	customer.Notes = req.Notes

	if err := s.db.Save(&customer).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "UpdateCustomer", "save customer", err)
		s.error(c, http.StatusInternalServerError, "Failed to update customer")
		return
	}

	s.success(c, customer)
}

func (s *PartyHandler) DeactivateCustomer(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}

	result := s.db.Model(&models.Customer{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		config.LogError(config.GetLogger(), "orders", "DeactivateCustomer", "deactivate customer", result.Error)
		s.error(c, http.StatusInternalServerError, "Failed to deactivate customer")
		return
	}
	if result.RowsAffected == 0 {
		s.error(c, http.StatusNotFound, "Customer not found")
		return
	}

	s.success(c, gin.H{"deactivated": id})
}

func (s *PartyHandler) ListCustomerOrders(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}

	var customer models.Customer
	if err := s.db.Where("id = ?", id).First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "Customer not found")
			return
		}
		config.LogError(config.GetLogger(), "orders", "ListCustomerOrders", "load customer", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var orders []models.SalesOrder
	if err := s.db.Where("customer_id = ?", id).Order("created_at DESC").Find(&orders).Error; err != nil {
		config.LogError(config.GetLogger(), "orders", "ListCustomerOrders", "list sales orders", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, orders)
}
