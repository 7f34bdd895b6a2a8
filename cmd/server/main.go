package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"wms-system/config"
	"wms-system/internal/database"
	"wms-system/internal/gateway/middleware"
	cataloghandler "wms-system/internal/services/catalog/handler"
	invhandler "wms-system/internal/services/inventory/handler"
	orderhandler "wms-system/internal/services/orders/handler"
	reporthandler "wms-system/internal/services/reports/handler"
	userhandler "wms-system/internal/services/user/handler"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	router := setupRouter(db, redisClient)

	log.Printf("Server listening on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func setupRouter(db *gorm.DB, redisClient *redis.Client) *gin.Engine {
	inventoryHandler := invhandler.NewInventoryHandler(db, redisClient)
	purchaseHandler := orderhandler.NewPurchaseOrderHandler(db, redisClient, inventoryHandler)
	salesHandler := orderhandler.NewSalesOrderHandler(db, redisClient, inventoryHandler)
	partyHandler := orderhandler.NewPartyHandler(db)
	catalogHandler := cataloghandler.NewCatalogHandler(db, redisClient)
	userHandler := userhandler.NewUserHandler(db, redisClient)
	reportHandler := reporthandler.NewReportHandler(db)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit())

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "ok"}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"success": status == http.StatusOK,
			"data":    checks,
		})
	})

	api := router.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", userHandler.Register)
		auth.POST("/login", userHandler.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuth())
	{
		users := protected.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
		}

		roles := protected.Group("/roles")
		{
			roles.POST("", userHandler.CreateRole)
			roles.GET("", userHandler.ListRoles)
		}

		categories := protected.Group("/categories")
		{
			categories.POST("", catalogHandler.CreateCategory)
			categories.GET("", catalogHandler.ListCategories)
			categories.GET("/:id", catalogHandler.GetCategory)
			categories.PUT("/:id", catalogHandler.UpdateCategory)
			categories.DELETE("/:id", catalogHandler.DeleteCategory)
		}

		products := protected.Group("/products")
		{
			products.POST("", catalogHandler.CreateProduct)
			products.GET("", catalogHandler.ListProducts)
			products.GET("/:id", catalogHandler.GetProduct)
			products.PUT("/:id", catalogHandler.UpdateProduct)
			products.DELETE("/:id", catalogHandler.DeactivateProduct)
			products.GET("/:id/inventory", catalogHandler.ListProductInventory)
		}

		warehouses := protected.Group("/warehouses")
		{
			warehouses.POST("", catalogHandler.CreateWarehouse)
			warehouses.GET("", catalogHandler.ListWarehouses)
			warehouses.GET("/:id", catalogHandler.GetWarehouse)
			warehouses.PUT("/:id", catalogHandler.UpdateWarehouse)
			warehouses.DELETE("/:id", catalogHandler.DeactivateWarehouse)
		}

		suppliers := protected.Group("/suppliers")
		{
			suppliers.POST("", partyHandler.CreateSupplier)
			suppliers.GET("", partyHandler.ListSuppliers)
			suppliers.GET("/:id", partyHandler.GetSupplier)
			suppliers.PUT("/:id", partyHandler.UpdateSupplier)
			suppliers.DELETE("/:id", partyHandler.DeactivateSupplier)
			suppliers.GET("/:id/purchase-orders", partyHandler.ListSupplierOrders)
		}

		customers := protected.Group("/customers")
		{
			customers.POST("", partyHandler.CreateCustomer)
			customers.GET("", partyHandler.ListCustomers)
			customers.GET("/:id", partyHandler.GetCustomer)
			customers.PUT("/:id", partyHandler.UpdateCustomer)
			customers.DELETE("/:id", partyHandler.DeactivateCustomer)
			customers.GET("/:id/sales-orders", partyHandler.ListCustomerOrders)
		}

		inventory := protected.Group("/inventory")
		{
			inventory.GET("", inventoryHandler.ListInventory)
			inventory.GET("/low-stock", inventoryHandler.ListLowStock)
			inventory.GET("/:id", inventoryHandler.GetInventory)
			inventory.GET("/:id/movements", inventoryHandler.ListMovements)
			inventory.POST("/:id/add-stock", inventoryHandler.AddStock)
			inventory.POST("/:id/remove-stock", inventoryHandler.RemoveStock)
			inventory.POST("/transfer", inventoryHandler.TransferStock)
		}

		protected.GET("/movements", inventoryHandler.ListAllMovements)

		purchaseOrders := protected.Group("/purchase-orders")
		{
			purchaseOrders.POST("", purchaseHandler.Create)
			purchaseOrders.GET("", purchaseHandler.List)
			purchaseOrders.GET("/:id", purchaseHandler.Get)
			purchaseOrders.POST("/:id/items", purchaseHandler.AddItem)
			purchaseOrders.DELETE("/:id/items/:item_id", purchaseHandler.RemoveItem)
			purchaseOrders.POST("/:id/submit", purchaseHandler.Submit)
			purchaseOrders.POST("/:id/approve", purchaseHandler.Approve)
			purchaseOrders.POST("/:id/ship", purchaseHandler.Ship)
			purchaseOrders.POST("/:id/receive", purchaseHandler.Receive)
			purchaseOrders.POST("/:id/cancel", purchaseHandler.Cancel)
		}

		salesOrders := protected.Group("/sales-orders")
		{
			salesOrders.POST("", salesHandler.Create)
			salesOrders.GET("", salesHandler.List)
			salesOrders.GET("/:id", salesHandler.Get)
			salesOrders.POST("/:id/items", salesHandler.AddItem)
			salesOrders.DELETE("/:id/items/:item_id", salesHandler.RemoveItem)
			salesOrders.POST("/:id/submit", salesHandler.Submit)
			salesOrders.POST("/:id/process", salesHandler.Process)
			salesOrders.POST("/:id/pick", salesHandler.Pick)
			salesOrders.POST("/:id/fulfill", salesHandler.Fulfill)
			salesOrders.POST("/:id/ship", salesHandler.Ship)
			salesOrders.POST("/:id/deliver", salesHandler.Deliver)
			salesOrders.POST("/:id/return", salesHandler.Return)
			salesOrders.POST("/:id/cancel", salesHandler.Cancel)
		}

		reports := protected.Group("/reports")
		{
			reports.POST("", reportHandler.Create)
			reports.GET("", reportHandler.List)
			reports.GET("/inventory", reportHandler.InventoryReport)
			reports.GET("/movements", reportHandler.MovementsReport)
			reports.GET("/orders", reportHandler.OrdersReport)
			reports.GET("/sales", reportHandler.SalesReport)
			reports.GET("/:id", reportHandler.Get)
			reports.DELETE("/:id", reportHandler.Delete)
			reports.POST("/:id/generate", reportHandler.Generate)
		}
	}

	return router
}
