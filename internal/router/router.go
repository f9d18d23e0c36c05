package router

import (
	"database/sql"

	"foodslink_backend/internal/handlers"
	"foodslink_backend/internal/messaging"
	"foodslink_backend/internal/middleware"
	"foodslink_backend/internal/repositories"
	"foodslink_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Setup initializes the routing for the application. notifier receives order
// events after every committed mutation (SSE hub plus optional broker
// publisher); hub backs the SSE stream endpoint.
func Setup(engine *gin.Engine, db *sql.DB, redisClient *redis.Client, hub *messaging.Hub, notifier services.OrderNotifier) {
	// Initialize Repositories
	orderRepo := repositories.NewOrderRepository(db)
	tenantRepo := repositories.NewTenantRepository(db)
	sessionRepo := repositories.NewTableSessionRepository(redisClient)

	// Initialize Services
	orderService := services.NewOrderService(orderRepo, sessionRepo, notifier)
	paymentService := services.NewPaymentService(orderService, tenantRepo)

	// Initialize Handlers
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	streamHandler := handlers.NewStreamHandler(hub)

	apiV1 := engine.Group("/api/v1")

	// Customer terminal endpoints are unauthenticated: diners reach them by
	// scanning a per-table code. Every request carries its tenant scope.
	SetupCustomerRoutes(apiV1, orderHandler, paymentHandler, streamHandler)

	// Staff terminal endpoints require a tenant-scoped JWT.
	staff := apiV1.Group("")
	staff.Use(middleware.AuthMiddleware())
	{
		SetupStaffOrderRoutes(staff, orderHandler, paymentHandler)
	}
}
