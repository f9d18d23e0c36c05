package router

import (
	"foodslink_backend/internal/handlers"
	"foodslink_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCustomerRoutes wires the endpoints the customer terminal polls.
func SetupCustomerRoutes(apiGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler, paymentHandler *handlers.PaymentHandler, streamHandler *handlers.StreamHandler) {
	orderRoutes := apiGroup.Group("/orders")
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/stream", streamHandler.StreamOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.GET("/:id/invoice", orderHandler.GetInvoice)
		orderRoutes.PATCH("/:id/lines/:lineId", orderHandler.UpdateLineQuantity)
		orderRoutes.POST("/:id/payment-intent", paymentHandler.CreatePaymentIntent)
	}

	apiGroup.GET("/tables/:table/session", orderHandler.GetTableSession)

	// Gateway settlement callback. Authenticity checks (signature, source IP)
	// are terminated by the fronting proxy.
	apiGroup.POST("/payments/confirm", paymentHandler.ConfirmPayment)
}

// SetupStaffOrderRoutes wires the endpoints the staff terminal mutates with.
func SetupStaffOrderRoutes(staffGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler, paymentHandler *handlers.PaymentHandler) {
	orderRoutes := staffGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		orderRoutes.PATCH("/:id", orderHandler.AdvanceOrder)
		orderRoutes.POST("/:id/charges", orderHandler.AddCharge)
		orderRoutes.DELETE("/:id/charges/:chargeId", orderHandler.RemoveCharge)
		orderRoutes.POST("/:id/cash", paymentHandler.MarkCashCollected)
	}

	adminRoutes := staffGroup.Group("/orders")
	adminRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
	{
		adminRoutes.DELETE("/:id", orderHandler.DeleteOrder)
	}
}
