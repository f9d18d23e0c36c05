package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"foodslink_backend/internal/models"
	"foodslink_backend/internal/services"
	"foodslink_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder handles submission of a customer terminal's cart as a new order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateOrder: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	createdOrder, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "CreateOrder: Error from orderService.CreateOrder")
		if errors.Is(err, services.ErrEmptyOrder) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeEmptyOrder, "Order needs at least one line with positive quantity.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order payload.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, createdOrder)
}

// GetOrders handles the polling list read for a tenant's orders.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	tenantID, ok := requireTenantQuery(c)
	if !ok {
		return
	}

	filters := models.OrderFilters{TenantID: tenantID}
	if table := c.Query("table"); table != "" {
		filters.TableCode = &table
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return
		}
		filters.Page = page
	} else {
		filters.Page = 1
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		pageSize, err := strconv.Atoi(pageSizeStr)
		if err != nil || pageSize <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be a positive integer"))
			return
		}
		filters.PageSize = pageSize
	} else {
		filters.PageSize = 20
	}

	orders, totalCount, err := h.orderService.GetOrders(filters)
	if err != nil {
		utils.LogError(err, "GetOrders: Error from orderService.GetOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}

	if orders == nil { // Ensure we return an empty list instead of null
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetOrderByID handles the polling read of a single order.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	tenantID, ok := requireTenantQuery(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrderByID(tenantID, orderID)
	if err != nil {
		respondOrderError(c, err, "GetOrderByID")
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetInvoice renders the deterministic invoice projection of a stored order.
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	tenantID, ok := requireTenantQuery(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrderByID(tenantID, orderID)
	if err != nil {
		respondOrderError(c, err, "GetInvoice")
		return
	}
	c.JSON(http.StatusOK, services.BuildInvoice(order))
}

// GetTableSession lists the non-paid orders currently open on a table.
func (h *OrderHandler) GetTableSession(c *gin.Context) {
	tenantID, ok := requireTenantQuery(c)
	if !ok {
		return
	}
	tableCode := c.Param("table")

	session, err := h.orderService.ActiveTableOrders(c.Request.Context(), tenantID, tableCode)
	if err != nil {
		utils.LogError(err, "GetTableSession: Error from orderService.ActiveTableOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to read table session.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, session)
}

// AdvanceOrder handles a staff terminal moving an order along the status graph.
func (h *OrderHandler) AdvanceOrder(c *gin.Context) {
	tenantID := c.GetInt64("tenantID")
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AdvanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AdvanceOrder: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	updatedOrder, err := h.orderService.AdvanceOrder(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		respondOrderError(c, err, "AdvanceOrder")
		return
	}
	c.JSON(http.StatusOK, updatedOrder)
}

// AddCharge attaches an additional charge (tax, packing, service) to an order.
func (h *OrderHandler) AddCharge(c *gin.Context) {
	tenantID := c.GetInt64("tenantID")
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AddChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AddCharge: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	updatedOrder, err := h.orderService.AddCharge(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		respondOrderError(c, err, "AddCharge")
		return
	}
	c.JSON(http.StatusOK, updatedOrder)
}

// removeChargeRequest carries the optimistic concurrency token for a removal.
type removeChargeRequest struct {
	ExpectedRevision int64 `json:"expected_revision" binding:"required"`
}

// RemoveCharge detaches a charge and recomputes the order's billing.
func (h *OrderHandler) RemoveCharge(c *gin.Context) {
	tenantID := c.GetInt64("tenantID")
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chargeID, ok := parseIDParam(c, "chargeId")
	if !ok {
		return
	}

	var req removeChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "RemoveCharge: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	updatedOrder, err := h.orderService.RemoveCharge(c.Request.Context(), tenantID, orderID, chargeID, req.ExpectedRevision)
	if err != nil {
		respondOrderError(c, err, "RemoveCharge")
		return
	}
	c.JSON(http.StatusOK, updatedOrder)
}

// UpdateLineQuantity adjusts a line's quantity while the order is pending.
func (h *OrderHandler) UpdateLineQuantity(c *gin.Context) {
	tenantID, ok := requireTenantQuery(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId")
	if !ok {
		return
	}

	var req services.UpdateLineQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateLineQuantity: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	updatedOrder, err := h.orderService.UpdateLineQuantity(c.Request.Context(), tenantID, orderID, lineID, req)
	if err != nil {
		respondOrderError(c, err, "UpdateLineQuantity")
		return
	}
	c.JSON(http.StatusOK, updatedOrder)
}

// DeleteOrder handles administrative hard removal of an order.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	tenantID := c.GetInt64("tenantID")
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), tenantID, orderID); err != nil {
		respondOrderError(c, err, "DeleteOrder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order and its lines deleted successfully"})
}

// --- shared helpers ---

// parseIDParam parses a numeric path parameter, responding 400 on failure.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", err.Error()))
		return 0, false
	}
	return id, true
}

// requireTenantQuery reads the tenant scope for unauthenticated customer
// terminal endpoints, responding 400 when absent.
func requireTenantQuery(c *gin.Context) (int64, bool) {
	tenantStr := c.Query("tenant")
	if tenantStr == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Missing tenant parameter.", "tenant query parameter is required"))
		return 0, false
	}
	tenantID, err := utils.StrToInt64(tenantStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid tenant format.", err.Error()))
		return 0, false
	}
	return tenantID, true
}

// respondOrderError maps engine error kinds onto the API error envelope.
func respondOrderError(c *gin.Context, err error, operation string) {
	utils.LogError(err, operation+": Error from service")
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrLineNotFound),
		errors.Is(err, services.ErrChargeNotFound),
		errors.Is(err, services.ErrTenantNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Requested record not found.", err.Error()))
	case errors.Is(err, services.ErrTenantMismatch):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeTenantMismatch, "Order belongs to a different tenant.", err.Error()))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidTransition, "Illegal order status transition.", err.Error()))
	case errors.Is(err, services.ErrStaleRevision):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeStaleRevision, "Order changed since last read. Re-read and retry.", err.Error()))
	case errors.Is(err, services.ErrOrderClosed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeOrderClosed, "Order is already paid and closed to mutation.", err.Error()))
	case errors.Is(err, services.ErrAmountMismatch):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeAmountMismatch, "Payment confirmation does not match the order. Held for manual reconciliation.", err.Error()))
	case errors.Is(err, services.ErrEmptyOrder):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeEmptyOrder, "Order needs at least one line with positive quantity.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Operation failed.", "Internal error"))
	}
}
