// internal/handlers/admin.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/services"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

const defaultAdminPageLimit = 20

type AdminHandler struct {
	adminService   *services.AdminService
	userService    *services.UserService
	productService *services.ProductService
	orderService   *services.OrderService
}

func NewAdminHandler(adminService *services.AdminService, userService *services.UserService, productService *services.ProductService, orderService *services.OrderService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		userService:    userService,
		productService: productService,
		orderService:   orderService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParamsWithDefaults(c, defaultAdminPageLimit, "created_at")

	filter := repository.UserFilter{
		PaginationParams: params,
	}

	if role := c.Query("role"); role != "" {
		userRole := models.UserRole(role)
		filter.Role = &userRole
	}

	if isActiveStr := c.Query("is_active"); isActiveStr != "" {
		if isActive, err := strconv.ParseBool(isActiveStr); err == nil {
			filter.IsActive = &isActive
		}
	}

	users, total, err := h.userService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	paginated(c, users, total, params)
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	var req services.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	user, err := h.userService.SetUserActive(c.Request.Context(), adminID, userID, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.T(lang, i18n.KeyUserStatusUpdated), user)
}

// GET /admin/vendors
func (h *AdminHandler) GetVendors(c *gin.Context) {
	params := utils.GetPaginationParamsWithDefaults(c, defaultAdminPageLimit, "created_at")

	var status *models.VendorStatus
	if s := c.Query("status"); s != "" {
		vendorStatus := models.VendorStatus(s)
		status = &vendorStatus
	}

	vendors, total, err := h.adminService.GetVendors(c.Request.Context(), params, status)
	if err != nil {
		respondError(c, err)
		return
	}

	paginated(c, vendors, total, params)
}

// GET /admin/vendors/pending
func (h *AdminHandler) GetPendingVendors(c *gin.Context) {
	params := utils.GetPaginationParamsWithDefaults(c, defaultAdminPageLimit, "created_at")

	vendors, total, err := h.adminService.GetPendingVendors(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	paginated(c, vendors, total, params)
}

// PUT /admin/vendors/:id/status
func (h *AdminHandler) UpdateVendorStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	vendorID, ok := paramID(c, "id", "vendor")
	if !ok {
		return
	}

	var req services.UpdateVendorStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	vendor, err := h.adminService.UpdateVendorStatus(c.Request.Context(), adminID, vendorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.T(lang, i18n.KeyVendorStatusUpdated), vendor)
}

// GET /admin/products
func (h *AdminHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParamsWithDefaults(c, defaultAdminPageLimit, "newest")

	products, total, err := h.productService.ListAllProducts(c.Request.Context(), params, productStatusQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	paginated(c, products, total, params)
}

// PUT /admin/products/:id/status
func (h *AdminHandler) UpdateProductStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := paramID(c, "id", "product")
	if !ok {
		return
	}

	var req services.UpdateProductStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.UpdateProductStatus(c.Request.Context(), productID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.T(lang, i18n.KeyProductStatusUpdated), product)
}

// GET /admin/orders
func (h *AdminHandler) GetOrders(c *gin.Context) {
	params := utils.GetPaginationParamsWithDefaults(c, defaultAdminPageLimit, "created_at")

	filter := repository.OrderFilter{
		PaginationParams: params,
		Status:           orderStatusQuery(c),
	}

	if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
		ps := models.PaymentStatus(paymentStatus)
		filter.PaymentStatus = &ps
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	paginated(c, orders, total, params)
}

// PUT /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id", "order")
	if !ok {
		return
	}

	var req services.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.ChangeStatus(c.Request.Context(), adminID, nil, orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.T(lang, i18n.KeyOrderStatusUpdated), order)
}

// POST /admin/orders/:id/refund
func (h *AdminHandler) RetryRefund(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	orderID, ok := paramID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.RetryRefund(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.T(lang, i18n.KeyOrderRefunded), order)
}
