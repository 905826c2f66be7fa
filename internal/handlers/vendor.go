// internal/handlers/vendor.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/services"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type VendorHandler struct {
	vendorService *services.VendorService
}

func NewVendorHandler(vendorService *services.VendorService) *VendorHandler {
	return &VendorHandler{
		vendorService: vendorService,
	}
}

// POST /vendors/apply
func (h *VendorHandler) Apply(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.VendorApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	vendor, err := h.vendorService.Apply(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.T(lang, i18n.KeyVendorApplied), vendor)
}

// GET /vendors/profile
func (h *VendorHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	vendor, err := h.vendorService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, vendor)
}

// PUT /vendors/profile
func (h *VendorHandler) UpdateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateVendorProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	vendor, err := h.vendorService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.T(lang, i18n.KeyVendorProfileUpdated), vendor)
}

// GET /vendors/stats
func (h *VendorHandler) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.vendorService.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /vendors/orders
func (h *VendorHandler) GetOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParamsWithDefaults(c, defaultOrderPageLimit, "created_at")

	orders, total, err := h.vendorService.GetOrders(c.Request.Context(), userID, params, orderStatusQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	paginated(c, orders, total, params)
}

// PUT /vendors/orders/:id/status
func (h *VendorHandler) UpdateOrderStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
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

	order, err := h.vendorService.UpdateOrderStatus(c.Request.Context(), userID, orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.T(lang, i18n.KeyOrderStatusUpdated), order)
}
