// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyNotFound      = "common.not_found"
	KeyAccessDenied  = "common.access_denied"
	KeyInternalError = "common.internal_error"
	KeyRateLimited   = "common.rate_limited"

	// Authentication
	KeyAuthRequired        = "auth.required"
	KeyAuthInvalidToken    = "auth.invalid_token"
	KeyAuthTokenExpired    = "auth.token_expired"
	KeyAuthAdminRequired   = "auth.admin_required"
	KeyAuthLoginSuccess    = "auth.login_success"
	KeyAuthRegisterSuccess = "auth.register_success"
	KeyAuthTokenRefreshed  = "auth.token_refreshed"
	KeyAuthPasswordChanged = "auth.password_changed"

	// Users
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserAddressAdded   = "user.address_added"
	KeyUserStatusUpdated  = "user.status_updated"

	// Cart
	KeyCartItemAdded   = "cart.item_added"
	KeyCartItemUpdated = "cart.item_updated"
	KeyCartItemRemoved = "cart.item_removed"
	KeyCartCleared     = "cart.cleared"

	// Orders
	KeyOrderCreated       = "order.created"
	KeyOrderCancelled     = "order.cancelled"
	KeyOrderStatusUpdated = "order.status_updated"
	KeyOrderRefunded      = "order.refunded"

	// Products
	KeyProductCreated       = "product.created"
	KeyProductUpdated       = "product.updated"
	KeyProductDeleted       = "product.deleted"
	KeyProductStatusUpdated = "product.status_updated"
	KeyReviewAdded          = "product.review_added"

	// Categories
	KeyCategoryCreated = "category.created"

	// Vendors
	KeyVendorApplied        = "vendor.applied"
	KeyVendorProfileUpdated = "vendor.profile_updated"
	KeyVendorStatusUpdated  = "vendor.status_updated"

	// Payments
	KeyPaymentIntentCreated = "payment.intent_created"
	KeyPaymentConfirmed     = "payment.confirmed"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyValidationID      = "validation.invalid_id"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileRequired      = "file.required"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
	KeyFileTooMany       = "file.too_many"
)
