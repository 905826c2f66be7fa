// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/handlers"
	"github.com/javajoker/marketplace-backend/internal/middleware"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/services"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

// Initialize wires services and handlers over store. Order numbers are drawn
// from sequencer, which may be shared across instances.
func Initialize(store repository.Store, sequencer repository.Sequencer, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Falling back to local image storage")
		cfg.AWS.AccessKeyID = ""
		storageService, _ = services.NewStorageService(cfg)
	}

	paymentService := services.NewPaymentService(store, services.NewPaymentProvider(cfg.Payment), cfg.Payment)
	orderNumbers := services.NewOrderNumberGenerator(sequencer, cfg.Orders.NumberPrefix)
	orderService := services.NewOrderService(store, orderNumbers, paymentService, notificationService)

	authService := services.NewAuthService(store, cfg, notificationService)
	userService := services.NewUserService(store)
	categoryService := services.NewCategoryService(store)
	productService := services.NewProductService(store)
	cartService := services.NewCartService(store)
	vendorService := services.NewVendorService(store, orderService)
	adminService := services.NewAdminService(store, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	vendorHandler := handlers.NewVendorHandler(vendorService)
	uploadHandler := handlers.NewUploadHandler(storageService)
	adminHandler := handlers.NewAdminHandler(adminService, userService, productService, orderService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	limits := middleware.NewRateLimits(cfg.Server.RateLimitEnabled)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(limits.General())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	if cfg.Server.UploadDir != "" {
		r.Static(services.LocalUploadsPath, cfg.Server.UploadDir)
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.AuditLogMiddleware(store.AuditLogs()))
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", limits.Auth(), authHandler.Register)
			auth.POST("/login", limits.Auth(), authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetCurrentUser)
			auth.PUT("/profile", middleware.AuthRequired(), authHandler.UpdateProfile)
			auth.PUT("/change-password", middleware.AuthRequired(), authHandler.ChangePassword)
		}

		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.POST("/addresses", userHandler.AddAddress)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.ListCategories)
			categories.GET("/:slug", categoryHandler.GetCategory)
			categories.POST("", middleware.AuthRequired(), middleware.AdminRequired(), categoryHandler.CreateCategory)
		}

		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)

			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/:id/reviews", productHandler.AddReview)
			}

			vendorOnly := products.Group("")
			vendorOnly.Use(middleware.AuthRequired(), middleware.RoleRequired(models.UserRoleVendor))
			{
				vendorOnly.GET("/vendor/my-products", productHandler.MyProducts)
				vendorOnly.POST("", productHandler.CreateProduct)
				vendorOnly.PUT("/:id", productHandler.UpdateProduct)
				vendorOnly.DELETE("/:id", productHandler.DeleteProduct)
			}
		}

		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.GET("/summary", cartHandler.Summary)
			cart.POST("/add", cartHandler.AddItem)
			cart.PUT("/update/:itemId", cartHandler.UpdateItem)
			cart.DELETE("/remove/:itemId", cartHandler.RemoveItem)
			cart.DELETE("/clear", cartHandler.Clear)
		}

		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/my-orders", orderHandler.MyOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id/cancel", orderHandler.CancelOrder)
		}

		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/intent", paymentHandler.CreatePaymentIntent)
			payments.POST("/confirm", paymentHandler.ConfirmPayment)
		}

		vendors := v1.Group("/vendors")
		vendors.Use(middleware.AuthRequired())
		{
			vendors.POST("/apply", vendorHandler.Apply)
			vendors.GET("/profile", vendorHandler.GetProfile)
			vendors.PUT("/profile", vendorHandler.UpdateProfile)

			approved := vendors.Group("")
			approved.Use(middleware.RoleRequired(models.UserRoleVendor))
			{
				approved.GET("/stats", vendorHandler.GetStats)
				approved.GET("/orders", vendorHandler.GetOrders)
				approved.PUT("/orders/:id/status", vendorHandler.UpdateOrderStatus)
			}
		}

		upload := v1.Group("/upload")
		upload.Use(middleware.AuthRequired(), limits.Upload())
		{
			upload.POST("/image", uploadHandler.UploadImage)
			upload.POST("/images", uploadHandler.UploadImages)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboardStats)

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.GetUsers)
				adminUsers.PUT("/:id/status", adminHandler.UpdateUserStatus)
			}

			adminVendors := admin.Group("/vendors")
			{
				adminVendors.GET("", adminHandler.GetVendors)
				adminVendors.GET("/pending", adminHandler.GetPendingVendors)
				adminVendors.PUT("/:id/status", adminHandler.UpdateVendorStatus)
			}

			adminProducts := admin.Group("/products")
			{
				adminProducts.GET("", adminHandler.GetProducts)
				adminProducts.PUT("/:id/status", adminHandler.UpdateProductStatus)
			}

			adminOrders := admin.Group("/orders")
			{
				adminOrders.GET("", adminHandler.GetOrders)
				adminOrders.PUT("/:id/status", adminHandler.UpdateOrderStatus)
				adminOrders.POST("/:id/refund", adminHandler.RetryRefund)
			}
		}
	}

	return r
}
