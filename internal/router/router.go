package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/config"
	"github.com/ikkim/shopfront-backend/internal/app/controller"
	"github.com/ikkim/shopfront-backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups every HTTP handler set the router mounts.
// Bootstrap is nil when first-admin provisioning is disabled.
type Controllers struct {
	Auth         *controller.AuthController
	Product      *controller.ProductController
	Wishlist     *controller.WishlistController
	Review       *controller.ReviewController
	Settings     *controller.SettingsController
	Upload       *controller.UploadController
	Bootstrap    *controller.BootstrapController
	Invalidation *controller.InvalidationController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	gatherer       prometheus.Gatherer
	config         *config.Config
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		gatherer:       gatherer,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Shopfront API is running",
		})
	})

	if r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	if r.config.Storage.Driver == "local" {
		uploads := router.Group("/uploads")
		uploads.Use(cacheControl(r.config.Storage.CacheControl))
		uploads.Static("", r.config.Storage.LocalDir)
	}

	if ctrl := r.controllers.Invalidation; ctrl != nil {
		router.GET("/ws/invalidations", ctrl.Subscribe)
	}

	authenticate := r.authMiddleware.Authenticate()
	adminOnly := r.authMiddleware.RequireRole("admin")

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.controllers.Auth.Register)
			auth.POST("/login", r.controllers.Auth.Login)
			auth.GET("/me", authenticate, r.controllers.Auth.GetMe)
			auth.POST("/logout", authenticate, r.controllers.Auth.Logout)
		}

		products := v1.Group("/products")
		products.Use(r.authMiddleware.OptionalAuthenticate())
		{
			products.GET("", r.controllers.Product.GetAllProducts)
			products.GET("/categories", r.controllers.Product.GetCategories)
			products.GET("/brands", r.controllers.Product.GetBrands)
			products.GET("/:id", r.controllers.Product.GetProductByID)
			products.GET("/:id/reviews", r.controllers.Review.GetProductReviews)
		}

		v1.GET("/settings", r.controllers.Settings.GetSettings)

		reviews := v1.Group("/reviews")
		reviews.Use(authenticate)
		{
			reviews.POST("", r.controllers.Review.SubmitReview)
		}

		wishlist := v1.Group("/wishlist")
		{
			// 비로그인 사용자는 항상 false
			wishlist.GET("/status/:id", r.authMiddleware.OptionalAuthenticate(), r.controllers.Wishlist.GetWishlistStatus)

			wishlist.GET("", authenticate, r.controllers.Wishlist.GetWishlist)
			wishlist.POST("/toggle", authenticate, r.controllers.Wishlist.ToggleWishlist)
			wishlist.DELETE("/:id", authenticate, r.controllers.Wishlist.RemoveFromWishlist)
		}

		admin := v1.Group("/admin")
		admin.Use(authenticate, adminOnly)
		{
			admin.POST("/products", r.controllers.Product.CreateProduct)
			admin.PUT("/products/:id", r.controllers.Product.UpdateProduct)
			admin.DELETE("/products/:id", r.controllers.Product.DeleteProduct)

			admin.GET("/reviews", r.controllers.Review.GetModerationQueue)
			admin.POST("/reviews/:id/approve", r.controllers.Review.ApproveReview)
			admin.DELETE("/reviews/:id", r.controllers.Review.DeleteReview)

			admin.PUT("/settings", r.controllers.Settings.UpdateSettings)

			admin.POST("/uploads", r.controllers.Upload.UploadImage)
		}

		if ctrl := r.controllers.Bootstrap; ctrl != nil {
			v1.POST("/bootstrap/admin", ctrl.ProvisionAdmin)
		}
	}

	return router
}

func cacheControl(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if value != "" {
			c.Header("Cache-Control", value)
		}
		c.Next()
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-Request-ID, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
