// Package server assembles the gin engine: middleware, services and routes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"fintrack/internal/config"
	"fintrack/internal/database"
	_ "fintrack/internal/docs" // registers the OpenAPI document
	"fintrack/internal/handlers"
	"fintrack/internal/middleware"
	"fintrack/internal/notify"
	"fintrack/internal/services"
)

const healthTimeout = 2 * time.Second

// New builds the router. hub may be nil, which disables the notification
// stream and live pushes.
func New(cfg *config.Config, dbManager *database.Manager, hub *notify.Hub) *gin.Engine {
	db := dbManager.DB()

	var publisher services.NotificationPublisher
	var streamer handlers.NotificationStreamer
	if hub != nil {
		publisher = hub
		streamer = hub
	}

	// Services
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	expenseService := services.NewExpenseService(db)
	recurringService := services.NewRecurringService(db)
	spendService := services.NewSpendService(db)
	notificationService := services.NewNotificationService(db)
	alertService := services.NewAlertService(db, spendService, publisher)
	budgetService := services.NewBudgetService(db, spendService, alertService, publisher)
	analyticsService := services.NewAnalyticsService(db, spendService, recurringService)
	dashboardService := services.NewDashboardService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService, cfg.JWTSecret, cfg.JWTExpirationDur)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, recurringService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, alertService, auditService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, streamer)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	exportHandler := handlers.NewExportHandler(expenseService, analyticsService, auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := dbManager.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.PUT("/profile/password", authHandler.ChangePassword)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.POST("/process-recurring", expenseHandler.ProcessRecurring)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("/check-alerts", budgetHandler.CheckAlerts)
	budgets.GET("/category-caps", budgetHandler.GetCategoryCaps)
	budgets.GET("/yearly-summary", budgetHandler.GetYearlySummary)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)
	budgets.PUT("/:id/alert-settings", budgetHandler.UpdateAlertSettings)
	budgets.POST("/:id/evaluate", budgetHandler.EvaluateBudget)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
	notifications.GET("/stream", notificationHandler.Stream)
	notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
	notifications.PUT("/:id/read", notificationHandler.MarkAsRead)

	analytics := protected.Group("/analytics")
	analytics.GET("/summary", analyticsHandler.GetSummary)
	analytics.GET("/trend", analyticsHandler.GetTrend)
	analytics.GET("/category-patterns", analyticsHandler.GetCategoryPatterns)
	analytics.GET("/budget-analysis", analyticsHandler.GetBudgetAnalysis)
	analytics.GET("/recurring", analyticsHandler.GetRecurring)

	protected.GET("/dashboard", dashboardHandler.GetDashboard)
	protected.GET("/export/expenses", exportHandler.ExportExpenses)

	return router
}

// corsConfig allows the configured origins with credentials. With no origins
// configured every origin is allowed and credentials are not.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
