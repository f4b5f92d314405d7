package main

import (
	"fmt"
	"net/http"
	"os"

	"stipend/internal/config"
	"stipend/internal/database"
	"stipend/internal/handlers"
	"stipend/internal/logger"
	"stipend/internal/middleware"
	"stipend/internal/services"
	"stipend/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "stipend/internal/docs" // Import swagger docs
)

// @title           Stipend API
// @version         1.0
// @description     Stipend is a budgeting backend for students. It tracks monthly budget cycles and daily expenses, keeps an append-only investment ledger with monthly interest, and raises advisory alerts when spending drifts off course.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	studentService := services.NewStudentService(db)
	budgetService := services.NewBudgetService(db, studentService)
	expenseService := services.NewExpenseService(db, budgetService)
	investmentService := services.NewInvestmentService(db)
	advisorService := services.NewAdvisorService(db, studentService, budgetService, investmentService)
	alertService := services.NewAlertService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	studentHandler := handlers.NewStudentHandler(studentService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, studentService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, studentService, auditService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService, studentService, auditService)
	alertHandler := handlers.NewAlertHandler(advisorService, alertService, studentService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group. All routes require a bearer token from the identity
	// provider; students are keyed by the token subject.
	v1 := router.Group("/api/v1")

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// Student profile
	students := protected.Group("/students")
	students.POST("", studentHandler.Onboard)
	students.GET("/me", studentHandler.GetMe)
	students.PUT("/me", studentHandler.UpdateMe)

	// Categories and daily checklist
	protected.GET("/categories", expenseHandler.GetCategories)
	protected.GET("/checklist", expenseHandler.GetChecklist)
	protected.POST("/checklist/submit", expenseHandler.SubmitChecklist)

	// Expense routes
	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/day", expenseHandler.GetExpensesForDay)

	// Budget routes
	budget := protected.Group("/budget")
	budget.GET("/status", budgetHandler.GetStatus)
	budget.POST("/reset", budgetHandler.ResetCycle)
	budget.GET("/history", budgetHandler.GetSnapshots)

	// Investment routes
	investment := protected.Group("/investment")
	investment.POST("", investmentHandler.Open)
	investment.GET("", investmentHandler.Get)
	investment.PUT("/rate", investmentHandler.UpdateRate)
	investment.POST("/deposit", investmentHandler.Deposit)
	investment.POST("/withdraw", investmentHandler.Withdraw)
	investment.POST("/interest", investmentHandler.CreditInterest)
	investment.GET("/summary", investmentHandler.GetSummary)

	// Alert routes
	alerts := protected.Group("/alerts")
	alerts.POST("/evaluate", alertHandler.Evaluate)
	alerts.GET("", alertHandler.GetAlerts)
	alerts.GET("/unread-count", alertHandler.GetUnreadCount)
	alerts.PUT("/:id/read", alertHandler.MarkRead)
	alerts.PUT("/:id/resolve", alertHandler.Resolve)
	alerts.DELETE("/:id", alertHandler.DeleteAlert)

	log.Infof("Starting Stipend backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
