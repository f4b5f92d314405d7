package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stipend/internal/handlers"
	"stipend/internal/logger"
	"stipend/internal/middleware"
	"stipend/internal/models"
	"stipend/internal/services"
	"stipend/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.Student{},
		&models.ExpenseCategory{},
		&models.ChecklistItem{},
		&models.Expense{},
		&models.BudgetSnapshot{},
		&models.Investment{},
		&models.InvestmentTransaction{},
		&models.Alert{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	studentService := services.NewStudentService(db)
	budgetService := services.NewBudgetService(db, studentService)
	expenseService := services.NewExpenseService(db, budgetService)
	investmentService := services.NewInvestmentService(db)
	advisorService := services.NewAdvisorService(db, studentService, budgetService, investmentService)
	alertService := services.NewAlertService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	studentHandler := handlers.NewStudentHandler(studentService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, studentService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, studentService, auditService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService, studentService, auditService)
	alertHandler := handlers.NewAlertHandler(advisorService, alertService, studentService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	students := protected.Group("/students")
	students.POST("", studentHandler.Onboard)
	students.GET("/me", studentHandler.GetMe)
	students.PUT("/me", studentHandler.UpdateMe)

	protected.GET("/categories", expenseHandler.GetCategories)
	protected.GET("/checklist", expenseHandler.GetChecklist)
	protected.POST("/checklist/submit", expenseHandler.SubmitChecklist)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/day", expenseHandler.GetExpensesForDay)

	budget := protected.Group("/budget")
	budget.GET("/status", budgetHandler.GetStatus)
	budget.POST("/reset", budgetHandler.ResetCycle)
	budget.GET("/history", budgetHandler.GetSnapshots)

	investment := protected.Group("/investment")
	investment.POST("", investmentHandler.Open)
	investment.GET("", investmentHandler.Get)
	investment.PUT("/rate", investmentHandler.UpdateRate)
	investment.POST("/deposit", investmentHandler.Deposit)
	investment.POST("/withdraw", investmentHandler.Withdraw)
	investment.POST("/interest", investmentHandler.CreditInterest)
	investment.GET("/summary", investmentHandler.GetSummary)

	alerts := protected.Group("/alerts")
	alerts.POST("/evaluate", alertHandler.Evaluate)
	alerts.GET("", alertHandler.GetAlerts)
	alerts.GET("/unread-count", alertHandler.GetUnreadCount)
	alerts.PUT("/:id/read", alertHandler.MarkRead)
	alerts.PUT("/:id/resolve", alertHandler.Resolve)
	alerts.DELETE("/:id", alertHandler.DeleteAlert)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// tokenCounter gives each onboarded student a unique identity subject.
var tokenCounter atomic.Int64

// mintToken signs a token the way the identity provider would.
func mintToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := middleware.SignToken(subject, subject+"@test.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// onboardStudent creates a profile for a fresh identity and returns its token.
func (app *testApp) onboardStudent(t *testing.T, monthlyBudget string) string {
	t.Helper()
	subject := fmt.Sprintf("it-sub-%d", tokenCounter.Add(1))
	token := mintToken(t, subject)

	body := fmt.Sprintf(`{"name":"Test Student","monthly_budget":%q}`, monthlyBudget)
	rec := app.request("POST", "/api/v1/students", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("onboarding failed: %d %s", rec.Code, rec.Body.String())
	}
	return token
}

// createCategory inserts an expense category directly and returns its ID.
func (app *testApp) createCategory(t *testing.T, name string) uint {
	t.Helper()
	category := &models.ExpenseCategory{Name: name}
	if err := app.DB.Create(category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	return category.ID
}

// createChecklistItem inserts an active checklist row for the category.
func (app *testApp) createChecklistItem(t *testing.T, categoryID uint, order int) {
	t.Helper()
	item := &models.ChecklistItem{CategoryID: categoryID, DisplayOrder: order, IsActive: true}
	if err := app.DB.Create(item).Error; err != nil {
		t.Fatalf("failed to create checklist item: %v", err)
	}
}
