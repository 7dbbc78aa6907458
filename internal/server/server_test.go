package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/logger"
	"fintrack/internal/notify"
	"fintrack/internal/testutil"
	"fintrack/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	hub := notify.NewHub()
	t.Cleanup(func() { _ = hub.Close() })

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "integration-secret",
		JWTExpirationDur:   time.Hour,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
	router := New(cfg, database.NewManagerFromDB(db, "sqlite"), hub)
	return &apiClient{t: t, router: router}
}

func (a *apiClient) do(method, path string, body any) (int, map[string]any) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (a *apiClient) signUp(email string) {
	a.t.Helper()

	status, body := a.do("POST", "/auth/register", map[string]any{
		"email":    email,
		"password": "correct-horse-battery",
	})
	require.Equal(a.t, http.StatusCreated, status, body)
	a.token = body["token"].(string)
}

func (a *apiClient) createCategory(name string) string {
	a.t.Helper()

	status, body := a.do("POST", "/categories", map[string]any{"name": name})
	require.Equal(a.t, http.StatusCreated, status, body)
	return body["category"].(map[string]any)["id"].(string)
}

func (a *apiClient) createExpense(categoryID, amount, date string) {
	a.t.Helper()

	status, body := a.do("POST", "/expenses", map[string]any{
		"category_id": categoryID,
		"amount":      json.Number(amount),
		"description": "expense on " + date,
		"date":        date,
	})
	require.Equal(a.t, http.StatusCreated, status, body)
}

func TestHealth(t *testing.T) {
	api := newAPIClient(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"up"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newAPIClient(t)

	status, body := api.do("GET", "/budgets", nil)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])
}

func TestMonthlyBudgetOverspend(t *testing.T) {
	api := newAPIClient(t)
	api.signUp("food@example.com")
	food := api.createCategory("Food")

	status, body := api.do("POST", "/budgets", map[string]any{
		"category_id": food,
		"amount":      500,
		"period":      "monthly",
		"start_date":  "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, status, body)
	budgetID := body["budget"].(map[string]any)["id"].(string)

	api.createExpense(food, "100", "2024-03-05")
	api.createExpense(food, "450", "2024-03-20")

	status, body = api.do("GET", "/budgets/"+budgetID+"/progress", nil)
	require.Equal(t, http.StatusOK, status, body)
	progress := body["progress"].(map[string]any)
	assert.Equal(t, float64(550), progress["spent"])
	assert.Equal(t, float64(-50), progress["remaining"])
	assert.Equal(t, float64(110), progress["percentage_used"])
	assert.Equal(t, true, progress["is_alert_triggered"])

	status, body = api.do("POST", "/budgets/"+budgetID+"/evaluate", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["triggered"])
	alert := body["alert"].(map[string]any)
	assert.Equal(t, true, alert["is_exceeded"])
	assert.Equal(t, "Budget Exceeded!", alert["title"])

	status, body = api.do("GET", "/notifications?type=budget_exceeded", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["data"])
}

func TestYearlyBudgetDecomposition(t *testing.T) {
	api := newAPIClient(t)
	api.signUp("yearly@example.com")
	rent := api.createCategory("Rent")

	status, body := api.do("POST", "/budgets", map[string]any{
		"category_id": rent,
		"amount":      2400,
		"period":      "yearly",
		"start_date":  "2024-03-15",
	})
	require.Equal(t, http.StatusCreated, status, body)

	budget := body["budget"].(map[string]any)
	assert.True(t, strings.HasPrefix(budget["start_date"].(string), "2024-01-01"))
	assert.True(t, strings.HasPrefix(budget["end_date"].(string), "2024-12-31"))

	months := body["monthly_budgets"].([]any)
	require.Len(t, months, 12)
	total := 0.0
	for _, m := range months {
		month := m.(map[string]any)
		assert.Equal(t, float64(200), month["amount"])
		assert.Equal(t, budget["id"], month["parent_budget_id"])
		total += month["amount"].(float64)
	}
	assert.Equal(t, float64(2400), total)

	status, body = api.do("GET", "/budgets/yearly-summary?year=2024", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["yearly_budgets"], 1)
	assert.Len(t, body["months"], 12)
}

func TestRecurringExpenseProcessing(t *testing.T) {
	api := newAPIClient(t)
	api.signUp("recurring@example.com")
	subs := api.createCategory("Subscriptions")

	status, body := api.do("POST", "/expenses", map[string]any{
		"category_id":         subs,
		"amount":              json.Number("49.99"),
		"description":         "Streaming",
		"date":                "2024-01-15",
		"is_recurring":        true,
		"recurring_frequency": "monthly",
	})
	require.Equal(t, http.StatusCreated, status, body)
	template := body["expense"].(map[string]any)
	assert.True(t, strings.HasPrefix(template["next_recurring_date"].(string), "2024-02-15"))

	status, body = api.do("POST", "/expenses/process-recurring?today=2024-02-20", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(1), body["processed"])
	created := body["created"].([]any)
	require.Len(t, created, 1)
	child := created[0].(map[string]any)
	assert.True(t, strings.HasPrefix(child["date"].(string), "2024-02-15"))
	assert.Equal(t, 49.99, child["amount"])

	status, body = api.do("POST", "/expenses/process-recurring?today=2024-02-20", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(0), body["processed"])
}

func TestExportRoundTrip(t *testing.T) {
	api := newAPIClient(t)
	api.signUp("export@example.com")
	food := api.createCategory("Food")
	api.createExpense(food, "12.50", "2024-03-03")

	req := httptest.NewRequest("GET", "/api/v1/export/expenses?format=csv&from=2024-03-01&to=2024-03-31", nil)
	req.Header.Set("Authorization", "Bearer "+api.token)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "2024-03-03")
	assert.Contains(t, rec.Body.String(), "12.50")
}

func TestCORSPreflight(t *testing.T) {
	api := newAPIClient(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/budgets", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSConfigWithoutOrigins(t *testing.T) {
	c := corsConfig(nil)

	assert.True(t, c.AllowAllOrigins)
	assert.False(t, c.AllowCredentials)
	assert.NoError(t, c.Validate())
}
