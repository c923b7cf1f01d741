package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestRangeStart(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-08-01", rangeStart("30d", now))
	assert.Equal(t, "2026-06-02", rangeStart("90d", now))
	// AddDate normalizes the nonexistent Feb 31 forward into March
	assert.Equal(t, "2026-03-03", rangeStart("6m", now))
	assert.Equal(t, "2025-08-31", rangeStart("1y", now))
	assert.Equal(t, "2026-08-01", rangeStart("bogus", now))
}

func TestAnalyticsService_GetSummary(t *testing.T) {
	t.Run("cache miss computes and stores", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		redisClient, redisMock := redismock.NewClientMock()
		service := NewAnalyticsService(db, redisClient)

		expected, _ := json.Marshal(AnalyticsSummary{
			Income:      5000,
			Expenses:    3000,
			Net:         2000,
			SavingsRate: 40,
		})

		redisMock.ExpectGet("analytics:1:summary:30d").RedisNil()
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(1, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"income", "expenses"}).AddRow(500000, 300000))
		redisMock.ExpectSet("analytics:1:summary:30d", expected, analyticsCacheTTL).SetVal("OK")

		r := authedRequest("GET", "/analytics/summary", nil)
		w := httptest.NewRecorder()

		service.GetSummary(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var summary AnalyticsSummary
		json.Unmarshal(w.Body.Bytes(), &summary)
		assert.Equal(t, 5000.0, summary.Income)
		assert.Equal(t, 40.0, summary.SavingsRate)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache hit skips the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		redisClient, redisMock := redismock.NewClientMock()
		service := NewAnalyticsService(db, redisClient)

		cached, _ := json.Marshal(AnalyticsSummary{Income: 100, Expenses: 50, Net: 50, SavingsRate: 50})
		redisMock.ExpectGet("analytics:1:summary:90d").SetVal(string(cached))

		r := authedRequest("GET", "/analytics/summary?range=90d", nil)
		w := httptest.NewRecorder()

		service.GetSummary(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var summary AnalyticsSummary
		json.Unmarshal(w.Body.Bytes(), &summary)
		assert.Equal(t, 100.0, summary.Income)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("no redis degrades to compute-only", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAnalyticsService(db, nil)

		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(1, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"income", "expenses"}).AddRow(0, 10000))

		r := authedRequest("GET", "/analytics/summary", nil)
		w := httptest.NewRecorder()

		service.GetSummary(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var summary AnalyticsSummary
		json.Unmarshal(w.Body.Bytes(), &summary)
		assert.Equal(t, -100.0, summary.Net)
		// No income means the savings rate stays at zero
		assert.Equal(t, 0.0, summary.SavingsRate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnalyticsService_GetSpendingByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAnalyticsService(db, nil)

	catID := "cat1"
	mock.ExpectQuery("SELECT t.category_id, COALESCE\\(c.name, 'Uncategorized'\\)").
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "name", "color", "amount"}).
			AddRow(catID, "Groceries", "#ff0000", 30000).
			AddRow(nil, "Uncategorized", "", 10000))

	r := authedRequest("GET", "/analytics/spending-by-category", nil)
	w := httptest.NewRecorder()

	service.GetSpendingByCategory(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var spending []CategorySpending
	json.Unmarshal(w.Body.Bytes(), &spending)
	assert.Len(t, spending, 2)
	assert.Equal(t, 300.0, spending[0].Amount)
	assert.Equal(t, 75.0, spending[0].Percentage)
	assert.Nil(t, spending[1].CategoryID)
	assert.Equal(t, 25.0, spending[1].Percentage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsService_GetMonthlyTrends(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAnalyticsService(db, nil)

	mock.ExpectQuery("SELECT TO_CHAR").
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"month", "income", "expenses"}).
			AddRow("2026-07", 500000, 420000).
			AddRow("2026-08", 500000, 380000))

	r := authedRequest("GET", "/analytics/monthly-trends", nil)
	w := httptest.NewRecorder()

	service.GetMonthlyTrends(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var trends []MonthlyTrend
	json.Unmarshal(w.Body.Bytes(), &trends)
	assert.Len(t, trends, 2)
	assert.Equal(t, "2026-07", trends[0].Month)
	assert.Equal(t, 800.0, trends[0].Net)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsService_GetNetWorthHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAnalyticsService(db, nil)

	// One total per month end, twelve months back
	for i := 0; i < 12; i++ {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(latest.balance\\), 0\\)").
			WithArgs(1, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(100000 + i*1000))
	}

	r := authedRequest("GET", "/analytics/net-worth-history", nil)
	w := httptest.NewRecorder()

	service.GetNetWorthHistory(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var history []NetWorthPoint
	json.Unmarshal(w.Body.Bytes(), &history)
	assert.Len(t, history, 12)
	assert.Equal(t, 1000.0, history[0].NetWorth)
	assert.Equal(t, 1110.0, history[11].NetWorth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsService_GetNetWorth(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAnalyticsService(db, nil)

	// Today first, then the end of the previous month
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(latest.balance\\), 0\\)").
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(1234500))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(latest.balance\\), 0\\)").
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(1200000))

	r := authedRequest("GET", "/analytics/net-worth", nil)
	w := httptest.NewRecorder()

	service.GetNetWorth(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var nw NetWorth
	json.Unmarshal(w.Body.Bytes(), &nw)
	assert.Equal(t, 12345.0, nw.Current)
	assert.Equal(t, 12000.0, nw.Previous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsService_GetCategoryBreakdown(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAnalyticsService(db, nil)

	catID := "cat1"
	mock.ExpectQuery("SELECT t.category_id, COALESCE\\(c.name, 'Uncategorized'\\)").
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "name", "color", "income", "expenses"}).
			AddRow(catID, "Side gig", "#00ff00", 120000, 20000))

	r := authedRequest("GET", "/analytics/category-breakdown?range=1y", nil)
	w := httptest.NewRecorder()

	service.GetCategoryBreakdown(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var breakdown []CategoryBreakdown
	json.Unmarshal(w.Body.Bytes(), &breakdown)
	assert.Len(t, breakdown, 1)
	assert.Equal(t, 1200.0, breakdown[0].Income)
	assert.Equal(t, 200.0, breakdown[0].Expenses)
	assert.NoError(t, mock.ExpectationsWereMet())
}
