package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

// analyticsCacheTTL keeps answers fresh enough for dashboards while absorbing
// repeated loads.
const analyticsCacheTTL = 5 * time.Minute

type AnalyticsService struct {
	db    *sql.DB
	redis *redis.Client
}

func NewAnalyticsService(db *sql.DB, redisClient *redis.Client) *AnalyticsService {
	return &AnalyticsService{
		db:    db,
		redis: redisClient,
	}
}

type AnalyticsSummary struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Net         float64 `json:"net"`
	SavingsRate float64 `json:"savingsRate"`
}

type CategorySpending struct {
	CategoryID   *string `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Color        string  `json:"color"`
	Amount       float64 `json:"amount"`
	Percentage   float64 `json:"percentage"`
}

type MonthlyTrend struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

type NetWorthPoint struct {
	Month    string  `json:"month"`
	NetWorth float64 `json:"netWorth"`
}

type NetWorth struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

type CategoryBreakdown struct {
	CategoryID   *string `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Color        string  `json:"color"`
	Income       float64 `json:"income"`
	Expenses     float64 `json:"expenses"`
}

// rangeStart maps a range keyword onto its inclusive start date. Unknown
// keywords fall back to 30 days.
func rangeStart(rangeKey string, now time.Time) string {
	switch rangeKey {
	case "90d":
		return now.AddDate(0, 0, -90).Format("2006-01-02")
	case "6m":
		return now.AddDate(0, -6, 0).Format("2006-01-02")
	case "1y":
		return now.AddDate(-1, 0, 0).Format("2006-01-02")
	default:
		return now.AddDate(0, 0, -30).Format("2006-01-02")
	}
}

// cached tries the Redis cache first and falls back to compute, writing the
// result back on a miss. Redis being down degrades to compute-only.
func (ans *AnalyticsService) cached(ctx context.Context, key string, compute func() (any, error)) ([]byte, error) {
	if ans.redis != nil {
		if data, err := ans.redis.Get(ctx, key).Bytes(); err == nil {
			return data, nil
		}
	}

	result, err := compute()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	if ans.redis != nil {
		if err := ans.redis.Set(ctx, key, data, analyticsCacheTTL).Err(); err != nil {
			log.Printf("[ANALYTICS] Failed to cache %s: %v", key, err)
		}
	}

	return data, nil
}

func sendCached(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetSummary returns income, expenses, net and savings rate over the range
// @Summary Analytics summary
// @Tags analytics
// @Produce json
// @Param range query string false "Range (30d, 90d, 6m, 1y)"
// @Success 200 {object} AnalyticsSummary
// @Failure 500 {object} ErrorResponse
// @Router /analytics/summary [get]
func (ans *AnalyticsService) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rangeKey := r.URL.Query().Get("range")
	if rangeKey == "" {
		rangeKey = "30d"
	}
	start := rangeStart(rangeKey, time.Now())

	key := fmt.Sprintf("analytics:%d:summary:%s", userID, rangeKey)
	data, err := ans.cached(r.Context(), key, func() (any, error) {
		var income, expenses int64
		err := ans.db.QueryRow(`
			SELECT COALESCE(SUM(CASE WHEN t.type = 'inflow' THEN t.amount ELSE 0 END), 0),
			       COALESCE(SUM(CASE WHEN t.type = 'outflow' THEN t.amount ELSE 0 END), 0)
			FROM transactions t
			INNER JOIN accounts a ON t.account_id = a.id
			WHERE a.user_id = $1 AND t.date >= $2 AND t.transfer_id IS NULL`,
			userID, start).Scan(&income, &expenses)
		if err != nil {
			return nil, err
		}

		summary := AnalyticsSummary{
			Income:   fromCents(income),
			Expenses: fromCents(expenses),
			Net:      fromCents(income - expenses),
		}
		if income > 0 {
			summary.SavingsRate = float64(income-expenses) / float64(income) * 100
		}
		return summary, nil
	})
	if err != nil {
		log.Printf("[ANALYTICS] Failed to compute summary: %v", err)
		SendErrorResponse(w, "Failed to fetch analytics", http.StatusInternalServerError, nil)
		return
	}

	sendCached(w, data)
}

// GetSpendingByCategory returns outflow totals per category over the range.
// Transactions without a category land in an "Uncategorized" bucket.
// @Summary Spending by category
// @Tags analytics
// @Produce json
// @Param range query string false "Range (30d, 90d, 6m, 1y)"
// @Success 200 {array} CategorySpending
// @Failure 500 {object} ErrorResponse
// @Router /analytics/spending-by-category [get]
func (ans *AnalyticsService) GetSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rangeKey := r.URL.Query().Get("range")
	if rangeKey == "" {
		rangeKey = "30d"
	}
	start := rangeStart(rangeKey, time.Now())

	key := fmt.Sprintf("analytics:%d:spending-by-category:%s", userID, rangeKey)
	data, err := ans.cached(r.Context(), key, func() (any, error) {
		rows, err := ans.db.Query(`
			SELECT t.category_id, COALESCE(c.name, 'Uncategorized'), COALESCE(c.color, ''),
			       SUM(t.amount)
			FROM transactions t
			INNER JOIN accounts a ON t.account_id = a.id
			LEFT JOIN categories c ON t.category_id = c.id
			WHERE a.user_id = $1 AND t.type = 'outflow' AND t.date >= $2 AND t.transfer_id IS NULL
			GROUP BY t.category_id, c.name, c.color
			ORDER BY SUM(t.amount) DESC`, userID, start)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		spending := []CategorySpending{}
		var total int64
		amounts := []int64{}
		for rows.Next() {
			var cs CategorySpending
			var amount int64
			if err := rows.Scan(&cs.CategoryID, &cs.CategoryName, &cs.Color, &amount); err != nil {
				return nil, err
			}
			cs.Amount = fromCents(amount)
			spending = append(spending, cs)
			amounts = append(amounts, amount)
			total += amount
		}

		if total > 0 {
			for i := range spending {
				spending[i].Percentage = float64(amounts[i]) / float64(total) * 100
			}
		}
		return spending, nil
	})
	if err != nil {
		log.Printf("[ANALYTICS] Failed to compute spending by category: %v", err)
		SendErrorResponse(w, "Failed to fetch analytics", http.StatusInternalServerError, nil)
		return
	}

	sendCached(w, data)
}

// GetMonthlyTrends returns income and expenses per month for the last year
// @Summary Monthly trends
// @Tags analytics
// @Produce json
// @Success 200 {array} MonthlyTrend
// @Failure 500 {object} ErrorResponse
// @Router /analytics/monthly-trends [get]
func (ans *AnalyticsService) GetMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	start := time.Now().AddDate(-1, 0, 0).Format("2006-01-02")

	key := fmt.Sprintf("analytics:%d:monthly-trends", userID)
	data, err := ans.cached(r.Context(), key, func() (any, error) {
		rows, err := ans.db.Query(`
			SELECT TO_CHAR(t.date::date, 'YYYY-MM'),
			       COALESCE(SUM(CASE WHEN t.type = 'inflow' THEN t.amount ELSE 0 END), 0),
			       COALESCE(SUM(CASE WHEN t.type = 'outflow' THEN t.amount ELSE 0 END), 0)
			FROM transactions t
			INNER JOIN accounts a ON t.account_id = a.id
			WHERE a.user_id = $1 AND t.date >= $2 AND t.transfer_id IS NULL
			GROUP BY 1
			ORDER BY 1 ASC`, userID, start)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		trends := []MonthlyTrend{}
		for rows.Next() {
			var mt MonthlyTrend
			var income, expenses int64
			if err := rows.Scan(&mt.Month, &income, &expenses); err != nil {
				return nil, err
			}
			mt.Income = fromCents(income)
			mt.Expenses = fromCents(expenses)
			mt.Net = fromCents(income - expenses)
			trends = append(trends, mt)
		}
		return trends, nil
	})
	if err != nil {
		log.Printf("[ANALYTICS] Failed to compute monthly trends: %v", err)
		SendErrorResponse(w, "Failed to fetch analytics", http.StatusInternalServerError, nil)
		return
	}

	sendCached(w, data)
}

// GetNetWorthHistory returns total net worth at the end of each of the last
// twelve months. Each account contributes its latest snapshot on or before
// the month end.
// @Summary Net worth history
// @Tags analytics
// @Produce json
// @Success 200 {array} NetWorthPoint
// @Failure 500 {object} ErrorResponse
// @Router /analytics/net-worth-history [get]
func (ans *AnalyticsService) GetNetWorthHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	key := fmt.Sprintf("analytics:%d:net-worth-history", userID)
	data, err := ans.cached(r.Context(), key, func() (any, error) {
		now := time.Now()
		history := []NetWorthPoint{}
		for i := 11; i >= 0; i-- {
			monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
			monthEnd := monthStart.AddDate(0, 1, -1).Format("2006-01-02")

			total, err := ans.netWorthAt(userID, monthEnd)
			if err != nil {
				return nil, err
			}

			history = append(history, NetWorthPoint{
				Month:    monthStart.Format("2006-01"),
				NetWorth: fromCents(total),
			})
		}
		return history, nil
	})
	if err != nil {
		log.Printf("[ANALYTICS] Failed to compute net worth history: %v", err)
		SendErrorResponse(w, "Failed to fetch analytics", http.StatusInternalServerError, nil)
		return
	}

	sendCached(w, data)
}

// netWorthAt sums each account's latest snapshot on or before cutoff.
func (ans *AnalyticsService) netWorthAt(userID int, cutoff string) (int64, error) {
	var total int64
	err := ans.db.QueryRow(`
		SELECT COALESCE(SUM(latest.balance), 0)
		FROM accounts a
		INNER JOIN LATERAL (
			SELECT b.balance FROM account_balances b
			WHERE b.account_id = a.id AND b.date <= $2
			ORDER BY b.date DESC LIMIT 1
		) latest ON TRUE
		WHERE a.user_id = $1`, userID, cutoff).Scan(&total)
	return total, err
}

// GetNetWorth returns net worth as of today next to net worth at the end of
// the previous month
// @Summary Current and previous-month net worth
// @Tags analytics
// @Produce json
// @Success 200 {object} NetWorth
// @Failure 500 {object} ErrorResponse
// @Router /analytics/net-worth [get]
func (ans *AnalyticsService) GetNetWorth(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	key := fmt.Sprintf("analytics:%d:net-worth", userID)
	data, err := ans.cached(r.Context(), key, func() (any, error) {
		now := time.Now()
		today := now.Format("2006-01-02")
		// Day zero normalizes to the last day of the previous month.
		prevMonthEnd := time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, now.Location()).Format("2006-01-02")

		current, err := ans.netWorthAt(userID, today)
		if err != nil {
			return nil, err
		}
		previous, err := ans.netWorthAt(userID, prevMonthEnd)
		if err != nil {
			return nil, err
		}

		return NetWorth{
			Current:  fromCents(current),
			Previous: fromCents(previous),
		}, nil
	})
	if err != nil {
		log.Printf("[ANALYTICS] Failed to compute net worth: %v", err)
		SendErrorResponse(w, "Failed to fetch analytics", http.StatusInternalServerError, nil)
		return
	}

	sendCached(w, data)
}

// GetCategoryBreakdown returns income and expenses per category over the range
// @Summary Category breakdown
// @Tags analytics
// @Produce json
// @Param range query string false "Range (30d, 90d, 6m, 1y)"
// @Success 200 {array} CategoryBreakdown
// @Failure 500 {object} ErrorResponse
// @Router /analytics/category-breakdown [get]
func (ans *AnalyticsService) GetCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rangeKey := r.URL.Query().Get("range")
	if rangeKey == "" {
		rangeKey = "30d"
	}
	start := rangeStart(rangeKey, time.Now())

	key := fmt.Sprintf("analytics:%d:category-breakdown:%s", userID, rangeKey)
	data, err := ans.cached(r.Context(), key, func() (any, error) {
		rows, err := ans.db.Query(`
			SELECT t.category_id, COALESCE(c.name, 'Uncategorized'), COALESCE(c.color, ''),
			       COALESCE(SUM(CASE WHEN t.type = 'inflow' THEN t.amount ELSE 0 END), 0),
			       COALESCE(SUM(CASE WHEN t.type = 'outflow' THEN t.amount ELSE 0 END), 0)
			FROM transactions t
			INNER JOIN accounts a ON t.account_id = a.id
			LEFT JOIN categories c ON t.category_id = c.id
			WHERE a.user_id = $1 AND t.date >= $2 AND t.transfer_id IS NULL
			GROUP BY t.category_id, c.name, c.color
			ORDER BY c.name ASC NULLS LAST`, userID, start)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		breakdown := []CategoryBreakdown{}
		for rows.Next() {
			var cb CategoryBreakdown
			var income, expenses int64
			if err := rows.Scan(&cb.CategoryID, &cb.CategoryName, &cb.Color, &income, &expenses); err != nil {
				return nil, err
			}
			cb.Income = fromCents(income)
			cb.Expenses = fromCents(expenses)
			breakdown = append(breakdown, cb)
		}
		return breakdown, nil
	})
	if err != nil {
		log.Printf("[ANALYTICS] Failed to compute category breakdown: %v", err)
		SendErrorResponse(w, "Failed to fetch analytics", http.StatusInternalServerError, nil)
		return
	}

	sendCached(w, data)
}
