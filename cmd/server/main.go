package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finbook/backend/docs"
	"github.com/finbook/backend/internal/database"
	mW "github.com/finbook/backend/internal/middleware"
	"github.com/finbook/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Finbook API
// @version 1.0
// @description Personal finance backend with per-day account balance snapshots
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()        // read .env file

	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Finbook API"
	docs.SwaggerInfo.Description = "Personal finance backend with per-day account balance snapshots"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer database.CloseDB()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	authService := services.NewAuthService(db, redisClient)
	accountService := services.NewAccountService(db)
	transactionService := services.NewTransactionService(db)
	categoryService := services.NewCategoryService(db)
	budgetService := services.NewBudgetService(db)
	analyticsService := services.NewAnalyticsService(db, redisClient)
	exportService := services.NewExportService(db)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.GetDB().Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetUserAccount)
			r.Get("/settings/preferences", authService.GetPreferences)
			r.Put("/settings/preferences", authService.UpdatePreferences)

			r.Get("/accounts", accountService.ListAccounts)
			r.Post("/accounts", accountService.CreateAccount)
			r.Put("/accounts/{accountId}", accountService.UpdateAccount)
			r.Delete("/accounts/{accountId}", accountService.DeleteAccount)
			r.Get("/accounts/{accountId}/balance", accountService.GetAccountBalance)

			r.Get("/transactions", transactionService.ListTransactions)
			r.Get("/transactions/summary", transactionService.GetTransactionSummary)
			r.Get("/transactions/{txId}", transactionService.GetTransaction)
			r.Post("/transactions", transactionService.CreateTransaction)
			r.Put("/transactions/{txId}", transactionService.UpdateTransaction)
			r.Delete("/transactions/{txId}", transactionService.DeleteTransaction)
			r.Post("/transfers", transactionService.CreateTransfer)
			r.Post("/transactions/import", transactionService.ImportTransactions)

			r.Get("/categories", categoryService.ListCategories)
			r.Post("/categories", categoryService.CreateCategory)
			r.Put("/categories/{categoryId}", categoryService.UpdateCategory)
			r.Delete("/categories/{categoryId}", categoryService.DeleteCategory)
			r.Post("/categories/import", categoryService.ImportCategories)

			r.Get("/budgets", budgetService.ListBudgets)
			r.Post("/budgets", budgetService.CreateBudget)
			r.Put("/budgets/{budgetId}", budgetService.UpdateBudget)
			r.Delete("/budgets/{budgetId}", budgetService.DeleteBudget)

			r.Get("/analytics/summary", analyticsService.GetSummary)
			r.Get("/analytics/spending-by-category", analyticsService.GetSpendingByCategory)
			r.Get("/analytics/monthly-trends", analyticsService.GetMonthlyTrends)
			r.Get("/analytics/net-worth", analyticsService.GetNetWorth)
			r.Get("/analytics/net-worth-history", analyticsService.GetNetWorthHistory)
			r.Get("/analytics/category-breakdown", analyticsService.GetCategoryBreakdown)

			r.Get("/export", exportService.ExportUserData)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
