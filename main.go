package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/finanzfolio/backend/src/config"
	"github.com/username/finanzfolio/backend/src/database"
	"github.com/username/finanzfolio/backend/src/handlers"
	"github.com/username/finanzfolio/backend/src/logger"
	"github.com/username/finanzfolio/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(config.Cfg.AllowedOrigins))
	for _, origin := range config.Cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Finanzfolio backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	var priceService services.PriceService
	switch config.Cfg.PriceProvider {
	case "none":
		priceService = nil
	case "static":
		priceService = services.NewStaticPriceService(nil)
	default:
		priceService = services.NewYahooPriceService(config.Cfg.PriceHTTPTimeout, config.Cfg.PriceCacheTTL)
	}

	importService := services.NewImportService(database.DB, priceService, reportCache)

	uploadHandler := handlers.NewUploadHandler(importService)
	portfolioHandler := handlers.NewPortfolioHandler(importService)
	positionHandler := handlers.NewPositionHandler(importService)
	pfManagerHandler := handlers.NewPortfolioManagerHandler(database.DB, importService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Finanzfolio Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/portfolios", pfManagerHandler.ListPortfolios)
		r.Post("/portfolios", pfManagerHandler.CreatePortfolio)
		r.Delete("/portfolios/{id}", pfManagerHandler.DeletePortfolio)

		r.Post("/upload", uploadHandler.HandleUpload)
		r.Get("/upload/history", uploadHandler.HandleGetUploadHistory)

		r.Get("/holdings", portfolioHandler.HandleGetHoldings)
		r.Get("/snapshot", portfolioHandler.HandleGetSnapshot)
		r.Get("/snapshot/top", portfolioHandler.HandleGetTopPerformers)
		r.Post("/prices/refresh", portfolioHandler.HandleRefreshPrices)

		r.Post("/positions", positionHandler.HandleAddManualPosition)
		r.Put("/positions/{id}", positionHandler.HandleUpdatePosition)
		r.Delete("/positions/{id}", positionHandler.HandleDeletePosition)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
