package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"time"

	"pricer/config"
	"pricer/database"
	"pricer/handlers"
	"pricer/middleware"
	"pricer/repository"
	"pricer/scheduler"
	"pricer/scraper"
	"pricer/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

var startTime = time.Now()

// Metrics struct for basic monitoring
type Metrics struct {
	Timestamp   time.Time `json:"timestamp"`
	Uptime      string    `json:"uptime"`
	Goroutines  int       `json:"goroutines"`
	MemoryUsage string    `json:"memory_usage"`
	RunActive   bool      `json:"run_active"`
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Create tables
	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	// Initialize market API client
	market := services.NewMarketClient(cfg)
	if cfg.DryRun {
		log.Println("Dry-run mode: prices will be logged, not uploaded")
	}

	// Initialize scraper
	productScraper, err := scraper.NewProductScraper(cfg)
	if err != nil {
		log.Fatalf("Failed to create scraper: %v", err)
	}
	defer productScraper.Close()

	// Initialize the run orchestrator
	runner := scheduler.NewRunner(cfg, market, productScraper)

	// Initialize and start the scheduler
	sched := scheduler.NewScheduler(runner)
	if err := sched.Start(cfg.ScrapeSchedule); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Initialize handlers
	h := handlers.NewHandlers(runner)

	// Setup router
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPS))
	r.Use(middleware.AuthMiddleware(cfg.AdminToken))

	// Health and monitoring endpoints (no auth required)
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/metrics", getMetrics(runner)).Methods("GET")
	r.HandleFunc("/status", getStatus(runner)).Methods("GET")

	// API v1 routes
	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/runs", h.TriggerRun).Methods("POST")
	apiV1.HandleFunc("/runs", h.GetRuns).Methods("GET")
	apiV1.HandleFunc("/runs/{id}", h.GetRun).Methods("GET")
	apiV1.HandleFunc("/runs/{id}/prices", h.GetRunPrices).Methods("GET")
	apiV1.HandleFunc("/retailers", h.GetRetailers).Methods("GET")
	apiV1.HandleFunc("/extract", h.ExtractPrice).Methods("POST")

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})

	log.Printf("Server starting on %s:%s", cfg.Host, cfg.Port)
	log.Printf("   GET  /health - Health check")
	log.Printf("   GET  /metrics - System metrics")
	log.Printf("   GET  /status - Run status")
	log.Printf("   POST /api/v1/runs - Trigger a scrape run")
	log.Printf("   GET  /api/v1/runs - Recent scrape runs")
	log.Printf("   POST /api/v1/extract - Ad-hoc price extraction")

	// Start server
	log.Fatal(http.ListenAndServe(cfg.Host+":"+cfg.Port, c.Handler(r)))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service":   "pricer",
		"status":    "healthy",
		"timestamp": time.Now(),
		"retailers": scraper.SupportedRetailers(),
	}
	writeJSON(w, http.StatusOK, response)
}

func getMetrics(runner *scheduler.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		writeJSON(w, http.StatusOK, Metrics{
			Timestamp:   time.Now(),
			Uptime:      time.Since(startTime).String(),
			Goroutines:  runtime.NumGoroutine(),
			MemoryUsage: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			RunActive:   runner.IsRunning(),
		})
	}
}

func getStatus(runner *scheduler.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runRepo := repository.NewRunRepository()
		runs, err := runRepo.GetRecentRuns(1)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get runs")
			return
		}

		status := map[string]interface{}{
			"timestamp":  time.Now(),
			"uptime":     time.Since(startTime).String(),
			"run_active": runner.IsRunning(),
		}
		if len(runs) > 0 {
			status["last_run"] = runs[0]
		}

		writeJSON(w, http.StatusOK, status)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
