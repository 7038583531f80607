package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tradebotai/options-scanner/internal/config"
	"github.com/tradebotai/options-scanner/internal/handlers"
	"github.com/tradebotai/options-scanner/internal/httpmw"
	"github.com/tradebotai/options-scanner/internal/logger"
	"github.com/tradebotai/options-scanner/internal/marketdata"
	"github.com/tradebotai/options-scanner/internal/scanner"
	"github.com/tradebotai/options-scanner/internal/services"
	"github.com/tradebotai/options-scanner/internal/yahoo"
)

func main() {
	cfg := config.Load()

	// Initialize logging with config level and file path
	if err := logger.InitWithConfig(cfg.Logging.LogLevel, cfg.Logging.LogFile); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger.Always.Printf("🚀 Options Scanner starting - Port: %s", cfg.Port)

	// Upstream provider and the Data Access Layer around it
	logger.Info.Printf("📡 Creating market-data client - Base URL: %s", cfg.Provider.BaseURL)
	client := yahoo.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout())
	data := marketdata.NewService(client, cfg.Provider.MaxAttempts, cfg.Provider.Backoff(), cfg.Provider.CacheTTL)

	// Cross-expiration scanner with pacing toward the rate-limited upstream
	sc := scanner.NewScanner(data, cfg.Scan.Pacing())

	requestService := services.NewRequestService(cfg)
	scannerHandler := handlers.NewScannerHandler(data, sc, requestService, cfg)

	// Setup router
	r := mux.NewRouter()
	r.Use(httpmw.RequestID)

	// Serve static files (CSS, JS) - NO REBUILD NEEDED
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("web/static/"))))

	r.HandleFunc("/", scannerHandler.HomeHandler).Methods("GET")
	r.HandleFunc("/api/analyze", scannerHandler.AnalyzeHandler).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/export", scannerHandler.ExportHandler).Methods("GET")
	r.HandleFunc("/api/health", scannerHandler.HealthHandler).Methods("GET")

	fmt.Printf("🌐 Server starting on http://localhost:%s\n", cfg.Port)
	logger.Always.Printf("🌐 Server starting on http://localhost:%s", cfg.Port)

	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
