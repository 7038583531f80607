package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gocarina/gocsv"

	"github.com/tradebotai/options-scanner/internal/config"
	"github.com/tradebotai/options-scanner/internal/logger"
	"github.com/tradebotai/options-scanner/internal/marketdata"
	"github.com/tradebotai/options-scanner/internal/models"
	"github.com/tradebotai/options-scanner/internal/scanner"
	"github.com/tradebotai/options-scanner/internal/services"
)

// dataDelayLabel is the fixed provider-delay note shown in the metrics strip
const dataDelayLabel = "~15 min"

// DataService is the Data Access Layer surface the handlers depend on
type DataService interface {
	GetTickerInfo(ctx context.Context, ticker string) (*models.TickerSnapshot, error)
	GetOptionChain(ctx context.Context, ticker, expiration, optionType string) (*models.OptionChain, error)
}

// ReportScanner runs the cross-expiration unusual-activity pass
type ReportScanner interface {
	ScanAll(ctx context.Context, ticker string, expirations []string, optionType string, currentPrice float64, minVolume, limit int) models.UnusualActivityReport
}

// ScannerHandler handles the scanner's HTTP surface - routing and
// presentation only, no analysis logic.
type ScannerHandler struct {
	data     DataService
	scanner  ReportScanner
	requests *services.RequestService
	config   *config.Config
}

// NewScannerHandler creates a new scanner handler
func NewScannerHandler(data DataService, sc ReportScanner, requests *services.RequestService, cfg *config.Config) *ScannerHandler {
	return &ScannerHandler{
		data:     data,
		scanner:  sc,
		requests: requests,
		config:   cfg,
	}
}

// HomeHandler serves the main web interface
func (h *ScannerHandler) HomeHandler(w http.ResponseWriter, r *http.Request) {
	funcMap := template.FuncMap{
		"appTitle": func() string {
			return "📊 TradeBot — Options Scanner"
		},
		"appDescription": func() string {
			return "Unusual Activity · Greeks · OI · Volume · IV%"
		},
		"defaultTicker": func() string {
			return h.config.DefaultTicker
		},
		"defaultOptionType": func() string {
			return h.config.DefaultOptionType
		},
		"defaultMinVolume": func() int {
			return h.config.DefaultMinVolume
		},
		"minVolumeFloor": func() int {
			return h.config.MinVolumeFloor
		},
		"dataDelay": func() string {
			return dataDelayLabel
		},
	}

	tmpl, err := template.New("index.html").Funcs(funcMap).ParseFiles("web/templates/index.html")
	if err != nil {
		logger.Error.Printf("❌ Failed to parse template: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, nil); err != nil {
		logger.Error.Printf("❌ Failed to render template: %v", err)
	}
}

// AnalyzeHandler runs one full analysis: snapshot, annotated chain for the
// chosen expiration, and the cross-expiration unusual-activity report.
func (h *ScannerHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	req, err := h.requests.ParseAnalyzeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), "")
		return
	}

	logger.Info.Printf("📊 ANALYZE: ticker=%s type=%s min_volume=%d expiration=%q",
		req.Ticker, req.OptionType, req.MinVolume, req.Expiration)

	response, status, herr := h.analyze(r.Context(), req)
	if herr != nil {
		writeError(w, status, herr.code, herr.message, herr.details)
		return
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error.Printf("❌ Failed to encode analyze response: %v", err)
	}
}

// handlerError carries the JSON error payload fields
type handlerError struct {
	code    string
	message string
	details string
}

// analyze is the shared analysis pipeline behind the JSON and CSV endpoints
func (h *ScannerHandler) analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, int, *handlerError) {
	snapshot, err := h.data.GetTickerInfo(ctx, req.Ticker)
	if err != nil || len(snapshot.Expirations) == 0 {
		// Blocking failure: analysis cannot proceed without expirations
		logger.Warn.Printf("⚠️ No data for %s (err=%v)", req.Ticker, err)
		return nil, http.StatusBadGateway, &handlerError{
			code:    "TICKER_UNAVAILABLE",
			message: fmt.Sprintf("❌ Could not fetch data for %s.", req.Ticker),
			details: "⏳ The data provider rate-limits requests. Wait 1-2 minutes and try again. 💡 Tip: try AAPL or SPY first to verify the connection.",
		}
	}

	expiration := req.Expiration
	if expiration == "" {
		expiration = snapshot.Expirations[0]
	}

	chain, err := h.data.GetOptionChain(ctx, req.Ticker, expiration, req.OptionType)
	if err != nil {
		if errors.Is(err, marketdata.ErrChainUnavailable) {
			// Retryable: the user should wait and try again
			return nil, http.StatusServiceUnavailable, &handlerError{
				code:    "CHAIN_UNAVAILABLE",
				message: "❌ Error loading the options chain. Wait 2 minutes and try again.",
				details: fmt.Sprintf("ticker=%s expiration=%s", req.Ticker, expiration),
			}
		}
		return nil, http.StatusBadRequest, &handlerError{code: "BAD_REQUEST", message: err.Error()}
	}

	annotated := scanner.Annotate(chain.Rows, snapshot.Price, req.MinVolume)
	report := h.scanner.ScanAll(ctx, req.Ticker, snapshot.Expirations, req.OptionType,
		snapshot.Price, req.MinVolume, h.config.Scan.ExpirationLimit)

	response := &models.AnalyzeResponse{
		Snapshot:    *snapshot,
		OptionType:  req.OptionType,
		Expiration:  expiration,
		DataDelay:   dataDelayLabel,
		HasGreeks:   scanner.HasGreeks(chain.Rows),
		Chain:       annotated,
		Unusual:     scanner.FilterUnusual(annotated),
		CrossReport: report,
	}
	return response, http.StatusOK, nil
}

// ExportHandler streams the cross-expiration unusual report as CSV
func (h *ScannerHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	req, err := h.requests.ParseQueryRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), "")
		return
	}

	response, status, herr := h.analyze(r.Context(), req)
	if herr != nil {
		writeError(w, status, herr.code, herr.message, herr.details)
		return
	}

	filename := config.FormatExportFilename(h.config.CSV.FilenameFormat, req.Ticker, req.OptionType)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := gocsv.Marshal(response.CrossReport.Rows, w); err != nil {
		logger.Error.Printf("❌ Failed to write CSV export: %v", err)
	}
}

// HealthHandler checks provider connectivity with the default ticker
func (h *ScannerHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	w.Header().Set("Content-Type", "application/json")

	snapshot, err := h.data.GetTickerInfo(r.Context(), h.config.DefaultTicker)
	if err != nil {
		writeError(w, http.StatusBadGateway, "PROVIDER_UNAVAILABLE",
			"❌ Data provider unreachable", err.Error())
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "ok",
		"ticker":      snapshot.Symbol,
		"price":       snapshot.Price,
		"expirations": len(snapshot.Expirations),
	})
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeError(w http.ResponseWriter, status int, code, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
		"details": details,
	})
}
