package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tradebotai/options-scanner/internal/config"
	"github.com/tradebotai/options-scanner/internal/marketdata"
	"github.com/tradebotai/options-scanner/internal/models"
	"github.com/tradebotai/options-scanner/internal/scanner"
	"github.com/tradebotai/options-scanner/internal/services"
)

type fakeData struct {
	snapshot *models.TickerSnapshot
	snapErr  error
	chain    *models.OptionChain
	chainErr error
}

func (f *fakeData) GetTickerInfo(ctx context.Context, ticker string) (*models.TickerSnapshot, error) {
	if f.snapErr != nil {
		return &models.TickerSnapshot{Symbol: ticker, Name: ticker, Expirations: []string{}}, f.snapErr
	}
	return f.snapshot, nil
}

func (f *fakeData) GetOptionChain(ctx context.Context, ticker, expiration, optionType string) (*models.OptionChain, error) {
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	return f.chain, nil
}

func newTestHandler(data *fakeData) *ScannerHandler {
	cfg := &config.Config{
		DefaultTicker:     "AAPL",
		DefaultOptionType: "calls",
		DefaultMinVolume:  100,
		MinVolumeFloor:    10,
		Scan:              config.ScanConfig{ExpirationLimit: 5},
		CSV:               config.CSVConfig{FilenameFormat: "{ticker}_{option_type}_unusual.csv"},
	}
	sc := scanner.NewScanner(data, 0)
	return NewScannerHandler(data, sc, services.NewRequestService(cfg), cfg)
}

func postAnalyze(t *testing.T, h *ScannerHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.AnalyzeHandler(w, r)
	return w
}

func TestAnalyzeHappyPath(t *testing.T) {
	data := &fakeData{
		snapshot: &models.TickerSnapshot{
			Symbol:      "AAPL",
			Name:        "Apple Inc.",
			Price:       190.0,
			ChangePct:   0.8,
			Expirations: []string{"2026-09-04", "2026-09-11"},
		},
		chain: &models.OptionChain{
			Ticker:     "AAPL",
			Expiration: "2026-09-04",
			OptionType: "calls",
			Rows: []models.OptionContractRow{
				{Strike: 185, Volume: 500, OpenInterest: 200, ImpliedVolatility: 0.25},
				{Strike: 195, Volume: 20, OpenInterest: 300, ImpliedVolatility: 0.22},
			},
		},
	}

	w := postAnalyze(t, newTestHandler(data), `{"ticker":"aapl"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp models.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if resp.Expiration != "2026-09-04" {
		t.Errorf("default expiration = %q, want first of the list", resp.Expiration)
	}
	if len(resp.Chain) != 2 {
		t.Errorf("chain rows = %d, want 2", len(resp.Chain))
	}
	if len(resp.Unusual) != 1 || resp.Unusual[0].Strike != 185 {
		t.Errorf("unusual rows = %+v", resp.Unusual)
	}
	if resp.HasGreeks {
		t.Error("has_greeks must be false without a complete greek set")
	}
	// The same fake serves every expiration, so the cross report sees both
	if len(resp.CrossReport.ScannedExpiry) != 2 {
		t.Errorf("scanned expirations = %v", resp.CrossReport.ScannedExpiry)
	}
	if resp.DataDelay != "~15 min" {
		t.Errorf("data delay label = %q", resp.DataDelay)
	}
}

func TestAnalyzeTickerUnavailableIsBlocking(t *testing.T) {
	data := &fakeData{snapErr: fmt.Errorf("%w: NOPE", marketdata.ErrTickerUnavailable)}

	w := postAnalyze(t, newTestHandler(data), `{"ticker":"NOPE"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	var payload map[string]string
	json.Unmarshal(w.Body.Bytes(), &payload)
	if payload["error"] != "TICKER_UNAVAILABLE" {
		t.Errorf("error code = %q", payload["error"])
	}
	if !strings.Contains(payload["details"], "Wait 1-2 minutes") {
		t.Errorf("details should carry retry guidance, got %q", payload["details"])
	}
}

func TestAnalyzeEmptyExpirationsIsBlocking(t *testing.T) {
	// Provider succeeded but returned no expirations: hard failure, not a
	// silent continuation.
	data := &fakeData{snapshot: &models.TickerSnapshot{
		Symbol: "XYZ", Name: "XYZ", Price: 5, Expirations: []string{},
	}}

	w := postAnalyze(t, newTestHandler(data), `{"ticker":"XYZ"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestAnalyzeChainUnavailableIsRetryable(t *testing.T) {
	data := &fakeData{
		snapshot: &models.TickerSnapshot{
			Symbol: "AAPL", Name: "Apple Inc.", Price: 190,
			Expirations: []string{"2026-09-04"},
		},
		chainErr: fmt.Errorf("%w: AAPL 2026-09-04", marketdata.ErrChainUnavailable),
	}

	w := postAnalyze(t, newTestHandler(data), `{"ticker":"AAPL"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var payload map[string]string
	json.Unmarshal(w.Body.Bytes(), &payload)
	if payload["error"] != "CHAIN_UNAVAILABLE" {
		t.Errorf("error code = %q", payload["error"])
	}
}

func TestAnalyzeBadRequest(t *testing.T) {
	w := postAnalyze(t, newTestHandler(&fakeData{}), `{"min_volume":50}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing ticker", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	data := &fakeData{
		snapshot: &models.TickerSnapshot{
			Symbol: "AAPL", Name: "Apple Inc.", Price: 190,
			Expirations: []string{"2026-09-04"},
		},
		chain: &models.OptionChain{
			Ticker: "AAPL", Expiration: "2026-09-04", OptionType: "calls",
			Rows: []models.OptionContractRow{
				{Strike: 185, Volume: 500, OpenInterest: 200, ImpliedVolatility: 0.25},
			},
		},
	}

	r := httptest.NewRequest(http.MethodGet, "/api/export?ticker=AAPL&option_type=calls&min_volume=100", nil)
	w := httptest.NewRecorder()
	newTestHandler(data).ExportHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "AAPL_calls_unusual.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body := w.Body.String()
	if !strings.Contains(body, "expiration") {
		t.Errorf("CSV header missing: %q", body)
	}
	if !strings.Contains(body, "2026-09-04") || !strings.Contains(body, "500") {
		t.Errorf("CSV rows missing: %q", body)
	}
}

func TestHealthHandler(t *testing.T) {
	data := &fakeData{snapshot: &models.TickerSnapshot{
		Symbol: "AAPL", Name: "Apple Inc.", Price: 190,
		Expirations: []string{"2026-09-04"},
	}}

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	newTestHandler(data).HealthHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var payload map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &payload)
	if payload["status"] != "ok" {
		t.Errorf("payload = %v", payload)
	}
}
