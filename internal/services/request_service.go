package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tradebotai/options-scanner/internal/config"
	"github.com/tradebotai/options-scanner/internal/marketdata"
	"github.com/tradebotai/options-scanner/internal/models"
	"github.com/tradebotai/options-scanner/internal/utils"
)

// RequestService normalizes display-surface input into analyze requests
type RequestService struct {
	config *config.Config
}

// NewRequestService creates a new request service
func NewRequestService(cfg *config.Config) *RequestService {
	return &RequestService{config: cfg}
}

// ParseAnalyzeRequest parses and normalizes a JSON analyze request
func (s *RequestService) ParseAnalyzeRequest(r *http.Request) (*models.AnalyzeRequest, error) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return s.normalize(&req)
}

// ParseQueryRequest builds an analyze request from URL query parameters,
// used by the CSV export endpoint.
func (s *RequestService) ParseQueryRequest(values url.Values) (*models.AnalyzeRequest, error) {
	req := models.AnalyzeRequest{
		Ticker:     values.Get("ticker"),
		OptionType: values.Get("option_type"),
		Expiration: values.Get("expiration"),
	}
	if raw := values.Get("min_volume"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid min_volume %q", raw)
		}
		req.MinVolume = parsed
	}
	return s.normalize(&req)
}

// normalize applies ticker casing, defaults and the threshold floor
func (s *RequestService) normalize(req *models.AnalyzeRequest) (*models.AnalyzeRequest, error) {
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	if req.Ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	if req.OptionType == "" {
		req.OptionType = s.config.DefaultOptionType
	}
	if req.OptionType != marketdata.TypeCalls && req.OptionType != marketdata.TypePuts {
		return nil, fmt.Errorf("option_type must be %q or %q", marketdata.TypeCalls, marketdata.TypePuts)
	}

	if req.MinVolume == 0 {
		req.MinVolume = s.config.DefaultMinVolume
	}
	if req.MinVolume < s.config.MinVolumeFloor {
		return nil, fmt.Errorf("min_volume must be at least %d", s.config.MinVolumeFloor)
	}

	if req.Expiration != "" && !utils.ValidExpiration(req.Expiration) {
		return nil, fmt.Errorf("invalid expiration %q, want YYYY-MM-DD", req.Expiration)
	}

	return req, nil
}
