package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tradebotai/options-scanner/internal/logger"
	"github.com/tradebotai/options-scanner/internal/models"
	"github.com/tradebotai/options-scanner/internal/yahoo"
)

// Sentinel errors returned once the retry budget is exhausted. No raw
// provider error crosses this boundary.
var (
	ErrTickerUnavailable = errors.New("ticker data unavailable")
	ErrChainUnavailable  = errors.New("option chain unavailable")
)

// Option types accepted by GetOptionChain
const (
	TypeCalls = "calls"
	TypePuts  = "puts"
)

// Provider is the upstream market-data dependency
type Provider interface {
	FetchQuote(ctx context.Context, ticker string) (*yahoo.Quote, error)
	FetchChain(ctx context.Context, ticker, expiration string) (*yahoo.Chain, error)
}

// Service is the Data Access Layer: bounded retries around the provider and
// TTL memoization of the results.
type Service struct {
	provider    Provider
	maxAttempts int
	backoff     time.Duration
	sleep       SleepFunc

	quoteCache *TTLCache[*models.TickerSnapshot]
	chainCache *TTLCache[*models.OptionChain]
}

// NewService builds the Data Access Layer with the given retry policy and
// cache TTL.
func NewService(provider Provider, maxAttempts int, backoff, cacheTTL time.Duration) *Service {
	return &Service{
		provider:    provider,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		quoteCache:  NewTTLCache[*models.TickerSnapshot](cacheTTL, nil),
		chainCache:  NewTTLCache[*models.OptionChain](cacheTTL, nil),
	}
}

// SetSleep overrides the backoff sleep, for tests
func (s *Service) SetSleep(sleep SleepFunc) {
	s.sleep = sleep
}

// GetTickerInfo fetches ticker metadata with retries. On total failure the
// returned snapshot carries the ticker symbol, zero price and no expirations
// together with ErrTickerUnavailable; an empty expiration list on success
// must be treated by the caller as a hard failure as well.
func (s *Service) GetTickerInfo(ctx context.Context, ticker string) (*models.TickerSnapshot, error) {
	if cached, ok := s.quoteCache.Get(ticker); ok {
		logger.Debug.Printf("💾 cache hit: quote %s", ticker)
		return cached, nil
	}

	quote, err := Retry(ctx, s.maxAttempts, s.backoff, s.sleep, func(ctx context.Context) (*yahoo.Quote, error) {
		return s.provider.FetchQuote(ctx, ticker)
	})
	if err != nil {
		logger.Warn.Printf("⚠️ quote retries exhausted for %s: %v", ticker, err)
		return &models.TickerSnapshot{Symbol: ticker, Name: ticker, Expirations: []string{}},
			fmt.Errorf("%w: %s", ErrTickerUnavailable, ticker)
	}

	snapshot := &models.TickerSnapshot{
		Symbol:      ticker,
		Name:        quote.ShortName,
		Price:       pickPrice(quote),
		ChangePct:   quote.ChangePct,
		Expirations: quote.ExpirationDates,
	}
	if snapshot.Name == "" {
		snapshot.Name = ticker
	}
	if snapshot.Expirations == nil {
		snapshot.Expirations = []string{}
	}

	s.quoteCache.Put(ticker, snapshot)
	return snapshot, nil
}

// GetOptionChain fetches one expiration's calls or puts with retries. On
// total failure it returns ErrChainUnavailable, a retryable condition the
// caller should surface as "wait and try again".
func (s *Service) GetOptionChain(ctx context.Context, ticker, expiration, optionType string) (*models.OptionChain, error) {
	if optionType != TypeCalls && optionType != TypePuts {
		return nil, fmt.Errorf("unknown option type %q", optionType)
	}

	key := ticker + "|" + expiration + "|" + optionType
	if cached, ok := s.chainCache.Get(key); ok {
		logger.Debug.Printf("💾 cache hit: chain %s", key)
		return cached, nil
	}

	raw, err := Retry(ctx, s.maxAttempts, s.backoff, s.sleep, func(ctx context.Context) (*yahoo.Chain, error) {
		return s.provider.FetchChain(ctx, ticker, expiration)
	})
	if err != nil {
		logger.Warn.Printf("⚠️ chain retries exhausted for %s %s: %v", ticker, expiration, err)
		return nil, fmt.Errorf("%w: %s %s", ErrChainUnavailable, ticker, expiration)
	}

	side := raw.Calls
	if optionType == TypePuts {
		side = raw.Puts
	}

	chain := &models.OptionChain{
		Ticker:     ticker,
		Expiration: expiration,
		OptionType: optionType,
		Rows:       normalizeRows(side),
	}
	s.chainCache.Put(key, chain)
	return chain, nil
}

// pickPrice applies the price fallback precedence: current price, regular
// market price, ask, bid, zero.
func pickPrice(q *yahoo.Quote) float64 {
	for _, p := range []float64{q.CurrentPrice, q.RegularPrice, q.Ask, q.Bid} {
		if p != 0 {
			return p
		}
	}
	return 0
}

// normalizeRows converts raw provider rows into domain rows. Absent or NaN
// numerics become zero; volume and open interest are clamped non-negative.
// Greeks stay optional: nil means the provider sent nothing.
func normalizeRows(raw []yahoo.ChainRow) []models.OptionContractRow {
	rows := make([]models.OptionContractRow, len(raw))
	for i, r := range raw {
		rows[i] = models.OptionContractRow{
			Strike:            r.Strike,
			Bid:               floatOrZero(r.Bid),
			Ask:               floatOrZero(r.Ask),
			Volume:            intOrZero(r.Volume),
			OpenInterest:      intOrZero(r.OpenInterest),
			ImpliedVolatility: floatOrZero(r.ImpliedVolatility),
			Delta:             cleanGreek(r.Delta),
			Gamma:             cleanGreek(r.Gamma),
			Theta:             cleanGreek(r.Theta),
			Vega:              cleanGreek(r.Vega),
		}
	}
	return rows
}

func floatOrZero(p *float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0
	}
	return *p
}

func intOrZero(p *int) int {
	if p == nil || *p < 0 {
		return 0
	}
	return *p
}

func cleanGreek(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	v := *p
	return &v
}
