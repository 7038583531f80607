package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tradebotai/options-scanner/internal/utils"
)

const (
	// Minimum spacing between requests; Yahoo throttles aggressively on
	// anonymous access.
	requestDelay = 250 * time.Millisecond

	// HTTP timeout
	defaultTimeout = 30 * time.Second

	optionsEndpoint = "/v7/finance/options/%s"
)

// Client fetches ticker metadata and option chains from Yahoo Finance.
// Pure transport: one request per call, no retries (the marketdata layer
// owns the retry policy).
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Rate limiting
	lastRequest time.Time
	rateMutex   sync.Mutex

	// Performance tracking
	totalRequests int64
	rateLimitHits int64
	statsMutex    sync.RWMutex
}

// NewClient creates a Yahoo Finance client against the given base URL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return "yahoo"
}

// Quote is the ticker metadata subset the scanner consumes
type Quote struct {
	Symbol          string
	ShortName       string
	CurrentPrice    float64
	RegularPrice    float64
	Ask             float64
	Bid             float64
	ChangePct       float64
	ExpirationDates []string // "2006-01-02", provider order
}

// ChainRow is one raw option contract row. Pointer fields distinguish
// absent values from zeroes.
type ChainRow struct {
	Strike            float64
	Bid               *float64
	Ask               *float64
	Volume            *int
	OpenInterest      *int
	ImpliedVolatility *float64
	Delta             *float64
	Gamma             *float64
	Theta             *float64
	Vega              *float64
}

// Chain holds both sub-tables of one expiration's chain response
type Chain struct {
	Calls []ChainRow
	Puts  []ChainRow
}

// Yahoo API response structures
type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string  `json:"underlyingSymbol"`
			ExpirationDates  []int64 `json:"expirationDates"`
			Quote            struct {
				ShortName              string   `json:"shortName"`
				CurrentPrice           *float64 `json:"currentPrice"`
				RegularMarketPrice     *float64 `json:"regularMarketPrice"`
				RegularMarketChangePct *float64 `json:"regularMarketChangePercent"`
				Ask                    *float64 `json:"ask"`
				Bid                    *float64 `json:"bid"`
			} `json:"quote"`
			Options []struct {
				ExpirationDate int64       `json:"expirationDate"`
				Calls          []chainItem `json:"calls"`
				Puts           []chainItem `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

type chainItem struct {
	Strike            float64  `json:"strike"`
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	Volume            *int     `json:"volume"`
	OpenInterest      *int     `json:"openInterest"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
	Delta             *float64 `json:"delta"`
	Gamma             *float64 `json:"gamma"`
	Theta             *float64 `json:"theta"`
	Vega              *float64 `json:"vega"`
}

// rateLimit enforces the minimum spacing between requests
func (c *Client) rateLimit() {
	c.rateMutex.Lock()
	defer c.rateMutex.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < requestDelay {
		time.Sleep(requestDelay - elapsed)
	}
	c.lastRequest = time.Now()
}

// makeRequest performs one GET against the options endpoint
func (c *Client) makeRequest(ctx context.Context, symbol string, query string) (*optionsResponse, error) {
	c.rateLimit()

	url := c.baseURL + fmt.Sprintf(optionsEndpoint, symbol) + query
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (options-scanner)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %v", err)
	}

	c.recordRequest(resp.StatusCode == http.StatusTooManyRequests)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited by provider")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider error: %d - %s", resp.StatusCode, string(body))
	}

	var parsed optionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing options response: %v", err)
	}
	if parsed.OptionChain.Error != nil {
		return nil, fmt.Errorf("provider error: %s - %s",
			parsed.OptionChain.Error.Code, parsed.OptionChain.Error.Description)
	}
	if len(parsed.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("empty result for %s", symbol)
	}

	return &parsed, nil
}

func (c *Client) recordRequest(rateLimited bool) {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()
	c.totalRequests++
	if rateLimited {
		c.rateLimitHits++
	}
}

// Stats returns cumulative request counters
func (c *Client) Stats() (requests, rateLimitHits int64) {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()
	return c.totalRequests, c.rateLimitHits
}

// FetchQuote fetches ticker metadata and the list of expiration dates
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*Quote, error) {
	parsed, err := c.makeRequest(ctx, ticker, "")
	if err != nil {
		return nil, fmt.Errorf("quote request for %s: %w", ticker, err)
	}

	result := parsed.OptionChain.Result[0]
	quote := &Quote{
		Symbol:    ticker,
		ShortName: result.Quote.ShortName,
	}
	if result.Quote.CurrentPrice != nil {
		quote.CurrentPrice = *result.Quote.CurrentPrice
	}
	if result.Quote.RegularMarketPrice != nil {
		quote.RegularPrice = *result.Quote.RegularMarketPrice
	}
	if result.Quote.Ask != nil {
		quote.Ask = *result.Quote.Ask
	}
	if result.Quote.Bid != nil {
		quote.Bid = *result.Quote.Bid
	}
	if result.Quote.RegularMarketChangePct != nil {
		quote.ChangePct = *result.Quote.RegularMarketChangePct
	}
	for _, unix := range result.ExpirationDates {
		quote.ExpirationDates = append(quote.ExpirationDates, utils.UnixToExpiration(unix))
	}

	return quote, nil
}

// FetchChain fetches the chain for one expiration; both sub-tables are
// returned, the caller selects calls or puts.
func (c *Client) FetchChain(ctx context.Context, ticker, expiration string) (*Chain, error) {
	unix, err := utils.ExpirationToUnix(expiration)
	if err != nil {
		return nil, fmt.Errorf("bad expiration %q: %w", expiration, err)
	}

	parsed, err := c.makeRequest(ctx, ticker, fmt.Sprintf("?date=%d", unix))
	if err != nil {
		return nil, fmt.Errorf("chain request for %s %s: %w", ticker, expiration, err)
	}

	result := parsed.OptionChain.Result[0]
	if len(result.Options) == 0 {
		return &Chain{}, nil
	}

	chain := &Chain{
		Calls: convertRows(result.Options[0].Calls),
		Puts:  convertRows(result.Options[0].Puts),
	}
	return chain, nil
}

func convertRows(items []chainItem) []ChainRow {
	rows := make([]ChainRow, len(items))
	for i, item := range items {
		rows[i] = ChainRow{
			Strike:            item.Strike,
			Bid:               item.Bid,
			Ask:               item.Ask,
			Volume:            item.Volume,
			OpenInterest:      item.OpenInterest,
			ImpliedVolatility: item.ImpliedVolatility,
			Delta:             item.Delta,
			Gamma:             item.Gamma,
			Theta:             item.Theta,
			Vega:              item.Vega,
		}
	}
	return rows
}
