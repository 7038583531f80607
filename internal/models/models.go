package models

// Status labels applied to a contract relative to the current underlying price.
const (
	StatusITM = "✅ ITM"
	StatusOTM = "⭕ OTM"
)

// RatioNew is the Vol/OI token for contracts with zero open interest.
const RatioNew = "NEW"

// TickerSnapshot holds ticker metadata for one user query
type TickerSnapshot struct {
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	ChangePct   float64  `json:"change_pct"`
	Expirations []string `json:"expirations"` // "2006-01-02", provider order (chronological)
}

// OptionContractRow is one raw chain row as returned by the provider.
// Greeks are nil when the provider does not supply them for this underlying.
type OptionContractRow struct {
	Strike            float64  `json:"strike"`
	Bid               float64  `json:"bid"`
	Ask               float64  `json:"ask"`
	Volume            int      `json:"volume"`
	OpenInterest      int      `json:"open_interest"`
	ImpliedVolatility float64  `json:"implied_volatility"` // fraction, not percent
	Delta             *float64 `json:"delta,omitempty"`
	Gamma             *float64 `json:"gamma,omitempty"`
	Theta             *float64 `json:"theta,omitempty"`
	Vega              *float64 `json:"vega,omitempty"`
}

// OptionChain is the calls or puts sub-table for one (ticker, expiration) pair
type OptionChain struct {
	Ticker     string              `json:"ticker"`
	Expiration string              `json:"expiration"`
	OptionType string              `json:"option_type"` // "calls" or "puts"
	Rows       []OptionContractRow `json:"rows"`
}

// AnnotatedContractRow is a chain row with derived display fields
type AnnotatedContractRow struct {
	Strike       float64  `json:"strike"`
	Status       string   `json:"status"` // StatusITM or StatusOTM
	Bid          float64  `json:"bid"`
	Ask          float64  `json:"ask"`
	Volume       int      `json:"volume"`
	OpenInterest int      `json:"open_interest"`
	IVPct        float64  `json:"iv_pct"` // ImpliedVolatility*100, 1 decimal
	VolOIRatio   string   `json:"vol_oi_ratio"`
	Unusual      bool     `json:"unusual"`
	Delta        *float64 `json:"delta,omitempty"`
	Gamma        *float64 `json:"gamma,omitempty"`
	Theta        *float64 `json:"theta,omitempty"`
	Vega         *float64 `json:"vega,omitempty"`
}

// UnusualRow is the reduced cross-expiration projection of an unusual contract.
// CSV tags drive the export endpoint.
type UnusualRow struct {
	Expiration   string  `json:"expiration" csv:"expiration"`
	Strike       float64 `json:"strike" csv:"strike"`
	Status       string  `json:"status" csv:"status"`
	IVPct        float64 `json:"iv_pct" csv:"iv_pct"`
	OpenInterest int     `json:"open_interest" csv:"open_interest"`
	Volume       int     `json:"volume" csv:"volume"`
	VolOIRatio   string  `json:"vol_oi_ratio" csv:"vol_oi_ratio"`
}

// UnusualActivityReport is the cross-expiration scan result, sorted by
// volume descending. Empty Rows is a valid outcome, not an error.
type UnusualActivityReport struct {
	Ticker        string       `json:"ticker"`
	OptionType    string       `json:"option_type"`
	MinVolume     int          `json:"min_volume"`
	ScannedExpiry []string     `json:"scanned_expirations"`
	Rows          []UnusualRow `json:"rows"`
}

// AnalyzeRequest is the display surface's analyze action
type AnalyzeRequest struct {
	Ticker     string `json:"ticker"`
	OptionType string `json:"option_type"` // "calls" or "puts"
	MinVolume  int    `json:"min_volume"`
	Expiration string `json:"expiration"` // optional; defaults to the nearest
}

// AnalyzeResponse is everything the page needs to render one analysis
type AnalyzeResponse struct {
	Snapshot    TickerSnapshot         `json:"snapshot"`
	OptionType  string                 `json:"option_type"`
	Expiration  string                 `json:"expiration"`
	DataDelay   string                 `json:"data_delay"`
	HasGreeks   bool                   `json:"has_greeks"`
	Chain       []AnnotatedContractRow `json:"chain"`
	Unusual     []AnnotatedContractRow `json:"unusual"`
	CrossReport UnusualActivityReport  `json:"cross_report"`
}
