package scanner

import (
	"context"
	"sort"
	"time"

	"github.com/tradebotai/options-scanner/internal/logger"
	"github.com/tradebotai/options-scanner/internal/models"
)

// ChainFetcher is the slice of the Data Access Layer the scan needs
type ChainFetcher interface {
	GetOptionChain(ctx context.Context, ticker, expiration, optionType string) (*models.OptionChain, error)
}

// Scanner runs the cross-expiration unusual-activity pass
type Scanner struct {
	fetcher ChainFetcher
	pacing  time.Duration
	sleep   func(time.Duration)
}

// NewScanner builds a scanner with the given inter-fetch pacing delay, a
// courtesy toward the rate-limited upstream rather than a correctness need.
func NewScanner(fetcher ChainFetcher, pacing time.Duration) *Scanner {
	return &Scanner{fetcher: fetcher, pacing: pacing, sleep: time.Sleep}
}

// SetSleep overrides the pacing sleep, for tests
func (s *Scanner) SetSleep(sleep func(time.Duration)) {
	s.sleep = sleep
}

// ScanAll fetches the first limit expirations (all of them when limit <= 0),
// keeps only unusual rows in reduced form, and unions them sorted by volume
// descending. A failed or empty expiration contributes zero rows; the scan
// itself never fails, and an empty report is a valid outcome.
func (s *Scanner) ScanAll(ctx context.Context, ticker string, expirations []string, optionType string, currentPrice float64, minVolume, limit int) models.UnusualActivityReport {
	scanned := expirations
	if limit > 0 && len(scanned) > limit {
		scanned = scanned[:limit]
	}

	report := models.UnusualActivityReport{
		Ticker:        ticker,
		OptionType:    optionType,
		MinVolume:     minVolume,
		ScannedExpiry: append([]string(nil), scanned...),
		Rows:          []models.UnusualRow{},
	}

	for i, expiration := range scanned {
		if i > 0 && s.pacing > 0 {
			s.sleep(s.pacing)
		}

		chain, err := s.fetcher.GetOptionChain(ctx, ticker, expiration, optionType)
		if err != nil {
			logger.Debug.Printf("🔎 scan: skipping %s %s: %v", ticker, expiration, err)
			continue
		}

		for _, row := range Annotate(chain.Rows, currentPrice, minVolume) {
			if !row.Unusual {
				continue
			}
			report.Rows = append(report.Rows, models.UnusualRow{
				Expiration:   expiration,
				Strike:       row.Strike,
				Status:       row.Status,
				IVPct:        row.IVPct,
				OpenInterest: row.OpenInterest,
				Volume:       row.Volume,
				VolOIRatio:   row.VolOIRatio,
			})
		}
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		return report.Rows[i].Volume > report.Rows[j].Volume
	})

	return report
}
