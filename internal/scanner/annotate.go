package scanner

import (
	"fmt"
	"math"

	"github.com/tradebotai/options-scanner/internal/models"
)

// unusualOIMultiple is the Vol/OI multiple a contract must clear, on top of
// the user's minimum-volume threshold, to be flagged unusual.
const unusualOIMultiple = 1.5

// Annotate derives the display fields for every row of a chain. Pure and
// deterministic: same count and order as the input, no I/O. The threshold is
// accepted as any non-negative value; the >=10 floor belongs to the input
// surface, not here.
func Annotate(rows []models.OptionContractRow, currentPrice float64, minVolume int) []models.AnnotatedContractRow {
	hasGreeks := HasGreeks(rows)

	annotated := make([]models.AnnotatedContractRow, len(rows))
	for i, row := range rows {
		a := models.AnnotatedContractRow{
			Strike:       row.Strike,
			Status:       moneyness(row.Strike, currentPrice),
			Bid:          round(row.Bid, 2),
			Ask:          round(row.Ask, 2),
			Volume:       row.Volume,
			OpenInterest: row.OpenInterest,
			IVPct:        round(row.ImpliedVolatility*100, 1),
			VolOIRatio:   volOIRatio(row.Volume, row.OpenInterest),
			Unusual:      IsUnusual(row.Volume, row.OpenInterest, minVolume),
		}
		if hasGreeks {
			a.Delta = roundGreek(row.Delta)
			a.Gamma = roundGreek(row.Gamma)
			a.Theta = roundGreek(row.Theta)
			a.Vega = roundGreek(row.Vega)
		}
		annotated[i] = a
	}
	return annotated
}

// FilterUnusual returns only the rows flagged unusual, order preserved
func FilterUnusual(rows []models.AnnotatedContractRow) []models.AnnotatedContractRow {
	unusual := make([]models.AnnotatedContractRow, 0)
	for _, row := range rows {
		if row.Unusual {
			unusual = append(unusual, row)
		}
	}
	return unusual
}

// IsUnusual applies the activity rule: volume must exceed 1.5x open interest
// and the minimum-volume threshold. Both strict.
func IsUnusual(volume, openInterest, minVolume int) bool {
	return float64(volume) > float64(openInterest)*unusualOIMultiple && volume > minVolume
}

// HasGreeks reports whether the chain carries the full Greeks set. The set is
// all-or-nothing: a chain missing even one of delta/gamma/theta/vega on any
// row exposes none of the four.
func HasGreeks(rows []models.OptionContractRow) bool {
	if len(rows) == 0 {
		return false
	}
	for _, row := range rows {
		if row.Delta == nil || row.Gamma == nil || row.Theta == nil || row.Vega == nil {
			return false
		}
	}
	return true
}

// moneyness classifies strictly below the current price as ITM, everything
// else OTM. Applied to calls and puts alike: the put side is financially
// inverted, preserved on purpose as inherited behavior.
func moneyness(strike, currentPrice float64) string {
	if strike < currentPrice {
		return models.StatusITM
	}
	return models.StatusOTM
}

// volOIRatio formats volume/openInterest to one decimal with an "x" suffix,
// or "NEW" when open interest is zero.
func volOIRatio(volume, openInterest int) string {
	if openInterest == 0 {
		return models.RatioNew
	}
	return fmt.Sprintf("%.1fx", float64(volume)/float64(openInterest))
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

func roundGreek(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := round(*p, 4)
	return &v
}
