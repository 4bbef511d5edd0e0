package domain

import (
	"math"
	"time"
)

type SourceName string

const (
	SourceBinance   SourceName = "binance"
	SourceCoinGecko SourceName = "coingecko"
	SourceKraken    SourceName = "kraken"
)

// PriceRecord is the normalized, source-agnostic snapshot of one asset's price and market stats.
type PriceRecord struct {
	Asset                 string     `json:"asset"`
	Source                SourceName `json:"source"`
	Price                 float64    `json:"price"`
	ChangeAbsolute        float64    `json:"change_absolute"`
	ChangePercent         float64    `json:"change_percent"`
	High24h               float64    `json:"high_24h"`
	Low24h                float64    `json:"low_24h"`
	MarketCap             float64    `json:"market_cap"`
	MarketCapApproximated bool       `json:"market_cap_approximated"`
	HighLowSynthesized    bool       `json:"high_low_synthesized"`
	Volume24h             float64    `json:"volume_24h"` // USD
	FetchedAt             time.Time  `json:"fetched_at"`
}

// Finite reports whether every numeric field holds a finite value.
func (r *PriceRecord) Finite() bool {
	for _, v := range []float64{r.Price, r.ChangeAbsolute, r.ChangePercent, r.High24h, r.Low24h, r.MarketCap, r.Volume24h} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ApproximateMarketCap derives market cap from the hardcoded circulating supply.
func ApproximateMarketCap(price float64, asset Asset) float64 {
	return price * asset.CirculatingSupply
}

type StatusPhase string

const (
	StatusConnecting StatusPhase = "connecting"
	StatusConnected  StatusPhase = "connected"
	StatusError      StatusPhase = "error"
)

// StatusFunc observes resolution transitions. It is the only hook into the
// presentation layer while a resolution runs.
type StatusFunc func(phase StatusPhase, message string)

type Status struct {
	Phase   StatusPhase `json:"phase"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}
