package domain

import "strings"

// Asset is the static per-asset metadata shared by every price source.
type Asset struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Ticker            string  `json:"ticker"`
	Symbol            string  `json:"symbol"`
	Color             string  `json:"color"`
	BinanceSymbol     string  `json:"binance_symbol"`
	CoinGeckoID       string  `json:"coingecko_id"`
	KrakenPair        string  `json:"kraken_pair"`
	CirculatingSupply float64 `json:"circulating_supply"` // only used for approximated market cap
}

var (
	Bitcoin = Asset{
		ID:                "bitcoin",
		Name:              "Bitcoin",
		Ticker:            "BTC",
		Symbol:            "₿",
		Color:             "#f7931a",
		BinanceSymbol:     "BTCUSDT",
		CoinGeckoID:       "bitcoin",
		KrakenPair:        "XBTUSD",
		CirculatingSupply: 19_700_000,
	}
	Ethereum = Asset{
		ID:                "ethereum",
		Name:              "Ethereum",
		Ticker:            "ETH",
		Symbol:            "Ξ",
		Color:             "#627eea",
		BinanceSymbol:     "ETHUSDT",
		CoinGeckoID:       "ethereum",
		KrakenPair:        "ETHUSD",
		CirculatingSupply: 120_000_000,
	}
	Solana = Asset{
		ID:                "solana",
		Name:              "Solana",
		Ticker:            "SOL",
		Symbol:            "◎",
		Color:             "#9945ff",
		BinanceSymbol:     "SOLUSDT",
		CoinGeckoID:       "solana",
		KrakenPair:        "SOLUSD",
		CirculatingSupply: 470_000_000,
	}
)

// Assets returns the supported assets in display order.
func Assets() []Asset {
	return []Asset{Bitcoin, Ethereum, Solana}
}

// LookupAsset finds a supported asset by ID (case-insensitive).
func LookupAsset(id string) (Asset, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, a := range Assets() {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}
