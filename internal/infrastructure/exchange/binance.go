package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitos/crypto_price_tracker/internal/domain"
)

// BinanceAdapter is the primary source: the 24h ticker endpoint.
type BinanceAdapter struct {
	baseURL string
	client  *http.Client
	timeNow func() time.Time
}

func NewBinanceAdapter(baseURL string, client *http.Client) *BinanceAdapter {
	if baseURL == "" {
		baseURL = BinanceBaseURL
	}
	return &BinanceAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeNow: time.Now,
	}
}

func (b *BinanceAdapter) Name() domain.SourceName {
	return domain.SourceBinance
}

func (b *BinanceAdapter) Fetch(ctx context.Context, asset domain.Asset) (*domain.PriceRecord, error) {
	if asset.BinanceSymbol == "" {
		return nil, fmt.Errorf("asset %s has no binance symbol", asset.ID)
	}

	body, err := getJSON(ctx, b.client, b.baseURL+"/api/v3/ticker/24hr?symbol="+url.QueryEscape(asset.BinanceSymbol))
	if err != nil {
		return nil, fmt.Errorf("binance: %w", err)
	}

	rec, err := decodeBinanceTicker(body, asset)
	if err != nil {
		return nil, fmt.Errorf("binance: %w", err)
	}
	rec.FetchedAt = b.timeNow()
	return rec, nil
}

type binanceTicker struct {
	LastPrice          number `json:"lastPrice"`
	PriceChange        number `json:"priceChange"`
	PriceChangePercent number `json:"priceChangePercent"`
	HighPrice          number `json:"highPrice"`
	LowPrice           number `json:"lowPrice"`
	QuoteVolume        number `json:"quoteVolume"`
}

// decodeBinanceTicker maps a 24h ticker. The percent change is taken verbatim
// and market cap is derived from the asset's circulating supply.
func decodeBinanceTicker(body []byte, asset domain.Asset) (*domain.PriceRecord, error) {
	var t binanceTicker
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("decode ticker: %w", err)
	}

	var f fields
	rec := &domain.PriceRecord{
		Asset:                 asset.ID,
		Source:                domain.SourceBinance,
		Price:                 f.get("lastPrice", t.LastPrice),
		ChangeAbsolute:        f.get("priceChange", t.PriceChange),
		ChangePercent:         f.get("priceChangePercent", t.PriceChangePercent),
		High24h:               f.get("highPrice", t.HighPrice),
		Low24h:                f.get("lowPrice", t.LowPrice),
		Volume24h:             f.get("quoteVolume", t.QuoteVolume),
		MarketCapApproximated: true,
	}
	if f.err != nil {
		return nil, f.err
	}
	rec.MarketCap = domain.ApproximateMarketCap(rec.Price, asset)
	if !rec.Finite() {
		return nil, fmt.Errorf("non-finite derived field")
	}
	return rec, nil
}
