package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/vitos/crypto_price_tracker/internal/domain"
)

// KrakenAdapter is the last fallback. Its result is keyed by an exchange
// pair name (XXBTZUSD for XBTUSD) that is discovered from the response.
type KrakenAdapter struct {
	baseURL string
	client  *http.Client
	timeNow func() time.Time
}

func NewKrakenAdapter(baseURL string, client *http.Client) *KrakenAdapter {
	if baseURL == "" {
		baseURL = KrakenBaseURL
	}
	return &KrakenAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeNow: time.Now,
	}
}

func (k *KrakenAdapter) Name() domain.SourceName {
	return domain.SourceKraken
}

func (k *KrakenAdapter) Fetch(ctx context.Context, asset domain.Asset) (*domain.PriceRecord, error) {
	if asset.KrakenPair == "" {
		return nil, fmt.Errorf("asset %s has no kraken pair", asset.ID)
	}

	body, err := getJSON(ctx, k.client, k.baseURL+"/0/public/Ticker?pair="+url.QueryEscape(asset.KrakenPair))
	if err != nil {
		return nil, fmt.Errorf("kraken: %w", err)
	}

	rec, err := decodeKrakenTicker(body, asset)
	if err != nil {
		return nil, fmt.Errorf("kraken: %w", err)
	}
	rec.FetchedAt = k.timeNow()
	return rec, nil
}

type krakenResponse struct {
	Error  []string                `json:"error"`
	Result map[string]krakenTicker `json:"result"`
}

// Array fields hold [today, last 24 hours]; c is [price, lot volume].
type krakenTicker struct {
	C []number `json:"c"`
	H []number `json:"h"`
	L []number `json:"l"`
	V []number `json:"v"`
	O number   `json:"o"`
}

// decodeKrakenTicker maps a ticker response. Volume is reported in base units
// and converted to USD; change is derived from the opening price.
func decodeKrakenTicker(body []byte, asset domain.Asset) (*domain.PriceRecord, error) {
	var resp krakenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode ticker: %w", err)
	}
	if len(resp.Error) > 0 {
		return nil, fmt.Errorf("api error: %s", strings.Join(resp.Error, ", "))
	}

	key, ok := resultKey(resp.Result)
	if !ok {
		return nil, fmt.Errorf("no result for pair %q", asset.KrakenPair)
	}
	t := resp.Result[key]

	var f fields
	price := f.at("c", t.C, 0)
	high := f.at("h", t.H, 1)
	low := f.at("l", t.L, 1)
	baseVolume := f.at("v", t.V, 1)
	open := f.get("o", t.O)
	if f.err != nil {
		return nil, f.err
	}

	change := price - open
	pct := 0.0
	if open != 0 {
		pct = change / open * 100
	}

	rec := &domain.PriceRecord{
		Asset:                 asset.ID,
		Source:                domain.SourceKraken,
		Price:                 price,
		ChangeAbsolute:        change,
		ChangePercent:         pct,
		High24h:               high,
		Low24h:                low,
		Volume24h:             baseVolume * price,
		MarketCap:             domain.ApproximateMarketCap(price, asset),
		MarketCapApproximated: true,
	}
	if !rec.Finite() {
		return nil, fmt.Errorf("non-finite derived field")
	}
	return rec, nil
}

// resultKey picks the pair key; with several keys the first in sorted order wins.
func resultKey(result map[string]krakenTicker) (string, bool) {
	if len(result) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0], true
}
