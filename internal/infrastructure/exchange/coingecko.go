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

// HighLowPolicy decides how the CoinGecko source fills the 24h high/low.
type HighLowPolicy string

const (
	// HighLowPreferUpstream uses upstream high/low when both are present and
	// synthesizes them otherwise.
	HighLowPreferUpstream HighLowPolicy = "prefer_upstream"
	// HighLowSynthesize always uses price ±2%.
	HighLowSynthesize HighLowPolicy = "synthesize"
)

func (p HighLowPolicy) Valid() bool {
	return p == HighLowPreferUpstream || p == HighLowSynthesize
}

const (
	synthHighFactor = 1.02
	synthLowFactor  = 0.98
)

// CoinGeckoAdapter queries the simple price endpoint through a CORS relay
// that wraps the upstream body in a "contents" string.
type CoinGeckoAdapter struct {
	proxyURL string
	apiURL   string
	policy   HighLowPolicy
	client   *http.Client
	timeNow  func() time.Time
}

func NewCoinGeckoAdapter(proxyURL, apiURL string, policy HighLowPolicy, client *http.Client) *CoinGeckoAdapter {
	if proxyURL == "" {
		proxyURL = AllOriginsURL
	}
	if apiURL == "" {
		apiURL = CoinGeckoBaseURL
	}
	if !policy.Valid() {
		policy = HighLowPreferUpstream
	}
	return &CoinGeckoAdapter{
		proxyURL: strings.TrimRight(proxyURL, "/"),
		apiURL:   strings.TrimRight(apiURL, "/"),
		policy:   policy,
		client:   client,
		timeNow:  time.Now,
	}
}

func (c *CoinGeckoAdapter) Name() domain.SourceName {
	return domain.SourceCoinGecko
}

func (c *CoinGeckoAdapter) requestURL(asset domain.Asset) string {
	upstream := c.apiURL + "/api/v3/simple/price?ids=" + url.QueryEscape(asset.CoinGeckoID) +
		"&vs_currencies=usd&include_24hr_change=true&include_24hr_vol=true&include_market_cap=true"
	return c.proxyURL + "/get?url=" + url.QueryEscape(upstream)
}

func (c *CoinGeckoAdapter) Fetch(ctx context.Context, asset domain.Asset) (*domain.PriceRecord, error) {
	if asset.CoinGeckoID == "" {
		return nil, fmt.Errorf("asset %s has no coingecko id", asset.ID)
	}

	body, err := getJSON(ctx, c.client, c.requestURL(asset))
	if err != nil {
		return nil, fmt.Errorf("coingecko proxy: %w", err)
	}

	inner, err := unwrapProxyEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("coingecko proxy: %w", err)
	}

	rec, err := decodeCoinGeckoPrice(inner, asset, c.policy)
	if err != nil {
		return nil, fmt.Errorf("coingecko: %w", err)
	}
	rec.FetchedAt = c.timeNow()
	return rec, nil
}

type proxyEnvelope struct {
	Contents *string `json:"contents"`
	Status   struct {
		HTTPCode int `json:"http_code"`
	} `json:"status"`
}

// unwrapProxyEnvelope returns the relayed upstream body.
func unwrapProxyEnvelope(body []byte) ([]byte, error) {
	var env proxyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Status.HTTPCode != 0 && (env.Status.HTTPCode < 200 || env.Status.HTTPCode > 299) {
		return nil, fmt.Errorf("upstream status: %d", env.Status.HTTPCode)
	}
	if env.Contents == nil || strings.TrimSpace(*env.Contents) == "" {
		return nil, fmt.Errorf("empty envelope contents")
	}
	return []byte(*env.Contents), nil
}

type coinGeckoQuote struct {
	USD          number `json:"usd"`
	USD24hChange number `json:"usd_24h_change"`
	USDMarketCap number `json:"usd_market_cap"`
	USD24hVol    number `json:"usd_24h_vol"`
	High24h      number `json:"high_24h"`
	Low24h       number `json:"low_24h"`
}

// decodeCoinGeckoPrice maps a simple price body. Market cap and volume are
// sourced directly; the absolute change is derived from the percent change.
func decodeCoinGeckoPrice(body []byte, asset domain.Asset, policy HighLowPolicy) (*domain.PriceRecord, error) {
	var quotes map[string]coinGeckoQuote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("decode price: %w", err)
	}
	q, ok := quotes[asset.CoinGeckoID]
	if !ok {
		return nil, fmt.Errorf("no quote for %q", asset.CoinGeckoID)
	}

	var f fields
	price := f.get("usd", q.USD)
	pct := f.get("usd_24h_change", q.USD24hChange)
	rec := &domain.PriceRecord{
		Asset:          asset.ID,
		Source:         domain.SourceCoinGecko,
		Price:          price,
		ChangeAbsolute: price * pct / 100,
		ChangePercent:  pct,
		MarketCap:      f.get("usd_market_cap", q.USDMarketCap),
		Volume24h:      f.get("usd_24h_vol", q.USD24hVol),
	}
	if f.err != nil {
		return nil, f.err
	}

	if policy == HighLowPreferUpstream && q.High24h.set && q.Low24h.set {
		rec.High24h = f.get("high_24h", q.High24h)
		rec.Low24h = f.get("low_24h", q.Low24h)
		if f.err != nil {
			return nil, f.err
		}
	} else {
		rec.High24h = price * synthHighFactor
		rec.Low24h = price * synthLowFactor
		rec.HighLowSynthesized = true
	}

	if !rec.Finite() {
		return nil, fmt.Errorf("non-finite derived field")
	}
	return rec, nil
}
