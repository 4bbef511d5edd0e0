package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_price_tracker/internal/domain"
)

func envelope(t *testing.T, contents string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"contents": contents,
		"status":   map[string]any{"url": "https://api.coingecko.com", "http_code": 200},
	})
	require.NoError(t, err)
	return string(b)
}

const coinGeckoBitcoin = `{"bitcoin":{"usd":50000,"usd_market_cap":980000000000,"usd_24h_vol":25000000000,"usd_24h_change":2.5}}`

func TestCoinGeckoAdapter_Fetch(t *testing.T) {
	var upstream string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get", r.URL.Path)
		upstream = r.URL.Query().Get("url")
		_, _ = w.Write([]byte(envelope(t, coinGeckoBitcoin)))
	}))
	defer srv.Close()

	adapter := NewCoinGeckoAdapter(srv.URL, "https://api.coingecko.com", HighLowPreferUpstream, srv.Client())
	rec, err := adapter.Fetch(context.Background(), domain.Bitcoin)
	require.NoError(t, err)

	u, err := url.Parse(upstream)
	require.NoError(t, err)
	assert.Equal(t, "/api/v3/simple/price", u.Path)
	assert.Equal(t, "bitcoin", u.Query().Get("ids"))
	assert.Equal(t, "true", u.Query().Get("include_market_cap"))

	assert.Equal(t, domain.SourceCoinGecko, rec.Source)
	assert.Equal(t, 50000.0, rec.Price)
	assert.Equal(t, 2.5, rec.ChangePercent)
	assert.InDelta(t, 1250.0, rec.ChangeAbsolute, 1e-9)
	assert.Equal(t, 980_000_000_000.0, rec.MarketCap)
	assert.Equal(t, 25_000_000_000.0, rec.Volume24h)
	assert.False(t, rec.MarketCapApproximated)

	// upstream lacks high/low, so they are synthesized
	assert.True(t, rec.HighLowSynthesized)
	assert.InDelta(t, 51000.0, rec.High24h, 1e-9)
	assert.InDelta(t, 49000.0, rec.Low24h, 1e-9)
}

func TestDecodeCoinGeckoPrice_HighLowPolicy(t *testing.T) {
	body := []byte(`{"bitcoin":{"usd":50000,"usd_market_cap":1,"usd_24h_vol":1,"usd_24h_change":-1,"high_24h":51500,"low_24h":48800}}`)

	rec, err := decodeCoinGeckoPrice(body, domain.Bitcoin, HighLowPreferUpstream)
	require.NoError(t, err)
	assert.False(t, rec.HighLowSynthesized)
	assert.Equal(t, 51500.0, rec.High24h)
	assert.Equal(t, 48800.0, rec.Low24h)
	assert.InDelta(t, -500.0, rec.ChangeAbsolute, 1e-9)

	rec, err = decodeCoinGeckoPrice(body, domain.Bitcoin, HighLowSynthesize)
	require.NoError(t, err)
	assert.True(t, rec.HighLowSynthesized)
	assert.InDelta(t, 51000.0, rec.High24h, 1e-9)
	assert.InDelta(t, 49000.0, rec.Low24h, 1e-9)
}

func TestDecodeCoinGeckoPrice_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Missing Market Cap", `{"bitcoin":{"usd":1,"usd_24h_vol":1,"usd_24h_change":1}}`},
		{"Missing Change", `{"bitcoin":{"usd":1,"usd_market_cap":1,"usd_24h_vol":1}}`},
		{"Wrong Coin", `{"ethereum":{"usd":1,"usd_market_cap":1,"usd_24h_vol":1,"usd_24h_change":1}}`},
		{"Empty Object", `{}`},
		{"Not JSON", `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := decodeCoinGeckoPrice([]byte(tt.body), domain.Bitcoin, HighLowPreferUpstream)
			assert.Error(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestUnwrapProxyEnvelope(t *testing.T) {
	_, err := unwrapProxyEnvelope([]byte(`{"status":{"http_code":200}}`))
	assert.Error(t, err, "missing contents")

	_, err = unwrapProxyEnvelope([]byte(`{"contents":"{}","status":{"http_code":429}}`))
	assert.Error(t, err, "upstream status")

	inner, err := unwrapProxyEnvelope([]byte(`{"contents":"{\"a\":1}"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(inner))
}

func TestCoinGeckoAdapter_ProxyFailure(t *testing.T) {
	srv := serve(t, http.StatusBadGateway, "bad gateway", nil)

	rec, err := NewCoinGeckoAdapter(srv.URL, "", HighLowPreferUpstream, srv.Client()).Fetch(context.Background(), domain.Bitcoin)
	assert.Error(t, err)
	assert.Nil(t, rec)
}
