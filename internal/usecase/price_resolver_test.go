package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_price_tracker/internal/domain"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

type statusCall struct {
	phase   domain.StatusPhase
	message string
}

func recordStatus() (domain.StatusFunc, func() []statusCall) {
	var mu sync.Mutex
	var calls []statusCall
	return func(phase domain.StatusPhase, message string) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, statusCall{phase, message})
		}, func() []statusCall {
			mu.Lock()
			defer mu.Unlock()
			return append([]statusCall(nil), calls...)
		}
}

func TestPriceResolver_StopsAtFirstSuccess(t *testing.T) {
	a := failing(domain.SourceBinance)
	b := succeeding(domain.SourceCoinGecko, 50000)
	c := succeeding(domain.SourceKraken, 1)
	resolver := NewPriceResolver([]domain.PriceSource{a, b, c}, nil, zap.NewNop())

	status, calls := recordStatus()
	rec, err := resolver.Resolve(context.Background(), domain.Bitcoin, status)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceCoinGecko, rec.Source)
	assert.Equal(t, 50000.0, rec.Price)
	assert.Equal(t, 1, a.Calls())
	assert.Equal(t, 1, b.Calls())
	assert.Equal(t, 0, c.Calls(), "later sources must not be called")

	assert.Equal(t, []statusCall{
		{domain.StatusConnecting, "Fetching data..."},
		{domain.StatusConnected, "Data updated"},
	}, calls())
}

func TestPriceResolver_NilRecordIsFailure(t *testing.T) {
	a := &fakeSource{name: domain.SourceBinance} // nil record, nil error
	b := succeeding(domain.SourceCoinGecko, 10)
	resolver := NewPriceResolver([]domain.PriceSource{a, b}, nil, zap.NewNop())

	rec, err := resolver.Resolve(context.Background(), domain.Ethereum, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCoinGecko, rec.Source)
}

func TestPriceResolver_AllSourcesFailed(t *testing.T) {
	a, b, c := failing(domain.SourceBinance), failing(domain.SourceCoinGecko), failing(domain.SourceKraken)
	m := metrics.NewMetrics("test")
	resolver := NewPriceResolver([]domain.PriceSource{a, b, c}, m, zap.NewNop())

	status, calls := recordStatus()
	rec, err := resolver.Resolve(context.Background(), domain.Bitcoin, status)
	assert.Nil(t, rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAllSourcesFailed))

	var failed *domain.AllSourcesFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "bitcoin", failed.Asset)
	require.Len(t, failed.Failures, 3)
	assert.Equal(t, domain.SourceBinance, failed.Failures[0].Source)
	assert.Equal(t, domain.SourceCoinGecko, failed.Failures[1].Source)
	assert.Equal(t, domain.SourceKraken, failed.Failures[2].Source)

	got := calls()
	require.Len(t, got, 2)
	assert.Equal(t, domain.StatusError, got[1].phase)
	assert.Equal(t, "Update failed - check connection", got[1].message)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFetches.WithLabelValues("kraken", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("bitcoin", "failed")))
}

func TestPriceResolver_ErrorOnlyWhenAllFail(t *testing.T) {
	for mask := 0; mask < 8; mask++ {
		sources := make([]domain.PriceSource, 3)
		names := []domain.SourceName{domain.SourceBinance, domain.SourceCoinGecko, domain.SourceKraken}
		for i := range sources {
			if mask&(1<<i) != 0 {
				sources[i] = succeeding(names[i], float64(i+1))
			} else {
				sources[i] = failing(names[i])
			}
		}
		rec, err := NewPriceResolver(sources, nil, zap.NewNop()).Resolve(context.Background(), domain.Solana, nil)
		if mask == 0 {
			assert.ErrorIs(t, err, domain.ErrAllSourcesFailed)
			continue
		}
		require.NoError(t, err)
		// lowest set bit is the first successful source
		first := 0
		for mask&(1<<first) == 0 {
			first++
		}
		assert.Equal(t, names[first], rec.Source)
	}
}

func TestPriceResolver_ReentrantCallIsNoop(t *testing.T) {
	a := succeeding(domain.SourceBinance, 100)
	a.release = make(chan struct{})
	a.started = make(chan struct{}, 1)
	m := metrics.NewMetrics("test")
	resolver := NewPriceResolver([]domain.PriceSource{a}, m, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := resolver.Resolve(context.Background(), domain.Bitcoin, nil)
		done <- err
	}()
	<-a.started
	assert.True(t, resolver.InFlight("bitcoin"))

	status, calls := recordStatus()
	rec, err := resolver.Resolve(context.Background(), domain.Bitcoin, status)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, domain.ErrResolutionInFlight)
	assert.Empty(t, calls(), "no status transitions for a no-op")

	close(a.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, a.Calls(), "second call must not reach the network")
	assert.False(t, resolver.InFlight("bitcoin"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFetches.WithLabelValues("binance", "success")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.LastPrice.WithLabelValues("bitcoin")))
}

func TestPriceResolver_DistinctAssetsResolveConcurrently(t *testing.T) {
	a := succeeding(domain.SourceBinance, 100)
	a.release = make(chan struct{})
	a.started = make(chan struct{}, 2)
	resolver := NewPriceResolver([]domain.PriceSource{a}, nil, zap.NewNop())

	var wg sync.WaitGroup
	for _, asset := range []domain.Asset{domain.Bitcoin, domain.Ethereum} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := resolver.Resolve(context.Background(), asset, nil)
			assert.NoError(t, err)
		}()
	}
	<-a.started
	<-a.started
	close(a.release)
	wg.Wait()
	assert.Equal(t, 2, a.Calls())
}
