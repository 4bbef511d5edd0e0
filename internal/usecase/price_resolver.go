package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/vitos/crypto_price_tracker/internal/domain"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

const (
	msgFetching = "Fetching data..."
	msgUpdated  = "Data updated"
	msgFailed   = "Update failed - check connection"
)

// PriceResolver walks the sources in fixed priority order and accepts the
// first complete record. Records are never merged across sources.
type PriceResolver struct {
	sources []domain.PriceSource
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool // asset ID -> resolving
	timeNow  func() time.Time
}

func NewPriceResolver(sources []domain.PriceSource, m *metrics.Metrics, logger *zap.Logger) *PriceResolver {
	return &PriceResolver{
		sources:  sources,
		metrics:  m,
		logger:   logger,
		inFlight: make(map[string]bool),
		timeNow:  time.Now,
	}
}

// InFlight reports whether a resolution for the asset is running.
func (r *PriceResolver) InFlight(assetID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight[assetID]
}

func (r *PriceResolver) acquire(assetID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[assetID] {
		return false
	}
	r.inFlight[assetID] = true
	return true
}

func (r *PriceResolver) release(assetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, assetID)
}

// Resolve returns the first record produced by the source chain.
// A call made while the same asset is resolving returns ErrResolutionInFlight
// without touching the network or the status callback.
func (r *PriceResolver) Resolve(ctx context.Context, asset domain.Asset, status domain.StatusFunc) (*domain.PriceRecord, error) {
	if !r.acquire(asset.ID) {
		r.logger.Debug("Resolution already in flight", zap.String("asset", asset.ID))
		return nil, domain.ErrResolutionInFlight
	}
	defer r.release(asset.ID)

	notify(status, domain.StatusConnecting, msgFetching)
	start := r.timeNow()

	var failures []domain.SourceError
	for _, src := range r.sources {
		rec, err := r.try(ctx, src, asset)
		if err != nil {
			r.logger.Warn("Price source failed",
				zap.String("source", string(src.Name())),
				zap.String("asset", asset.ID),
				zap.Error(err))
			failures = append(failures, domain.SourceError{Source: src.Name(), Err: err})
			continue
		}

		if r.metrics != nil {
			r.metrics.Resolutions.WithLabelValues(asset.ID, string(src.Name())).Inc()
			r.metrics.ResolutionDuration.Observe(r.timeNow().Sub(start).Seconds())
			r.metrics.LastPrice.WithLabelValues(asset.ID).Set(rec.Price)
		}
		r.logger.Debug("Price resolved",
			zap.String("asset", asset.ID),
			zap.String("source", string(src.Name())),
			zap.Float64("price", rec.Price))
		notify(status, domain.StatusConnected, msgUpdated)
		return rec, nil
	}

	if r.metrics != nil {
		r.metrics.Resolutions.WithLabelValues(asset.ID, "failed").Inc()
		r.metrics.ResolutionDuration.Observe(r.timeNow().Sub(start).Seconds())
	}
	err := &domain.AllSourcesFailedError{Asset: asset.ID, Failures: failures}
	r.logger.Error("Error fetching price", zap.String("asset", asset.ID), zap.Error(err))
	notify(status, domain.StatusError, msgFailed)
	return nil, err
}

func (r *PriceResolver) try(ctx context.Context, src domain.PriceSource, asset domain.Asset) (*domain.PriceRecord, error) {
	start := r.timeNow()
	rec, err := src.Fetch(ctx, asset)
	if err == nil && rec == nil {
		err = errEmptyRecord
	}

	if r.metrics != nil {
		result := "success"
		if err != nil {
			result = "failure"
		}
		r.metrics.SourceFetches.WithLabelValues(string(src.Name()), result).Inc()
		r.metrics.SourceFetchDuration.WithLabelValues(string(src.Name())).Observe(r.timeNow().Sub(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func notify(status domain.StatusFunc, phase domain.StatusPhase, message string) {
	if status != nil {
		status(phase, message)
	}
}
