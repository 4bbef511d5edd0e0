package usecase

import (
	"context"
	"errors"

	"github.com/vitos/crypto_price_tracker/internal/domain"
	"github.com/vitos/crypto_price_tracker/internal/format"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ComparisonEntry is one asset's outcome in a comparison. Pending means a
// resolution for the asset was already running; its result arrives as an event.
type ComparisonEntry struct {
	Asset   domain.Asset        `json:"asset"`
	Record  *domain.PriceRecord `json:"record,omitempty"`
	View    *format.PriceView   `json:"view,omitempty"`
	Pending bool                `json:"pending,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// CompareService resolves several assets concurrently. Each asset keeps its
// own sequential fallback chain; one asset failing never affects the others.
type CompareService struct {
	resolver  *PriceResolver
	publisher domain.EventPublisher
	logger    *zap.Logger
}

func NewCompareService(resolver *PriceResolver, publisher domain.EventPublisher, logger *zap.Logger) *CompareService {
	return &CompareService{resolver: resolver, publisher: publisher, logger: logger}
}

// ParseComparison validates a comparison set: at least two distinct known assets.
func ParseComparison(ids []string) ([]domain.Asset, error) {
	seen := make(map[string]bool)
	var assets []domain.Asset
	for _, id := range ids {
		a, ok := domain.LookupAsset(id)
		if !ok {
			return nil, &domain.ValidationError{Message: domain.MsgUnknownAsset}
		}
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		assets = append(assets, a)
	}
	if len(assets) < 2 {
		return nil, &domain.ValidationError{Message: domain.MsgInvalidCompare}
	}
	return assets, nil
}

// Compare resolves every asset and waits for all of them to settle.
// Entries keep the order of ids.
func (c *CompareService) Compare(ctx context.Context, ids []string) ([]ComparisonEntry, error) {
	assets, err := ParseComparison(ids)
	if err != nil {
		return nil, err
	}

	entries := make([]ComparisonEntry, len(assets))
	var g errgroup.Group
	for i, asset := range assets {
		g.Go(func() error {
			entry := ComparisonEntry{Asset: asset}
			rec, err := c.resolver.Resolve(ctx, asset, nil)
			switch {
			case errors.Is(err, domain.ErrResolutionInFlight):
				c.logger.Debug("Comparison fetch already in flight", zap.String("asset", asset.ID))
				entry.Pending = true
			case err != nil:
				c.logger.Warn("Comparison fetch failed", zap.String("asset", asset.ID), zap.Error(err))
				entry.Error = err.Error()
			default:
				view := format.View(*rec)
				entry.Record = rec
				entry.View = &view
				if c.publisher != nil {
					c.publisher.Publish(domain.Event{Type: domain.EventPrice, Asset: asset.ID, Record: rec, View: view})
				}
			}
			entries[i] = entry
			return nil
		})
	}
	_ = g.Wait()

	return entries, nil
}
