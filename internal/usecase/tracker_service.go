package usecase

import (
	"context"
	"fmt"

	"github.com/vitos/crypto_price_tracker/internal/domain"
	"github.com/vitos/crypto_price_tracker/internal/format"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

const (
	msgOffline    = "Offline"
	msgBackOnline = "Back online"
)

// TrackerService is the context object handed to the presentation layer:
// it owns the session and runs resolve, alert pass and event publishing.
type TrackerService struct {
	resolver  *PriceResolver
	alerts    *AlertService
	evaluator *AlertEvaluator
	session   *TrackerSession
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewTrackerService(
	resolver *PriceResolver,
	alerts *AlertService,
	session *TrackerSession,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *TrackerService {
	return &TrackerService{
		resolver:  resolver,
		alerts:    alerts,
		evaluator: NewAlertEvaluator(),
		session:   session,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

func (t *TrackerService) Session() *TrackerSession {
	return t.session
}

// SelectAsset switches the tracked asset, resetting the session.
func (t *TrackerService) SelectAsset(id string) (domain.Asset, error) {
	asset, ok := domain.LookupAsset(id)
	if !ok {
		return domain.Asset{}, fmt.Errorf("%w: %q", domain.ErrUnknownAsset, id)
	}
	t.session.Select(asset)
	t.logger.Info("Tracked asset changed", zap.String("asset", asset.ID))
	return asset, nil
}

// Refresh resolves the selected asset, updates the session and runs the alert pass.
func (t *TrackerService) Refresh(ctx context.Context) (*domain.PriceRecord, []domain.FiredAlert, error) {
	asset := t.session.Selected()

	// the session follows the resolver's phases; a re-entrant no-op never reaches it
	status := func(phase domain.StatusPhase, message string) {
		st := domain.Status{Phase: phase, Message: message}
		if t.session.Selected().ID == asset.ID {
			t.session.SetInFlight(phase == domain.StatusConnecting)
			st = t.session.SetStatus(phase, message)
		}
		t.publish(domain.Event{Type: domain.EventStatus, Asset: asset.ID, Status: &st})
	}

	rec, err := t.resolver.Resolve(ctx, asset, status)
	if err != nil {
		return nil, nil, err
	}

	t.session.ObserveRecord(rec)
	view := format.View(*rec)
	t.publish(domain.Event{Type: domain.EventPrice, Asset: asset.ID, Record: rec, View: view})

	fired := t.CheckAlerts(ctx, asset, rec.Price)
	return rec, fired, nil
}

// CheckAlerts evaluates stored alerts for asset at price and publishes each firing.
func (t *TrackerService) CheckAlerts(ctx context.Context, asset domain.Asset, price float64) []domain.FiredAlert {
	matched := t.evaluator.Evaluate(asset.ID, price, t.alerts.Active(ctx))
	if len(matched) == 0 {
		return nil
	}

	fired := make([]domain.FiredAlert, 0, len(matched))
	for _, a := range matched {
		f := domain.FiredAlert{
			Alert:        a,
			CurrentPrice: price,
			Message:      format.AlertFiredMessage(asset, a, price),
		}
		fired = append(fired, f)

		if t.metrics != nil {
			t.metrics.AlertsFired.WithLabelValues(asset.ID, string(a.Condition)).Inc()
		}
		t.logger.Info("Alert fired",
			zap.String("id", a.ID),
			zap.String("asset", asset.ID),
			zap.String("condition", string(a.Condition)),
			zap.Float64("threshold", a.Price),
			zap.Float64("price", price))
		t.publish(domain.Event{Type: domain.EventAlert, Asset: asset.ID, Alert: &f})
	}
	return fired
}

// SetOnline publishes the connectivity change as a status event.
func (t *TrackerService) SetOnline(online bool) {
	phase, msg := domain.StatusError, msgOffline
	if online {
		phase, msg = domain.StatusConnected, msgBackOnline
	}
	st := t.session.SetStatus(phase, msg)
	t.logger.Info("Connectivity changed", zap.Bool("online", online))
	t.publish(domain.Event{Type: domain.EventStatus, Asset: t.session.Selected().ID, Status: &st})
}

func (t *TrackerService) publish(e domain.Event) {
	if t.publisher != nil {
		t.publisher.Publish(e)
	}
}
