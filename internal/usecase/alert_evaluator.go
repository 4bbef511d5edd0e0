package usecase

import "github.com/vitos/crypto_price_tracker/internal/domain"

// AlertEvaluator decides which alerts fire for a price. It keeps no state:
// an alert fires on every evaluation while its condition holds.
type AlertEvaluator struct{}

func NewAlertEvaluator() *AlertEvaluator {
	return &AlertEvaluator{}
}

// Fires reports whether the alert's inclusive threshold condition holds.
func (e *AlertEvaluator) Fires(alert domain.PriceAlert, price float64) bool {
	switch alert.Condition {
	case domain.ConditionAbove:
		return price >= alert.Price
	case domain.ConditionBelow:
		return price <= alert.Price
	}
	return false
}

// Evaluate returns the alerts for asset that fire at price, in input order.
func (e *AlertEvaluator) Evaluate(asset string, price float64, alerts []domain.PriceAlert) []domain.PriceAlert {
	var fired []domain.PriceAlert
	for _, a := range alerts {
		if a.Asset == asset && e.Fires(a, price) {
			fired = append(fired, a)
		}
	}
	return fired
}
