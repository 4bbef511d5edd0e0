package domain

import (
	"math"
	"time"
)

type AlertCondition string

const (
	ConditionAbove AlertCondition = "above"
	ConditionBelow AlertCondition = "below"
)

func (c AlertCondition) Valid() bool {
	return c == ConditionAbove || c == ConditionBelow
}

// PriceAlert is a user-defined threshold rule. Alerts are never updated,
// only created and deleted.
type PriceAlert struct {
	ID        string         `json:"id"`
	Asset     string         `json:"asset"`
	Condition AlertCondition `json:"condition"`
	Price     float64        `json:"price"`
	CreatedAt time.Time      `json:"created_at"`
}

// Valid reports whether the alert could have been created through validation:
// an ID, a known asset, a known condition and a positive finite threshold.
func (a PriceAlert) Valid() bool {
	if a.ID == "" || !a.Condition.Valid() {
		return false
	}
	if math.IsNaN(a.Price) || math.IsInf(a.Price, 0) || a.Price <= 0 {
		return false
	}
	_, ok := LookupAsset(a.Asset)
	return ok
}

// FiredAlert is an alert whose condition held for a given price.
type FiredAlert struct {
	Alert        PriceAlert `json:"alert"`
	CurrentPrice float64    `json:"current_price"`
	Message      string     `json:"message"`
}
