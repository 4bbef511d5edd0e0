package domain

import "context"

// PriceSource fetches and normalizes a snapshot from one upstream API.
// Any failure yields a nil record and a non-nil error; partial records are never returned.
type PriceSource interface {
	Name() SourceName
	Fetch(ctx context.Context, asset Asset) (*PriceRecord, error)
}

// AlertRepository persists the alert list.
type AlertRepository interface {
	// LoadAlerts never fails on corrupt data; it degrades to an empty list.
	LoadAlerts(ctx context.Context) ([]PriceAlert, error)
	SaveAlert(ctx context.Context, alert PriceAlert) error
	DeleteAlert(ctx context.Context, id string) error
}

// EventPublisher pushes tracker events to the presentation layer.
type EventPublisher interface {
	Publish(event Event)
}

type EventType string

const (
	EventStatus EventType = "status"
	EventPrice  EventType = "price"
	EventAlert  EventType = "alert"
)

type Event struct {
	Type   EventType    `json:"type"`
	Asset  string       `json:"asset,omitempty"`
	Status *Status      `json:"status,omitempty"`
	Record *PriceRecord `json:"record,omitempty"`
	View   any          `json:"view,omitempty"`
	Alert  *FiredAlert  `json:"alert,omitempty"`
}
