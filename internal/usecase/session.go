package usecase

import (
	"sync"
	"time"

	"github.com/vitos/crypto_price_tracker/internal/domain"
)

type Direction string

const (
	DirectionUp        Direction = "up"
	DirectionDown      Direction = "down"
	DirectionUnchanged Direction = "unchanged"
)

// TrackerSession is the transient view state of one tracker. It is reset on
// asset switch and never persisted.
type TrackerSession struct {
	mu         sync.RWMutex
	selected   domain.Asset
	hasLast    bool
	lastPrice  float64
	direction  Direction
	inFlight   bool
	status     domain.Status
	lastRecord *domain.PriceRecord
	compare    []string
	timeNow    func() time.Time
}

// SessionSnapshot is a read-only copy of the session.
type SessionSnapshot struct {
	Asset      domain.Asset        `json:"asset"`
	LastPrice  *float64            `json:"last_price,omitempty"`
	Direction  Direction           `json:"direction"`
	InFlight   bool                `json:"in_flight"`
	Status     domain.Status       `json:"status"`
	LastRecord *domain.PriceRecord `json:"last_record,omitempty"`
	Compare    []string            `json:"compare,omitempty"`
}

func NewTrackerSession(asset domain.Asset) *TrackerSession {
	return &TrackerSession{
		selected:  asset,
		direction: DirectionUnchanged,
		timeNow:   time.Now,
	}
}

func (s *TrackerSession) Selected() domain.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select switches the tracked asset and clears all per-asset state.
func (s *TrackerSession) Select(asset domain.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = asset
	s.hasLast = false
	s.lastPrice = 0
	s.direction = DirectionUnchanged
	s.inFlight = false
	s.status = domain.Status{}
	s.lastRecord = nil
}

// ObserveRecord stores a record for the selected asset and returns the price
// direction relative to the previous one. Records for other assets are ignored.
func (s *TrackerSession) ObserveRecord(rec *domain.PriceRecord) (Direction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec == nil || rec.Asset != s.selected.ID {
		return DirectionUnchanged, false
	}

	dir := DirectionUnchanged
	if s.hasLast {
		switch {
		case rec.Price > s.lastPrice:
			dir = DirectionUp
		case rec.Price < s.lastPrice:
			dir = DirectionDown
		}
	}
	s.hasLast = true
	s.lastPrice = rec.Price
	s.direction = dir
	copied := *rec
	s.lastRecord = &copied
	return dir, true
}

func (s *TrackerSession) SetInFlight(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = v
}

func (s *TrackerSession) SetStatus(phase domain.StatusPhase, message string) domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = domain.Status{Phase: phase, Message: message, At: s.timeNow()}
	return s.status
}

// SetCompare sets the comparison set; nil disables comparison mode.
func (s *TrackerSession) SetCompare(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compare = append([]string(nil), ids...)
}

func (s *TrackerSession) Compare() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.compare...)
}

func (s *TrackerSession) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := SessionSnapshot{
		Asset:     s.selected,
		Direction: s.direction,
		InFlight:  s.inFlight,
		Status:    s.status,
		Compare:   append([]string(nil), s.compare...),
	}
	if s.hasLast {
		p := s.lastPrice
		snap.LastPrice = &p
	}
	if s.lastRecord != nil {
		r := *s.lastRecord
		snap.LastRecord = &r
	}
	return snap
}
