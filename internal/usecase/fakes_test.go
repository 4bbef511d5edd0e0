package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/vitos/crypto_price_tracker/internal/domain"
)

// fakeSource returns a fixed record or error and counts calls.
type fakeSource struct {
	name    domain.SourceName
	record  *domain.PriceRecord
	err     error
	release chan struct{} // when set, Fetch blocks until closed
	started chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) Name() domain.SourceName { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, asset domain.Asset) (*domain.PriceRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.record == nil {
		return nil, nil
	}
	rec := *f.record
	rec.Asset = asset.ID
	return &rec, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func failing(name domain.SourceName) *fakeSource {
	return &fakeSource{name: name, err: errors.New(string(name) + " down")}
}

func succeeding(name domain.SourceName, price float64) *fakeSource {
	return &fakeSource{name: name, record: &domain.PriceRecord{Source: name, Price: price}}
}

// memoryAlertRepo is an in-memory AlertRepository.
type memoryAlertRepo struct {
	mu      sync.Mutex
	alerts  []domain.PriceAlert
	loadErr error
	saves   int
}

func (m *memoryAlertRepo) LoadAlerts(ctx context.Context) ([]domain.PriceAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]domain.PriceAlert{}, m.alerts...), nil
}

func (m *memoryAlertRepo) SaveAlert(ctx context.Context, alert domain.PriceAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *memoryAlertRepo) DeleteAlert(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.alerts {
		if a.ID == id {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			return nil
		}
	}
	return domain.ErrAlertNotFound
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(e domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events(t domain.EventType) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
