package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/crypto_price_tracker/internal/domain"
	"go.uber.org/zap"
)

// AlertsKey is the fixed key the alert list is stored under.
const AlertsKey = "cryptoPriceAlerts"

// SQLiteStore keeps small JSON documents in a key/value table.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex // serializes read-modify-write of the alert blob
}

func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetValue returns the raw value for key, or ok=false if absent.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	query := `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			  ON CONFLICT(key) DO UPDATE SET
			  value=excluded.value,
			  updated_at=excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC())
	return err
}

// AlertRepository Implementation

// LoadAlerts reads the alert list. A missing, corrupt or incompatible blob
// yields an empty list; only database errors are returned.
func (s *SQLiteStore) LoadAlerts(ctx context.Context) ([]domain.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAlerts(ctx)
}

func (s *SQLiteStore) loadAlerts(ctx context.Context) ([]domain.PriceAlert, error) {
	raw, ok, err := s.GetValue(ctx, AlertsKey)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	if !ok {
		return []domain.PriceAlert{}, nil
	}

	var alerts []domain.PriceAlert
	if err := json.Unmarshal([]byte(raw), &alerts); err != nil {
		s.logger.Warn("Stored alerts unreadable, starting empty", zap.Error(err))
		return []domain.PriceAlert{}, nil
	}
	for i, a := range alerts {
		if !a.Valid() {
			s.logger.Warn("Stored alerts incompatible, starting empty",
				zap.Int("index", i), zap.String("id", a.ID), zap.String("asset", a.Asset))
			return []domain.PriceAlert{}, nil
		}
	}
	if alerts == nil {
		alerts = []domain.PriceAlert{}
	}
	return alerts, nil
}

func (s *SQLiteStore) saveAlerts(ctx context.Context, alerts []domain.PriceAlert) error {
	data, err := json.Marshal(alerts)
	if err != nil {
		return err
	}
	return s.SetValue(ctx, AlertsKey, string(data))
}

func (s *SQLiteStore) SaveAlert(ctx context.Context, alert domain.PriceAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts, err := s.loadAlerts(ctx)
	if err != nil {
		return err
	}
	alerts = append(alerts, alert)
	return s.saveAlerts(ctx, alerts)
}

func (s *SQLiteStore) DeleteAlert(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts, err := s.loadAlerts(ctx)
	if err != nil {
		return err
	}

	kept := alerts[:0]
	found := false
	for _, a := range alerts {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return domain.ErrAlertNotFound
	}
	return s.saveAlerts(ctx, kept)
}
