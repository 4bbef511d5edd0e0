package usecase

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/crypto_price_tracker/internal/domain"
	"go.uber.org/zap"
)

// AlertInput is raw user input for a new alert.
type AlertInput struct {
	Asset     string `json:"asset"`
	Condition string `json:"condition"`
	Price     string `json:"price"`
}

type AlertService struct {
	repo    domain.AlertRepository
	logger  *zap.Logger
	timeNow func() time.Time
	newID   func() string
}

func NewAlertService(repo domain.AlertRepository, logger *zap.Logger) *AlertService {
	return &AlertService{
		repo:    repo,
		logger:  logger,
		timeNow: time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// decimalNumber matches plain decimal notation with an optional exponent.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseThreshold validates a user-typed alert price. Only decimal notation is
// accepted; hex floats, underscores and words like "Inf" are rejected.
func ParseThreshold(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if !decimalNumber.MatchString(raw) {
		return 0, &domain.ValidationError{Message: domain.MsgInvalidPrice}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, &domain.ValidationError{Message: domain.MsgInvalidPrice}
	}
	return v, nil
}

// Create validates input and persists a new alert. Invalid input returns a
// *domain.ValidationError and never reaches the repository.
func (s *AlertService) Create(ctx context.Context, in AlertInput) (domain.PriceAlert, error) {
	asset, ok := domain.LookupAsset(in.Asset)
	if !ok {
		return domain.PriceAlert{}, &domain.ValidationError{Message: domain.MsgUnknownAsset}
	}
	price, err := ParseThreshold(in.Price)
	if err != nil {
		return domain.PriceAlert{}, err
	}
	cond := domain.AlertCondition(strings.ToLower(strings.TrimSpace(in.Condition)))
	if cond == "" {
		cond = domain.ConditionAbove
	}
	if !cond.Valid() {
		return domain.PriceAlert{}, &domain.ValidationError{Message: domain.MsgInvalidCondition}
	}

	alert := domain.PriceAlert{
		ID:        s.newID(),
		Asset:     asset.ID,
		Condition: cond,
		Price:     price,
		CreatedAt: s.timeNow().UTC(),
	}
	if err := s.repo.SaveAlert(ctx, alert); err != nil {
		return domain.PriceAlert{}, err
	}

	s.logger.Info("Alert created",
		zap.String("id", alert.ID),
		zap.String("asset", alert.Asset),
		zap.String("condition", string(alert.Condition)),
		zap.Float64("price", alert.Price))
	return alert, nil
}

func (s *AlertService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteAlert(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Alert removed", zap.String("id", id))
	return nil
}

// List returns stored alerts, filtered by asset when assetID is not empty.
func (s *AlertService) List(ctx context.Context, assetID string) ([]domain.PriceAlert, error) {
	alerts, err := s.repo.LoadAlerts(ctx)
	if err != nil {
		return nil, err
	}
	if assetID == "" {
		return alerts, nil
	}
	filtered := make([]domain.PriceAlert, 0, len(alerts))
	for _, a := range alerts {
		if a.Asset == assetID {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// Active is the evaluation-path read: storage failures degrade to no alerts.
func (s *AlertService) Active(ctx context.Context) []domain.PriceAlert {
	alerts, err := s.repo.LoadAlerts(ctx)
	if err != nil {
		s.logger.Warn("Failed to load alerts", zap.Error(err))
		return nil
	}
	return alerts
}
