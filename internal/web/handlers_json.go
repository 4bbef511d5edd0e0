package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vitos/crypto_price_tracker/internal/domain"
	"github.com/vitos/crypto_price_tracker/internal/format"
	"github.com/vitos/crypto_price_tracker/internal/usecase"
	"go.uber.org/zap"
)

const msgUpdateFailed = "Update failed - check connection"

type errorResponse struct {
	Error string `json:"error"`
}

type priceResponse struct {
	Record *domain.PriceRecord `json:"record"`
	View   format.PriceView    `json:"view"`
	Fired  []domain.FiredAlert `json:"fired,omitempty"`
}

type alertResponse struct {
	Alert   domain.PriceAlert `json:"alert"`
	Message string            `json:"message"`
}

type alertRequest struct {
	Asset     string          `json:"asset"`
	Condition string          `json:"condition"`
	Price     json.RawMessage `json:"price"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeResolveError maps resolver failures to HTTP statuses.
func (s *Server) writeResolveError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrResolutionInFlight):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAllSourcesFailed):
		s.writeError(w, http.StatusBadGateway, msgUpdateFailed)
	default:
		s.logger.Error("Request failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, domain.Assets())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.tracker.Session().Snapshot())
}

func (s *Server) handleSelectAsset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Asset string `json:"asset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	if _, err := s.tracker.SelectAsset(req.Asset); err != nil {
		s.writeError(w, http.StatusBadRequest, domain.MsgUnknownAsset)
		return
	}

	// switching fetches right away; the outcome lands in the session status
	if _, _, err := s.tracker.Refresh(r.Context()); err != nil {
		s.logger.Warn("Refresh after asset switch failed", zap.Error(err))
	}
	s.writeJSON(w, http.StatusOK, s.tracker.Session().Snapshot())
}

func (s *Server) handleSetCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Assets []string `json:"assets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	var ids []string
	if len(req.Assets) > 0 {
		assets, err := usecase.ParseComparison(req.Assets)
		if err != nil {
			s.writeResolveError(w, err)
			return
		}
		for _, a := range assets {
			ids = append(ids, a.ID)
		}
	}
	s.tracker.Session().SetCompare(ids)
	s.writeJSON(w, http.StatusOK, s.tracker.Session().Snapshot())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	rec, fired, err := s.tracker.Refresh(r.Context())
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, priceResponse{Record: rec, View: format.View(*rec), Fired: fired})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	asset, ok := domain.LookupAsset(r.PathValue("asset"))
	if !ok {
		s.writeError(w, http.StatusNotFound, domain.MsgUnknownAsset)
		return
	}

	rec, err := s.resolver.Resolve(r.Context(), asset, nil)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, priceResponse{Record: rec, View: format.View(*rec)})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("assets"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	entries, err := s.compare.Compare(r.Context(), ids)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	assetID := r.URL.Query().Get("asset")
	if assetID != "" {
		asset, ok := domain.LookupAsset(assetID)
		if !ok {
			s.writeError(w, http.StatusBadRequest, domain.MsgUnknownAsset)
			return
		}
		assetID = asset.ID
	}

	alerts, err := s.alerts.List(r.Context(), assetID)
	if err != nil {
		s.logger.Error("Failed to list alerts", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}
	if alerts == nil {
		alerts = []domain.PriceAlert{}
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleAddAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	alert, err := s.alerts.Create(r.Context(), usecase.AlertInput{
		Asset:     req.Asset,
		Condition: req.Condition,
		Price:     rawPrice(req.Price),
	})
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		s.writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	if err != nil {
		s.logger.Error("Failed to add alert", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to add alert")
		return
	}

	asset, _ := domain.LookupAsset(alert.Asset)
	s.writeJSON(w, http.StatusCreated, alertResponse{Alert: alert, Message: format.AlertAddedMessage(asset, alert)})
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.alerts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("Failed to delete alert", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to delete alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online *bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Online == nil {
		s.writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	if s.scheduler != nil {
		s.scheduler.SetOnline(*req.Online)
	}
	s.tracker.SetOnline(*req.Online)
	s.writeJSON(w, http.StatusOK, s.tracker.Session().Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	online := true
	if s.scheduler != nil {
		online = s.scheduler.Online()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "online": online})
}

// rawPrice accepts the threshold as a JSON number or a JSON string.
func rawPrice(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		return unquoted
	}
	if text == "null" {
		return ""
	}
	return text
}
