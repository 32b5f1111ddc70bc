package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradeguard/discipline"
	"github.com/rustyeddy/tradeguard/exposure"
	"github.com/rustyeddy/tradeguard/propfirm"
	"github.com/rustyeddy/tradeguard/risk"
	"github.com/rustyeddy/tradeguard/validation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var in validation.Input
	if !decode(w, r, &in) {
		return
	}
	if in.Account.PropFirm != nil {
		if err := in.Account.PropFirm.FillPreset(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Validator.Validate(r.Context(), in))
}

func (s *Server) size(w http.ResponseWriter, r *http.Request) {
	var in risk.SizingInput
	if !decode(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, s.sizer().Calculate(r.Context(), in))
}

type exposureRequest struct {
	OpenTrades          []exposure.Trade `json:"open_trades"`
	Proposed            *exposure.Trade  `json:"proposed,omitempty"`
	MaxCurrencyExposure float64          `json:"max_currency_exposure,omitempty"`
}

type exposureResponse struct {
	exposure.Analysis
	Suggestion *exposure.Suggestion `json:"suggestion,omitempty"`
}

func (s *Server) exposure(w http.ResponseWriter, r *http.Request) {
	var req exposureRequest
	if !decode(w, r, &req) {
		return
	}
	limit := req.MaxCurrencyExposure
	if limit <= 0 {
		limit = s.deps.MaxCurrencyExposure
	}
	resp := exposureResponse{Analysis: exposure.AnalyzeExposure(req.OpenTrades, req.Proposed, limit)}
	if req.Proposed != nil && !resp.Valid {
		sug := exposure.SuggestReducedRisk(*req.Proposed, req.OpenTrades, limit)
		resp.Suggestion = &sug
	}
	writeJSON(w, http.StatusOK, resp)
}

type propFirmRequest struct {
	Rules       propfirm.Rules `json:"rules"`
	RiskPercent float64        `json:"risk_percent"`
}

type propFirmResponse struct {
	propfirm.Result
	RemainingTrades  int     `json:"remaining_trades"`
	SuggestedMaxRisk float64 `json:"suggested_max_risk"`
}

func (s *Server) propFirmValidate(w http.ResponseWriter, r *http.Request) {
	var req propFirmRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Rules.FillPreset(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, propFirmResponse{
		Result:           propfirm.ValidateTrade(req.Rules, req.RiskPercent),
		RemainingTrades:  propfirm.RemainingTrades(req.Rules, req.RiskPercent),
		SuggestedMaxRisk: propfirm.SuggestMaxRisk(req.Rules),
	})
}

func (s *Server) propFirmHealth(w http.ResponseWriter, r *http.Request) {
	var rules propfirm.Rules
	if !decode(w, r, &rules) {
		return
	}
	if err := rules.FillPreset(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, propfirm.AssessChallengeHealth(rules))
}

func (s *Server) propFirmPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, propfirm.Presets())
}

func (s *Server) disciplineScore(w http.ResponseWriter, r *http.Request) {
	var in discipline.Input
	if !decode(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, discipline.Calculate(in))
}

// disciplineDay scores a stored day, e.g. /v1/discipline/ftmo-1/2026-03-04.
func (s *Server) disciplineDay(w http.ResponseWriter, r *http.Request) {
	if s.deps.Discipline == nil {
		writeError(w, http.StatusServiceUnavailable, "discipline history not configured")
		return
	}
	vars := mux.Vars(r)
	day, err := time.Parse(time.DateOnly, vars["day"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	res, err := s.deps.Discipline.ScoreDay(r.Context(), vars["account"], day)
	if err != nil {
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("score day")
		writeError(w, http.StatusInternalServerError, "could not score day")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
