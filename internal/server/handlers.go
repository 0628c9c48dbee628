package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/lookback/internal/activity"
	"github.com/runnerr0/lookback/internal/report"
)

// maxBodyBytes bounds a report request body.
const maxBodyBytes = 1 << 16

func (s *Server) handleLookbackPost(w http.ResponseWriter, r *http.Request) {
	var req report.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "request body must be a JSON object with start and end")
		return
	}
	s.lookback(w, r, req)
}

func (s *Server) handleLookbackGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.lookback(w, r, report.Request{Start: q.Get("start"), End: q.Get("end")})
}

func (s *Server) lookback(w http.ResponseWriter, r *http.Request, req report.Request) {
	query, err := report.ParseRequest(s.owner(r), req)
	if err != nil {
		s.respondReportError(w, r, err)
		return
	}

	rep, err := s.reports.Build(r.Context(), query)
	if err != nil {
		s.respondReportError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) respondReportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("report timed out", zap.Error(err), zap.String("path", r.URL.Path))
		respondError(w, http.StatusGatewayTimeout, "timeout", "report took too long")
	case errors.Is(err, activity.ErrInvalidWindow):
		respondError(w, http.StatusBadRequest, "invalid_window", err.Error())
	case errors.Is(err, report.ErrMissingOwner):
		respondError(w, http.StatusBadRequest, "missing_owner", err.Error())
	case errors.Is(err, report.ErrStoreUnavailable):
		s.logger.Warn("report unavailable", zap.Error(err), zap.String("path", r.URL.Path))
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", "activity store is unavailable, retry later")
	default:
		s.logger.Error("report failed", zap.Error(err), zap.String("path", r.URL.Path))
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

type statusResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Owner     string `json:"owner"`
	Tabs      int64  `json:"tabs"`
	OpenTabs  int64  `json:"open_tabs"`
	Sessions  int64  `json:"sessions"`
	Intervals int64  `json:"intervals"`
	Visits    int64  `json:"visits"`
	OldestTab string `json:"oldest_tab,omitempty"`
	NewestTab string `json:"newest_tab,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)
	out := statusResponse{Status: "ok", Version: s.version, Owner: owner}

	if s.stats != nil {
		stats, err := s.stats.GetStats(r.Context(), owner)
		if err != nil {
			s.logger.Warn("status stats", zap.Error(err))
			respondError(w, http.StatusServiceUnavailable, "store_unavailable", "activity store is unavailable")
			return
		}
		out.Tabs = stats.TotalTabs
		out.OpenTabs = stats.OpenTabs
		out.Sessions = stats.TotalSessions
		out.Intervals = stats.TotalIntervals
		out.Visits = stats.TotalVisits
		if stats.TotalTabs > 0 {
			out.OldestTab = stats.OldestTab.UTC().Format(time.RFC3339)
			out.NewestTab = stats.NewestTab.UTC().Format(time.RFC3339)
		}
	}

	respondJSON(w, http.StatusOK, out)
}
