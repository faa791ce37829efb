// Package api exposes the daily decision engine over HTTP JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MartinT518/APEX-performance-sub001/pkg/coach"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/phase"
)

const maxBodyBytes = 1 << 20

// Decider is the subset of coach.Engine the handlers need.
type Decider interface {
	Decide(ctx context.Context, req coach.DailyRequest) (*coach.DailyResult, error)
	InvalidateDay(ctx context.Context, userID, date string) error
	ProfileChanged(ctx context.Context, userID, today string) (int, error)
	Ledger() *coach.Ledger
}

// Server holds the HTTP handlers.
type Server struct {
	coach  Decider
	logger *slog.Logger
}

// NewServer returns handlers over d.
func NewServer(d Decider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{coach: d, logger: logger.With("component", "api")}
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/users/{userID}/decisions/{date}", s.HandleDecide)
	mux.HandleFunc("DELETE /v1/users/{userID}/decisions/{date}", s.HandleInvalidateDay)
	mux.HandleFunc("POST /v1/users/{userID}/profile-changes", s.HandleProfileChanged)
	mux.HandleFunc("GET /v1/ledger", s.HandleLedger)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// Handler wraps Routes with request IDs, access logging and rate limiting.
func (s *Server) Handler(limiter *GlobalRateLimiter) http.Handler {
	var h http.Handler = s.Routes()
	if limiter != nil {
		h = limiter.Middleware(h)
	}
	h = AccessLog(s.logger)(h)
	return RequestIDMiddleware(h)
}

// HandleDecide evaluates one day. Path parameters win over body fields.
func (s *Server) HandleDecide(w http.ResponseWriter, r *http.Request) {
	userID, date, ok := dayParams(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req coach.DailyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	req.UserID, req.Date = userID, date

	res, err := s.coach.Decide(r.Context(), req)
	switch {
	case errors.Is(err, coach.ErrInvalidRequest):
		WriteErrorR(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	case errors.Is(err, phase.ErrNoPhase):
		WriteErrorR(w, r, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
		return
	case err != nil:
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleInvalidateDay drops one day's snapshot.
func (s *Server) HandleInvalidateDay(w http.ResponseWriter, r *http.Request) {
	userID, date, ok := dayParams(w, r)
	if !ok {
		return
	}
	if err := s.coach.InvalidateDay(r.Context(), userID, date); err != nil {
		WriteInternal(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProfileChangeRequest is the body of a profile-change notification.
type ProfileChangeRequest struct {
	Today string `json:"today"`
}

// ProfileChangeResponse reports how many snapshots were dropped.
type ProfileChangeResponse struct {
	Deleted int `json:"deleted"`
}

// HandleProfileChanged drops today's and all future snapshots.
func (s *Server) HandleProfileChanged(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ProfileChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if _, err := contracts.ParseDate(req.Today); err != nil {
		WriteBadRequest(w, "today must be YYYY-MM-DD")
		return
	}
	n, err := s.coach.ProfileChanged(r.Context(), userID, req.Today)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "profile changed", "user_id", userID, "deleted", n)
	writeJSON(w, http.StatusOK, ProfileChangeResponse{Deleted: n})
}

// LedgerStatus summarises the decision ledger.
type LedgerStatus struct {
	Entries  int    `json:"entries"`
	Head     string `json:"head"`
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
}

// HandleLedger verifies the decision ledger and reports its head.
func (s *Server) HandleLedger(w http.ResponseWriter, _ *http.Request) {
	l := s.coach.Ledger()
	st := LedgerStatus{Entries: l.Len(), Head: l.Head(), Verified: true}
	if err := l.Verify(); err != nil {
		st.Verified = false
		st.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, st)
}

func dayParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, date := r.PathValue("userID"), r.PathValue("date")
	if userID == "" {
		WriteBadRequest(w, "user id is required")
		return "", "", false
	}
	if _, err := contracts.ParseDate(date); err != nil {
		WriteBadRequest(w, "date must be YYYY-MM-DD")
		return "", "", false
	}
	return userID, date, true
}
