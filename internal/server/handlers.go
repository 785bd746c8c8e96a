package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/sqlgraph/internal/engine"
	"github.com/leapstack-labs/sqlgraph/internal/server/notifier"
	"github.com/leapstack-labs/sqlgraph/internal/state"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
	"github.com/leapstack-labs/sqlgraph/pkg/parser"
)

const maxRequestBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type analyzeRequest struct {
	Name string          `json:"name" validate:"omitempty,max=255"`
	SQL  string          `json:"sql" validate:"required_without=AST"`
	AST  json.RawMessage `json:"ast" validate:"required_without=SQL"`
}

type analyzeResponse struct {
	*engine.Result
	SnapshotID string `json:"snapshot_id,omitempty"`
}

type graphResponse struct {
	*engine.Result
	Version uint64 `json:"version"`
	Error   string `json:"error,omitempty"`
}

// signals is the datastar signal payload pushed on /events.
type signals struct {
	Version  uint64 `json:"version"`
	Name     string `json:"name,omitempty"`
	Document any    `json:"document,omitempty"`
	Error    string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		req.Name = "request"
	}

	src := engine.Source{Name: req.Name, SQL: req.SQL, AST: req.AST}
	res, err := s.engine.Analyze(r.Context(), src)
	if err != nil {
		writeError(w, analyzeStatus(err), err)
		return
	}

	resp := analyzeResponse{Result: res}
	snap, err := s.engine.Record(r.Context(), src, res)
	if err != nil {
		s.logger.Error("record snapshot", "file", req.Name, "error", err)
	} else if snap != nil {
		resp.SnapshotID = snap.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	latest := s.notifier.Latest()
	if latest.Result == nil {
		if latest.Err != nil {
			writeError(w, analyzeStatus(latest.Err), latest.Err)
			return
		}
		writeError(w, http.StatusNotFound, errors.New("no graph available"))
		return
	}

	resp := graphResponse{Result: latest.Result, Version: latest.Version}
	if latest.Err != nil {
		resp.Error = latest.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTrace traces a column of the watched graph, or of a stored
// snapshot when ?snapshot=<id> is given.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")

	var g *lineage.Graph
	if id := r.URL.Query().Get("snapshot"); id != "" {
		history := s.engine.History()
		if history == nil {
			writeError(w, http.StatusNotFound, errHistoryDisabled)
			return
		}
		snap, err := history.Get(r.Context(), id)
		if err != nil {
			writeError(w, storeStatus(err), err)
			return
		}
		g = snap.Graph
	} else if res := s.notifier.Latest().Result; res != nil {
		g = res.Graph
	}
	if g == nil {
		writeError(w, http.StatusNotFound, errors.New("no graph available"))
		return
	}

	trace, err := lineage.Related(g, column)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

var errHistoryDisabled = errors.New("history is disabled")

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	history := s.engine.History()
	if history == nil {
		writeError(w, http.StatusNotFound, errHistoryDisabled)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	snaps, err := history.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if snaps == nil {
		snaps = []*state.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	history := s.engine.History()
	if history == nil {
		writeError(w, http.StatusNotFound, errHistoryDisabled)
		return
	}

	snap, err := history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleEvents is the long-lived SSE endpoint. It sends the current graph on
// connect and again whenever the watched file is re-analysed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	if latest := s.notifier.Latest(); latest.Version > 0 {
		if err := sse.MarshalAndPatchSignals(signalsOf(latest)); err != nil {
			_ = sse.ConsoleError(err)
		}
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := sse.MarshalAndPatchSignals(signalsOf(s.notifier.Latest())); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func signalsOf(u notifier.Update) signals {
	sig := signals{Version: u.Version}
	if u.Result != nil {
		sig.Name = u.Result.Name
		sig.Document = u.Result.Document
	}
	if u.Err != nil {
		sig.Error = u.Err.Error()
	}
	return sig
}

// analyzeStatus maps an analysis error to a status code: bad input is 422,
// anything else a server error.
func analyzeStatus(err error) int {
	var (
		parseErr *parser.ParseError
		lexErr   *parser.LexError
	)
	switch {
	case errors.Is(err, lineage.ErrInvalidRoot),
		errors.As(err, &parseErr),
		errors.As(err, &lexErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func storeStatus(err error) int {
	if errors.Is(err, state.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
