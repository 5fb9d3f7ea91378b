// Package api exposes a session over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/lens"
	"github.com/pbaille/superlinks/internal/logging"
	"github.com/pbaille/superlinks/internal/merge"
	"github.com/pbaille/superlinks/internal/overlay"
	"github.com/pbaille/superlinks/internal/session"
)

// Server handles HTTP requests for the link catalog API
type Server struct {
	session *session.Session
	addr    string
	origins []string
	logger  *zap.Logger
}

// New creates a new API server
func New(s *session.Session, addr string, origins []string, logger *zap.Logger) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{session: s, addr: addr, origins: origins, logger: logging.OrNop(logger)}
}

// Handler returns the routed handler wrapped with CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/catalog", s.catalog).Methods(http.MethodGet)

	// Lenses
	r.HandleFunc("/lenses", s.listLenses).Methods(http.MethodGet)
	r.HandleFunc("/lenses/current", s.current).Methods(http.MethodGet)
	r.HandleFunc("/lenses/current/refresh", s.refresh).Methods(http.MethodPost)
	r.HandleFunc("/lenses/current/show-all", s.toggleShowAll).Methods(http.MethodPost)
	r.HandleFunc("/lenses/{lens}", s.viewLens).Methods(http.MethodGet)
	r.HandleFunc("/lenses/{lens}/select", s.selectLens).Methods(http.MethodPost)

	// Id sets
	r.HandleFunc("/pins/{id}", s.idAction(s.session.Pin)).Methods(http.MethodPut)
	r.HandleFunc("/pins/{id}", s.idAction(s.session.Unpin)).Methods(http.MethodDelete)
	r.HandleFunc("/favorites/{id}", s.idAction(s.session.Favorite)).Methods(http.MethodPut)
	r.HandleFunc("/favorites/{id}", s.idAction(s.session.Unfavorite)).Methods(http.MethodDelete)
	r.HandleFunc("/deletions/{id}", s.idAction(s.session.Delete)).Methods(http.MethodPut)
	r.HandleFunc("/deletions/{id}", s.idAction(s.session.Restore)).Methods(http.MethodDelete)

	// Items
	r.HandleFunc("/locations/{location}/items", s.addItem).Methods(http.MethodPost)
	r.HandleFunc("/locations/{location}/items/{id}", s.editItem).Methods(http.MethodPut)
	r.HandleFunc("/locations/{location}/order", s.reorder).Methods(http.MethodPut)

	// Filter
	r.HandleFunc("/filter", s.getFilter).Methods(http.MethodGet)
	r.HandleFunc("/filter", s.putFilter).Methods(http.MethodPut)
	r.HandleFunc("/filter", s.clearFilter).Methods(http.MethodDelete)

	r.HandleFunc("/export", s.export).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
	return c.Handler(r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Tree())
}

func (s *Server) listLenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lens.Entries(s.session.Tree()))
}

func (s *Server) viewLens(w http.ResponseWriter, r *http.Request) {
	l, ok := parseLens(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.session.View(l, queryBool(r, "all")))
}

func (s *Server) selectLens(w http.ResponseWriter, r *http.Request) {
	l, ok := parseLens(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.session.Select(l))
}

func (s *Server) current(w http.ResponseWriter, r *http.Request) {
	v, ok := s.session.Refresh()
	if !ok {
		writeError(w, http.StatusNotFound, "no lens selected")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.current(w, r)
}

func (s *Server) toggleShowAll(w http.ResponseWriter, r *http.Request) {
	v, ok := s.session.ToggleShowAll()
	if !ok {
		writeError(w, http.StatusNotFound, "no lens selected")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) idAction(fn func(context.Context, int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil || id == 0 {
			writeError(w, http.StatusBadRequest, "invalid item id")
			return
		}
		if err := fn(r.Context(), id); err != nil {
			s.fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ItemRequest is the request body for adding or editing an item
type ItemRequest struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Note   string `json:"note,omitempty"`
	Source string `json:"source,omitempty"`
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	loc, ok := parseLocation(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	item, err := s.session.Add(r.Context(), loc, domain.Item{Name: req.Name, URL: req.URL, Note: req.Note}, req.Source)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) editItem(w http.ResponseWriter, r *http.Request) {
	loc, ok := parseLocation(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := domain.Item{ID: id, Name: req.Name, URL: req.URL, Note: req.Note}
	if err := s.session.Edit(r.Context(), loc, item, req.Source); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// OrderRequest is the request body for reordering a location's records
type OrderRequest struct {
	IDs []int `json:"ids"`
}

func (s *Server) reorder(w http.ResponseWriter, r *http.Request) {
	loc, ok := parseLocation(w, r)
	if !ok {
		return
	}
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.session.Reorder(r.Context(), loc, req.IDs); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getFilter(w http.ResponseWriter, r *http.Request) {
	f := s.session.Overlay().Filter()
	if f == nil {
		f = &domain.Filter{}
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) putFilter(w http.ResponseWriter, r *http.Request) {
	var f domain.Filter
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.session.SetFilter(r.Context(), &f); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) clearFilter(w http.ResponseWriter, r *http.Request) {
	if err := s.session.SetFilter(r.Context(), nil); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportResponse carries the reconciled document and what went into it
type ExportResponse struct {
	Document domain.Tree  `json:"document"`
	Report   merge.Report `json:"report"`
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	tree, report := s.session.Export(r.URL.Query().Get("revision"))
	writeJSON(w, http.StatusOK, ExportResponse{Document: tree, Report: report})
}

// fail maps domain errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownLocation), errors.Is(err, session.ErrUnknownItem):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, overlay.ErrInvalidItem), errors.Is(err, domain.ErrInvalidLocation), errors.Is(err, lens.ErrUnknownLens):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseLens(w http.ResponseWriter, r *http.Request) (lens.Lens, bool) {
	l, err := lens.Parse(mux.Vars(r)["lens"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return lens.Lens{}, false
	}
	return l, true
}

func parseLocation(w http.ResponseWriter, r *http.Request) (domain.Location, bool) {
	loc, err := domain.ParseLocation(mux.Vars(r)["location"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.Location{}, false
	}
	return loc, true
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
