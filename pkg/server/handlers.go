package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	rerrors "github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/middleware"
	"github.com/vango-dev/routestate/pkg/route"
	"github.com/vango-dev/routestate/pkg/store"
)

type urlBody struct {
	URL string `json:"url"`
}

type snapshotRef struct {
	Name string `json:"name"`
}

type snapshotList struct {
	Names []string `json:"names"`
}

func (s *Server) handleGetURL(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, urlBody{URL: s.router.URL()})
}

func (s *Server) handlePutURL(w http.ResponseWriter, r *http.Request) {
	var body urlBody
	if !s.decode(w, r, &body) {
		return
	}
	writeJSON(w, http.StatusOK, s.router.SetURL(body.URL))
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.router.State())
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	var state *route.State
	if !s.decode(w, r, &state) {
		return
	}
	snap, err := s.router.SetState(state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTree(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.router.Tree())
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, snapshotList{Names: names})
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	s.saveSnapshot(w, r, store.NewName(), http.StatusCreated)
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	s.saveSnapshot(w, r, chi.URLParam(r, "name"), http.StatusOK)
}

func (s *Server) saveSnapshot(w http.ResponseWriter, r *http.Request, name string, status int) {
	if err := s.store.Save(r.Context(), name, s.router.State()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("snapshot saved", "name", name)
	writeJSON(w, status, snapshotRef{Name: name})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	state, err := s.store.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.router.SetState(state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("snapshot restored", "name", name, "url", snap.URL)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decode reads a JSON body into v. On failure it writes a 400 response and
// returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, rerrors.FromError(err, "R160"))
		return false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		s.writeError(w, r, rerrors.New("R160").WithDetail("Trailing data after the JSON value."))
		return false
	}
	return true
}

// writeError maps err to a coded error and status and writes it as JSON.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, coded := classify(err)
	middleware.RecordError(r.Context(), err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", coded.FormatCompact(), "cause", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "error", coded.FormatCompact(), "cause", err)
	}

	writeCoded(w, status, coded)
}

func writeCoded(w http.ResponseWriter, status int, coded *rerrors.RouteError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, coded.FormatJSON())
}

func classify(err error) (int, *rerrors.RouteError) {
	var coded *rerrors.RouteError
	if errors.As(err, &coded) {
		if coded.Code == "R161" {
			return http.StatusInternalServerError, coded
		}
		switch coded.Category {
		case rerrors.CategoryAPI, rerrors.CategoryRouting:
			return http.StatusBadRequest, coded
		}
		return http.StatusInternalServerError, coded
	}

	var malformed *route.MalformedStateError
	switch {
	case errors.As(err, &malformed):
		return http.StatusBadRequest, rerrors.FromError(err, "R001").WithDetail(malformed.Error())
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, rerrors.FromError(err, "R120")
	case errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest, rerrors.FromError(err, "R121")
	default:
		return http.StatusInternalServerError, rerrors.FromError(err, "R122")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
