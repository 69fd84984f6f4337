// Package httpapi is the synchronous request surface. Every route wraps a
// store/fan-out call and returns a JSON acknowledgment; the live updates
// ride the websocket channel instead.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"wuphf.social/internal/fanout"
	"wuphf.social/internal/store"
)

type Server struct {
	fanout *fanout.Service
	store  *store.Store
	log    *log.Logger

	recentLimit int
}

func NewServer(f *fanout.Service, st *store.Store, logger *log.Logger, recentLimit int) *Server {
	return &Server{fanout: f, store: st, log: logger, recentLimit: recentLimit}
}

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/wuphfs", s.handleCreate)
	mux.HandleFunc("GET /api/wuphfs", s.handleRecent)
	mux.HandleFunc("POST /api/wuphfs/{id}/like", s.handleLike)
	mux.HandleFunc("POST /api/wuphfs/{id}/rewuphf", s.handleRewuphf)
	mux.HandleFunc("POST /api/wuphfs/{id}/print", s.handlePrint)
	mux.HandleFunc("POST /api/wuphfs/{id}/replies", s.handleReply)
	mux.HandleFunc("POST /api/demo", s.handleDemo)
	mux.HandleFunc("GET /api/channels", s.handleChannels)
}

func (s *Server) handleCreate(rw http.ResponseWriter, r *http.Request) {
	var req fanout.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.fanout.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeError(rw, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(rw, "create wuphf", err)
		return
	}
	writeJSON(rw, map[string]any{
		"success":       true,
		"wuphf":         res.Wuphf,
		"notifications": res.Notifications,
	})
}

func (s *Server) handleRecent(rw http.ResponseWriter, r *http.Request) {
	wuphfs, err := s.fanout.Recent(r.Context(), s.recentLimit)
	if err != nil {
		s.internalError(rw, "recent wuphfs", err)
		return
	}
	writeJSON(rw, wuphfs)
}

func (s *Server) handleLike(rw http.ResponseWriter, r *http.Request) {
	s.handleCounter(rw, r, s.fanout.Like)
}

func (s *Server) handleRewuphf(rw http.ResponseWriter, r *http.Request) {
	s.handleCounter(rw, r, s.fanout.Rewuphf)
}

func (s *Server) handleCounter(rw http.ResponseWriter, r *http.Request, action func(context.Context, int64) (bool, error)) {
	id, ok := pathID(rw, r)
	if !ok {
		return
	}
	success, err := action(r.Context(), id)
	if err != nil {
		s.internalError(rw, "counter update", err)
		return
	}
	writeJSON(rw, map[string]any{"success": success})
}

func (s *Server) handlePrint(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathID(rw, r)
	if !ok {
		return
	}
	out, err := s.fanout.Print(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(rw, http.StatusNotFound, "wuphf not found")
			return
		}
		s.internalError(rw, "print wuphf", err)
		return
	}
	writeJSON(rw, map[string]any{"success": true, "printOutput": out})
}

func (s *Server) handleReply(rw http.ResponseWriter, r *http.Request) {
	id, ok := pathID(rw, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
		Author  string `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid request body")
		return
	}
	reply, err := s.store.AddReply(r.Context(), id, req.Content, req.Author)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(rw, http.StatusNotFound, "wuphf not found")
		case errors.Is(err, store.ErrValidation):
			writeError(rw, http.StatusBadRequest, err.Error())
		default:
			s.internalError(rw, "add reply", err)
		}
		return
	}
	writeJSON(rw, map[string]any{"success": true, "reply": reply})
}

func (s *Server) handleDemo(rw http.ResponseWriter, r *http.Request) {
	res, err := s.fanout.Demo(r.Context())
	if err != nil {
		s.internalError(rw, "demo mode", err)
		return
	}
	writeJSON(rw, map[string]any{
		"success":       true,
		"wuphf":         res.Wuphf,
		"notifications": res.Notifications,
	})
}

func (s *Server) handleChannels(rw http.ResponseWriter, r *http.Request) {
	channels, err := s.store.Channels(r.Context())
	if err != nil {
		s.internalError(rw, "list channels", err)
		return
	}
	writeJSON(rw, channels)
}

func (s *Server) internalError(rw http.ResponseWriter, what string, err error) {
	s.log.Printf("%s: %v", what, err)
	writeError(rw, http.StatusInternalServerError, "internal error")
}

func pathID(rw http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "invalid wuphf id")
		return 0, false
	}
	return id, true
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, code int, msg string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(map[string]any{"success": false, "error": msg})
}
