package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"slidecast/internal/registry"
	"slidecast/internal/room"
	"slidecast/internal/store"
	"slidecast/pkg/types"
)

// Server is the directory service: create and list presentations. It is a
// thin HTTP layer over the store; input validation happens here so the
// relay core never sees malformed data.
type Server struct {
	store    *store.Store
	registry *registry.Registry
	rooms    *room.Router
	router   chi.Router
}

// CreatePresentationRequest is the POST /api/presentations body.
type CreatePresentationRequest struct {
	Title   string `json:"title"`
	Creator string `json:"creator"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Store       map[string]int `json:"store"`
	Rooms       map[string]int `json:"rooms"`
	Connections int            `json:"connections"`
}

// ErrorResponse is the shape of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the directory routes. The CORS allowance matches the dev
// origins the browser client is served from.
func NewServer(st *store.Store, reg *registry.Registry, rooms *room.Router) *Server {
	s := &Server{
		store:    st,
		registry: reg,
		rooms:    rooms,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	r.Post("/api/presentations", s.createPresentation)
	r.Get("/api/presentations", s.listPresentations)
	r.Get("/healthz", s.health)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// createPresentation allocates a presentation and returns it with an empty
// roster. The new presentation is visible to list immediately.
func (s *Server) createPresentation(w http.ResponseWriter, r *http.Request) {
	var req CreatePresentationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if !types.IsValidTitle(req.Title) {
		s.sendError(w, types.ErrInvalidTitle.Error(), http.StatusBadRequest)
		return
	}
	if !types.IsValidNickname(req.Creator) {
		s.sendError(w, types.ErrInvalidNickname.Error(), http.StatusBadRequest)
		return
	}

	presentation := s.store.Create(req.Title, req.Creator)
	writeJSON(w, http.StatusCreated, presentation)
}

// listPresentations returns all presentations in creation order. No
// pagination: sessions are ephemeral and few.
func (s *Server) listPresentations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now(),
		Store:       s.store.Stats(),
		Rooms:       s.rooms.Stats(),
		Connections: s.registry.Count(),
	})
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
