// ABOUTME: Server exposes the card store as a JSON API over a chi router.
// ABOUTME: Store calls are serialized here because the repository itself holds no locks.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/registry"
	"github.com/2389-research/kanbanfs/board/store"
)

// Server is the HTTP adapter over one repository.
type Server struct {
	mu     sync.Mutex
	repo   *store.Repository
	reg    *registry.Registry
	token  string
	router chi.Router
}

// New builds a Server. A non-empty token protects every /api route.
func New(repo *store.Repository, token string) *Server {
	s := &Server{
		repo:  repo,
		reg:   repo.Workspace().Registry(),
		token: token,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if s.token != "" {
		r.Use(AuthMiddleware(s.token))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Card routes without a board prefix address the default board.
		r.Route("/tasks", s.taskRoutes)
		r.Route("/columns", s.columnRoutes)

		r.Route("/boards", func(r chi.Router) {
			r.Get("/", s.handleBoardList)
			r.Post("/", s.handleBoardCreate)
			r.Route("/{boardID}", func(r chi.Router) {
				r.Get("/", s.handleBoardGet)
				r.Patch("/", s.handleBoardUpdate)
				r.Delete("/", s.handleBoardDelete)
				r.Route("/tasks", s.taskRoutes)
				r.Route("/columns", s.columnRoutes)
			})
		})

		r.Route("/labels", func(r chi.Router) {
			r.Get("/", s.handleLabelList)
			r.Put("/{name}", s.handleLabelSet)
			r.Delete("/{name}", s.handleLabelDelete)
			r.Post("/{name}/rename", s.handleLabelRename)
		})

		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsUpdate)

		r.Route("/webhooks", func(r chi.Router) {
			r.Get("/", s.handleWebhookList)
			r.Post("/", s.handleWebhookCreate)
			r.Get("/{webhookID}", s.handleWebhookGet)
			r.Patch("/{webhookID}", s.handleWebhookUpdate)
			r.Delete("/{webhookID}", s.handleWebhookDelete)
		})
	})
	return r
}

func (s *Server) taskRoutes(r chi.Router) {
	r.Get("/", s.handleTaskList)
	r.Post("/", s.handleTaskCreate)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", s.handleTaskGet)
		r.Patch("/", s.handleTaskUpdate)
		r.Delete("/", s.handleTaskDelete)
		r.Post("/move", s.handleTaskMove)
		r.Post("/comments", s.handleCommentCreate)
		r.Patch("/comments/{commentID}", s.handleCommentUpdate)
		r.Delete("/comments/{commentID}", s.handleCommentDelete)
		r.Post("/attachments", s.handleAttachmentAdd)
		r.Get("/attachments/{name}", s.handleAttachmentGet)
		r.Delete("/attachments/{name}", s.handleAttachmentRemove)
	})
}

func (s *Server) columnRoutes(r chi.Router) {
	r.Get("/", s.handleColumnList)
	r.Post("/", s.handleColumnAdd)
	r.Put("/order", s.handleColumnReorder)
	r.Patch("/{columnID}", s.handleColumnUpdate)
	r.Delete("/{columnID}", s.handleColumnRemove)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// locked runs fn with the store lock held.
func (s *Server) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func boardParam(r *http.Request) string {
	return chi.URLParam(r, "boardID")
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return core.Invalid(core.ErrValidation, "invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps store errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrColumnNotEmpty), errors.Is(err, core.ErrBoardNotEmpty),
		errors.Is(err, core.ErrDuplicateColumn), errors.Is(err, core.ErrDuplicateBoard):
		status = http.StatusConflict
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
