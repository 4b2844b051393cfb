// Package http provides the HTTP transport layer of the conduit API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/mvaleed/conduit/internal/auth"
	"github.com/mvaleed/conduit/internal/config"
	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/service"
)

// Server is the HTTP server of the conduit API.
type Server struct {
	httpServer     *http.Server
	router         *chi.Mux
	userService    *service.UserService
	profileService *service.ProfileService
	articleService *service.ArticleService
	commentService *service.CommentService
	jwtManager     *auth.JWTManager
	logger         *logrus.Logger
	corsOrigins    []string
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.Config,
	userService *service.UserService,
	profileService *service.ProfileService,
	articleService *service.ArticleService,
	commentService *service.CommentService,
	jwtManager *auth.JWTManager,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		userService:    userService,
		profileService: profileService,
		articleService: articleService,
		commentService: commentService,
		jwtManager:     jwtManager,
		logger:         logger,
		corsOrigins:    cfg.CORSAllowedOrigins,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Public routes. A valid token, when sent, sets the viewpoint.
		r.Group(func(r chi.Router) {
			r.Use(s.optionalAuthMiddleware)

			r.Post("/users", s.handleRegister)
			r.Post("/users/login", s.handleLogin)

			r.Get("/profiles/{username}", s.handleShowProfile)

			r.Get("/articles", s.handleListArticles)
			r.Get("/articles/{slug}", s.handleShowArticle)
			r.Get("/articles/{slug}/comments", s.handleListComments)

			r.Get("/tags", s.handleListTags)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/user", s.handleGetCurrentUser)
			r.Put("/user", s.handleUpdateCurrentUser)

			r.Post("/profiles/{username}/follow", s.handleFollow)
			r.Delete("/profiles/{username}/follow", s.handleUnfollow)

			r.Get("/articles/feed", s.handleFeed)
			r.Post("/articles", s.handleCreateArticle)
			r.Put("/articles/{slug}", s.handleUpdateArticle)
			r.Delete("/articles/{slug}", s.handleDeleteArticle)

			r.Post("/articles/{slug}/favorite", s.handleFavorite)
			r.Delete("/articles/{slug}/favorite", s.handleUnfavorite)

			r.Post("/articles/{slug}/comments", s.handleCreateComment)
			r.Delete("/articles/{slug}/comments/{id}", s.handleDeleteComment)
		})
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Response helpers

type fieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code,omitempty"`
	Errors []fieldError `json:"errors,omitempty"`
	Count  *int         `json:"articlesCount,omitempty"`
}

func toFieldErrors(errs domain.ValidationErrors) []fieldError {
	out := make([]fieldError, 0, len(errs))
	for _, pair := range errs.Pairs() {
		out = append(out, fieldError{Key: pair[0], Message: pair[1]})
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// writeError maps a use case failure to a status code and body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		status int
		resp   errorResponse
	)

	var (
		nothing    *service.NothingToUpdateError
		invalid    service.HasValidationErrors
		notFound   *service.NotFoundError
		notAuthor  *service.NotAuthorError
		unauth     *service.UnauthorizedError
		exists     *service.AlreadyExistsError
		overCount  *service.OffsetOverCountError
		unexpected *service.UnexpectedError
	)

	switch {
	case errors.As(err, &nothing):
		status = http.StatusUnprocessableEntity
		resp = errorResponse{Error: "nothing to update", Code: "NOTHING_TO_UPDATE", Errors: toFieldErrors(nothing.Errors)}

	case errors.As(err, &invalid):
		status = http.StatusUnprocessableEntity
		resp = errorResponse{Error: "validation failed", Code: "INVALID_INPUT", Errors: toFieldErrors(invalid.ValidationErrors())}

	case errors.As(err, &notFound):
		status = http.StatusNotFound
		resp = errorResponse{Error: notFound.Err.Error(), Code: "NOT_FOUND"}

	case errors.As(err, &notAuthor):
		status = http.StatusForbidden
		resp = errorResponse{Error: "only the author may do this", Code: "FORBIDDEN"}

	case errors.As(err, &unauth):
		status = http.StatusUnauthorized
		resp = errorResponse{Error: "invalid credentials", Code: "UNAUTHORIZED"}

	case errors.As(err, &exists):
		status = http.StatusConflict
		resp = errorResponse{Error: "resource already exists", Code: "ALREADY_EXISTS"}

	case errors.As(err, &overCount):
		count := overCount.Count
		status = http.StatusBadRequest
		resp = errorResponse{
			Error:  "offset is over the articles count",
			Code:   "OFFSET_OVER_COUNT",
			Errors: []fieldError{{Key: domain.KeyOffset, Message: "is over the created articles count"}},
			Count:  &count,
		}

	case errors.As(err, &unexpected):
		s.logger.WithError(unexpected.Err).WithField("op", unexpected.Op).Error("unexpected failure")
		status = http.StatusInternalServerError
		resp = errorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}

	default:
		s.logger.WithError(err).Error("unhandled error")
		status = http.StatusInternalServerError
		resp = errorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
	}

	s.writeJSON(w, status, resp)
}

// errInvalidJSON is returned by readJSON for a malformed body.
var errInvalidJSON = errors.New("invalid JSON")

func (s *Server) readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}

func (s *Server) writeBadRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "BAD_REQUEST"})
}

// queryParam returns nil when the parameter is absent.
func queryParam(r *http.Request, name string) *string {
	values, ok := r.URL.Query()[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func pathParam(r *http.Request, name string) *string {
	v := chi.URLParam(r, name)
	return &v
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.status,
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("http request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
