// Package server exposes the service over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/julianstephens/huddle/internal/constants"
	"github.com/julianstephens/huddle/internal/logger"
	"github.com/julianstephens/huddle/internal/service"
)

const apiPrefix = "/api/v1"

type Options struct {
	Addr        string
	TokenSecret string
	// TokenIssuer, when set, must match the iss claim of every token.
	TokenIssuer string
	CORSOrigins []string
	AccessLog   io.Writer
}

type Server struct {
	svc    *service.Service
	opts   Options
	router *mux.Router
}

func New(svc *service.Service, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = constants.DefaultAddr
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.AccessLog == nil {
		opts.AccessLog = logger.Writer()
	}
	s := &Server{svc: svc, opts: opts, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(recoveryMiddleware, localeMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix(apiPrefix).Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/me", s.handleGetMe).Methods(http.MethodGet)
	api.HandleFunc("/me", s.handleUpdateMe).Methods(http.MethodPatch)
	api.HandleFunc("/me/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)

	api.HandleFunc("/habits", s.handleListHabits).Methods(http.MethodGet)
	api.HandleFunc("/habits", s.handleAddHabit).Methods(http.MethodPost)
	api.HandleFunc("/habits/{id}", s.handleDeleteHabit).Methods(http.MethodDelete)
	api.HandleFunc("/habits/{id}/logs", s.handleListLogs).Methods(http.MethodGet)
	api.HandleFunc("/habits/{id}/logs", s.handleLogHabit).Methods(http.MethodPost)
	api.HandleFunc("/logs/{id}", s.handleEditLog).Methods(http.MethodPatch)
	api.HandleFunc("/logs/{id}", s.handleDeleteLog).Methods(http.MethodDelete)

	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/groups", s.handleListGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}", s.handleGetGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", s.handleUpdateGroup).Methods(http.MethodPatch)
	api.HandleFunc("/groups/{id}", s.handleDeleteGroup).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{id}/join", s.handleJoinGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/requests", s.handleRequestToJoin).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/requests", s.handleListRequests).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id}/{decision:accept|decline}", s.handleRespond).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/members/{userId}", s.handleRemoveMember).Methods(http.MethodDelete)

	api.HandleFunc("/groups/{id}/posts", s.handleListPosts).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/posts", s.handleAddPost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/interactions", s.handleReact).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/comments", s.handleComment).Methods(http.MethodPost)

	api.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", s.handleReadAll).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", s.handleRead).Methods(http.MethodPost)

	api.HandleFunc("/conversations", s.handleListConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}", s.handleGetConversation).Methods(http.MethodGet)
	api.HandleFunc("/messages", s.handleSendMessage).Methods(http.MethodPost)
}

// Handler returns the router wrapped with CORS and access logging.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.opts.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization", "Accept-Language"}),
	)
	return handlers.LoggingHandler(s.opts.AccessLog, cors(s.router))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		logger.Error("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": constants.Version})
}

// recoveryMiddleware turns a panicking handler into a 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered", "path", r.URL.Path, "panic", err)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
