// Package ws serves the database browse protocol over websockets, with a
// plain HTTP endpoint for one-shot commands.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/leapstack-labs/dbbridge/pkg/manager"
	"github.com/leapstack-labs/dbbridge/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// Server is the websocket and HTTP front-end of one plugin.
type Server struct {
	plugin  *protocol.Plugin
	manager *manager.Manager
	cfg     Config
	logger  *slog.Logger

	upgrader websocket.Upgrader

	// commands serves POST /commands. It is connected once, on first use.
	commands    *protocol.Router
	commandsOne sync.Once
}

// Config holds configuration for the server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	ReadLimit      int64
	PingPeriod     time.Duration

	// WatchDirs are re-scanned into a fresh registry when database files
	// appear or disappear.
	WatchDirs []string

	Logger *slog.Logger
}

// NewServer creates a server for plugin. m is the manager the plugin was
// built on and is re-initialized by directory watches.
func NewServer(plugin *protocol.Plugin, m *manager.Manager, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		plugin:   plugin,
		manager:  m,
		cfg:      cfg,
		logger:   cfg.Logger,
		commands: protocol.NewRouter(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin accepts configured origins, or any origin when "*" is
// configured. Without configuration the same-host default applies.
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	}
	if slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, r.Header.Get("Origin"))
}

// Handler returns the HTTP routes. ctx bounds every session and command.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
	)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.handleWebSocket(ctx, w, r)
	})
	r.Post("/commands/{method}", func(w http.ResponseWriter, r *http.Request) {
		s.handleCommand(ctx, w, r)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.logger.Info("starting server", "addr", ln.Addr().String(), "plugin", s.plugin.ID())

	srv := &http.Server{
		Handler: s.Handler(egctx),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if len(s.cfg.WatchDirs) > 0 {
		eg.Go(func() error {
			return s.watchDirs(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

type health struct {
	Status    string `json:"status"`
	Databases int    `json:"databases"`
	Epoch     uint64 `json:"epoch"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, health{
		Status:    "ok",
		Databases: len(s.manager.Databases()),
		Epoch:     s.manager.Epoch(),
	})
}

func (s *Server) handleWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sess := newSession(conn, s.logger, s.cfg.ReadLimit, s.cfg.PingPeriod)
	s.logger.Info("client connected", "session", sess.id, "remote", r.RemoteAddr,
		"request_id", middleware.GetReqID(r.Context()))

	s.plugin.OnConnect(ctx, sess.router)
	sess.run(ctx)
	s.plugin.OnDisconnect()

	s.logger.Info("client disconnected", "session", sess.id)
}

// handleCommand runs one command on the shared HTTP connection. The body,
// when present, is the params object.
func (s *Server) handleCommand(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	s.commandsOne.Do(func() {
		s.plugin.OnConnect(ctx, s.commands)
	})

	method := chi.URLParam(r, "method")
	params := protocol.Params{}

	body := io.LimitReader(r.Body, s.readLimit())
	if err := json.NewDecoder(body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, Response{Error: protocol.NewInvalidRequestError()})
		return
	}

	res, err := s.commands.Call(r.Context(), method, params)
	if err != nil {
		s.logger.Error("command failed", "method", method, "error", err,
			"request_id", middleware.GetReqID(r.Context()))
	}
	resp := newResponse(nil, res, err)
	writeJSON(w, statusFor(resp), resp)
}

func (s *Server) readLimit() int64 {
	if s.cfg.ReadLimit > 0 {
		return s.cfg.ReadLimit
	}
	return 1 << 20
}

// statusFor maps a response to an HTTP status.
func statusFor(resp Response) int {
	switch {
	case resp.Fault != "":
		return http.StatusInternalServerError
	case resp.Error == nil:
		return http.StatusOK
	}
	switch resp.Error.Code {
	case protocol.CodeInvalidRequest:
		return http.StatusBadRequest
	case protocol.CodeInvalidDatabase:
		return http.StatusNotFound
	case protocol.CodeSQLExecution:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusNotImplemented
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
