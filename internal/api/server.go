package api

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/multistream/internal/api/models"
	"github.com/smazurov/multistream/internal/events"
	"github.com/smazurov/multistream/internal/logging"
	"github.com/smazurov/multistream/internal/process"
	"github.com/smazurov/multistream/internal/version"
)

const realm = `Basic realm="multistream"`

// ChildSource provides the current view of supervised children.
type ChildSource interface {
	Snapshot() []process.Status
}

// Options configures the status server.
type Options struct {
	AuthUsername   string
	AuthPassword   string
	Children       ChildSource
	EventBus       *events.Bus
	Logs           *logging.Recent // Optional, enables /api/logs
	MetricsHandler http.Handler    // Optional, served at /metrics without auth
	Logger         *slog.Logger
}

// Server is the read-only status API of a running supervisor.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	handler    http.Handler
	httpServer *http.Server
	children   ChildSource
	eventBus   *events.Bus
	logs       *logging.Recent
	logger     *slog.Logger
}

// basicAuthMiddleware rejects requests to secured operations without valid
// credentials. EventSource clients cannot set headers, so the base64
// credentials are also accepted in the auth query parameter.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		encoded := ctx.Query("auth")
		if header := ctx.Header("Authorization"); header != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(header, prefix) {
				s.unauthorized(ctx, "Invalid authentication type")
				return
			}
			encoded = header[len(prefix):]
		}
		if encoded == "" {
			s.unauthorized(ctx, "Authentication required")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			s.unauthorized(ctx, "Invalid credentials format", err)
			return
		}
		user, pass, ok := strings.Cut(string(decoded), ":")
		if !ok {
			s.unauthorized(ctx, "Invalid credentials format")
			return
		}
		if subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
			s.unauthorized(ctx, "Invalid credentials")
			return
		}

		next(ctx)
	}
}

func (s *Server) unauthorized(ctx huma.Context, msg string, errs ...error) {
	ctx.SetHeader("WWW-Authenticate", realm)
	huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msg, errs...)
}

// NewServer creates the status API on a Go 1.22 ServeMux.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()

	config := huma.DefaultConfig("multistream", version.Version)
	config.Info.Description = "Status of the ffmpeg children run by a multistream supervisor"
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("api")
	}
	server := &Server{
		api:      api,
		mux:      mux,
		handler:  withCORSPreflight(mux, corsConfig),
		children: opts.Children,
		eventBus: opts.EventBus,
		logs:     opts.Logs,
		logger:   logger,
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(newLoggingMiddleware(logger))
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	server.registerRoutes()
	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on addr and serves until Stop. A failure to bind is
// returned immediately; serve errors after that are logged.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Status API listening", "addr", ln.Addr().String())
	s.logger.Debug("OpenAPI documentation available", "url", "http://"+ln.Addr().String()+"/docs")

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status API stopped", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down, closing open event streams after ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Debug("Stopping status API")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Supervisor liveness and running child count",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		statuses := s.snapshot()
		running := 0
		for _, st := range statuses {
			if st.State == process.StateRunning {
				running++
			}
		}
		return &models.HealthResponse{
			Body: models.HealthData{Status: "ok", Running: running, Children: len(statuses)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Build information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})

	s.registerChildRoutes()
	s.registerLogRoutes()
	s.registerSSERoutes()
}

func (s *Server) snapshot() []process.Status {
	if s.children == nil {
		return nil
	}
	return s.children.Snapshot()
}

// withAuth returns the security requirement for basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
