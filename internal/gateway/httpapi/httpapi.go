// Package httpapi implements the HTTP API gateway for Sophia.
//
// Security:
//   - API key authentication on every /v1 request (constant-time comparison)
//   - Per-seeker rate limiting via token bucket
//   - All requests logged with correlation IDs
//   - TLS expected via reverse proxy (not handled here)
package httpapi

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/jkaninda/okapi"

	"github.com/sophia-platform/sophia/internal/engine"
	"github.com/sophia-platform/sophia/internal/observability"
	"github.com/sophia-platform/sophia/internal/ratelimit"
)

const defaultMaxRequestSize = 1 << 20 // 1 MB

// ErrorBody is the standard error response used in OpenAPI documentation.
type ErrorBody struct {
	Error string `json:"error"`
}

// Config configures the HTTP API gateway.
type Config struct {
	ListenAddr     string // e.g., ":8080"
	EnableDocs     bool
	APIKeys        map[string]string // API key → seeker ID mapping. Keys from env or config.
	MaxRequestSize int64             // Maximum request body in bytes. 0 = 1 MB default.

	// Observability
	MetricsRegistry *prometheus.Registry            // Custom Prometheus registry for /metrics.
	MetricsPath     string                          // Path for metrics endpoint. Default: "/metrics".
	HealthChecker   *observability.HealthChecker    // Health checker for /readyz endpoint.
	Metrics         *observability.MetricsCollector // Metrics collector for HTTP middleware.
	Tracer          trace.Tracer                    // OTel tracer for HTTP middleware.
}

// Gateway is the HTTP API gateway.
type Gateway struct {
	config  Config
	engine  engine.Engine
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	server  *http.Server

	// Extra handlers mounted on the HTTP mux (e.g., WebSocket meditation endpoint).
	extraRoutes []extraRoute

	okapi *okapi.Okapi
	group *okapi.Group
}

// extraRoute stores an additional handler to be mounted on the HTTP mux.
type extraRoute struct {
	pattern string
	handler http.Handler
}

// NewGateway creates an HTTP API gateway.
func NewGateway(cfg Config, eng engine.Engine, rl *ratelimit.Limiter, logger *slog.Logger) *Gateway {
	maxSize := cfg.MaxRequestSize
	if maxSize <= 0 {
		maxSize = defaultMaxRequestSize
	}
	return &Gateway{
		config:  cfg,
		engine:  eng,
		limiter: rl,
		logger:  logger,
		okapi:   okapi.New(okapi.WithMaxMultipartMemory(maxSize)),
	}
}

// WithHandler mounts an additional handler on the HTTP mux at the given
// pattern. Used for the WebSocket meditation endpoint.
func (g *Gateway) WithHandler(pattern string, handler http.Handler) *Gateway {
	g.extraRoutes = append(g.extraRoutes, extraRoute{pattern: pattern, handler: handler})
	return g
}

// WithOpenAPIDocs enables the generated OpenAPI documentation UI.
func (g *Gateway) WithOpenAPIDocs() *Gateway {
	g.okapi.WithOpenAPIDocs(
		okapi.OpenAPI{
			Title:   "Sophia",
			Version: "1.0.0",
		},
	)
	return g
}

// Start launches the HTTP server and blocks until it exits or ctx is canceled.
func (g *Gateway) Start(ctx context.Context) error {
	// Metrics/tracing middleware (applied globally).
	if g.config.Metrics != nil || g.config.Tracer != nil {
		g.okapi.UseMiddleware(func(next http.Handler) http.Handler {
			return observability.HTTPMetricsMiddleware(g.config.Metrics, g.config.Tracer, next)
		})
	}

	// Authenticated /v1 group.
	g.group = g.okapi.Group("/v1", g.authenticate)

	// Consciousness endpoints.
	g.group.Post("/consciousness/assess", g.handleAssess,
		okapi.DocSummary("Assess a seeker's consciousness state"),
		okapi.DocTags("Consciousness"),
		okapi.DocRequestBody(AssessRequest{}),
		okapi.DocResponse(AssessResponse{}),
		okapi.DocResponse(http.StatusUnauthorized, ErrorBody{}),
		okapi.DocResponse(http.StatusTooManyRequests, ErrorBody{}),
	)
	g.group.Get("/consciousness/levels", g.handleLevels,
		okapi.DocSummary("List consciousness levels with growth phase descriptions"),
		okapi.DocTags("Consciousness"),
		okapi.DocResponse(LevelsResponse{}),
	)

	// Guidance endpoints.
	g.group.Post("/guidance", g.handleGuidance,
		okapi.DocSummary("Receive spiritual guidance for a question"),
		okapi.DocTags("Guidance"),
		okapi.DocRequestBody(GuidanceRequest{}),
		okapi.DocResponse(GuidanceResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	g.group.Post("/guidance/daily", g.handleDailyGuidance,
		okapi.DocSummary("Receive the three-part daily guidance sequence"),
		okapi.DocTags("Guidance"),
		okapi.DocResponse(DailyGuidanceResponse{}),
	)
	g.group.Get("/insights", g.handleInsights,
		okapi.DocSummary("List guidance insights delivered to the seeker"),
		okapi.DocTags("Guidance"),
		okapi.DocResponse(InsightsResponse{}),
	)

	// Meditation endpoints.
	g.group.Post("/meditation", g.handleMeditation,
		okapi.DocSummary("Run a guided meditation session"),
		okapi.DocTags("Meditation"),
		okapi.DocRequestBody(MeditationRequest{}),
		okapi.DocResponse(MeditationResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	g.group.Get("/sessions", g.handleSessions,
		okapi.DocSummary("List the seeker's meditation sessions"),
		okapi.DocTags("Meditation"),
		okapi.DocResponse(SessionsResponse{}),
	)
	g.group.Get("/sessions/{id}", g.handleSession,
		okapi.DocSummary("Get a meditation session by ID"),
		okapi.DocTags("Meditation"),
		okapi.DocPathParam("id", "string", "Session ID"),
		okapi.DocResponse(SessionResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)

	// Purity endpoints.
	g.group.Post("/purity/scan", g.handleScan,
		okapi.DocSummary("Scan content for spiritual purity"),
		okapi.DocTags("Purity"),
		okapi.DocRequestBody(ScanRequest{}),
		okapi.DocResponse(ScanResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	g.group.Post("/purity/purify", g.handlePurify,
		okapi.DocSummary("Purify content flagged by the firewall"),
		okapi.DocTags("Purity"),
		okapi.DocRequestBody(PurifyRequest{}),
		okapi.DocResponse(PurifyResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)

	// Discovery endpoints.
	g.group.Get("/domains", g.handleDomains,
		okapi.DocSummary("List spiritual wisdom domains"),
		okapi.DocTags("Discovery"),
		okapi.DocResponse(DomainsResponse{}),
	)
	g.group.Get("/model/info", g.handleModelInfo,
		okapi.DocSummary("Get engine model information"),
		okapi.DocTags("Discovery"),
		okapi.DocResponse(ModelInfoResponse{}),
	)

	g.group.Get("/healthz", g.handleHealth,
		okapi.DocSummary("Authenticated health check"),
		okapi.DocTags("Health"),
		okapi.DocResponse(HealthResponse{}),
	)

	// Extra handlers (e.g., WebSocket meditation endpoint).
	for _, er := range g.extraRoutes {
		g.okapi.HandleStd("GET", er.pattern, er.handler.ServeHTTP)
	}

	// Observability endpoints (unauthenticated).
	g.okapi.Get("/healthz", g.handleLiveness)
	g.okapi.Get("/readyz", g.handleReadiness)

	if g.config.MetricsRegistry != nil {
		path := g.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		g.okapi.HandleStd("GET", path, promhttp.HandlerFor(g.config.MetricsRegistry, promhttp.HandlerOpts{}).ServeHTTP)
	}
	if g.config.EnableDocs {
		g.WithOpenAPIDocs()
	}

	g.server = &http.Server{
		Addr:              g.config.ListenAddr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g.logger.Info("http api gateway starting", slog.String("addr", g.config.ListenAddr))

	return g.okapi.StartServer(g.server)
}

// Stop gracefully shuts down the HTTP server.
func (g *Gateway) Stop(_ context.Context) error {
	if g.server == nil {
		return nil
	}
	g.logger.Info("http api gateway stopping")
	return g.okapi.Shutdown(g.server)
}

// HealthResponse is the JSON response for health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

func (g *Gateway) handleHealth(c *okapi.Context) error {
	return c.OK(&HealthResponse{Status: "ok"})
}

// handleLiveness is the Kubernetes liveness probe.
func (g *Gateway) handleLiveness(c *okapi.Context) error {
	return c.OK(&HealthResponse{Status: "ok"})
}

// handleReadiness checks all registered dependencies and returns 200 or 503.
func (g *Gateway) handleReadiness(c *okapi.Context) error {
	if g.config.HealthChecker == nil {
		return c.OK(&HealthResponse{Status: "ok"})
	}

	status := g.config.HealthChecker.CheckReady(c.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// --- Authentication ---

// authenticate validates the API key and stores the mapped seeker ID on
// the request context.
func (g *Gateway) authenticate(next okapi.HandlerFunc) okapi.HandlerFunc {
	return func(c *okapi.Context) error {
		authHeader := c.Header("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.AbortUnauthorized("missing or invalid Authorization header")
		}
		apiKey := strings.TrimPrefix(authHeader, "Bearer ")

		seekerID := ""
		for key, id := range g.config.APIKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
				seekerID = id
			}
		}
		if seekerID == "" {
			return c.AbortUnauthorized("invalid API key")
		}
		c.Set("seekerID", seekerID)
		return next(c)
	}
}

// rateLimit applies the per-seeker token bucket. Returns a non-nil error
// response when the seeker is over the limit.
func (g *Gateway) rateLimit(c *okapi.Context, seekerID string) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Allow(seekerID); err != nil {
		return c.AbortTooManyRequests("rate limit exceeded")
	}
	return nil
}

func newCorrelationID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
