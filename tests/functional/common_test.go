package functional_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seopulse/shield/pkg/config"
	"github.com/seopulse/shield/pkg/detect"
	handlers "github.com/seopulse/shield/pkg/handlers/http"
	"github.com/seopulse/shield/pkg/infra/alerts"
	"github.com/seopulse/shield/pkg/infra/jwt"
	"github.com/seopulse/shield/pkg/infra/metrics"
	"github.com/seopulse/shield/pkg/middleware"
	"github.com/seopulse/shield/pkg/monitor"
	"github.com/seopulse/shield/pkg/sanitize"
	"github.com/seopulse/shield/pkg/server"
)

type harness struct {
	srv        *server.SecurityServer
	monitor    *monitor.Monitor
	adminToken string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Server: config.ServerConfig{
			AdminPort: 8081,
			SecretKey: "functional-test-secret",
		},
		Security: config.SecurityConfig{
			ExcludedPaths: []string{
				"body.content",
				"body.title",
				"body.description",
				"body.keyword",
				"body.primaryKeyword",
				"body.callToAction",
			},
			Headers: config.HeadersConfig{
				FrameDeny:          true,
				ContentTypeNosniff: true,
			},
		},
	}

	m := metrics.NewSecurityMetrics(prometheus.NewRegistry())
	threatMonitor := monitor.New(logger, alerts.NewNoopSink(), m, monitor.Config{})
	threatMonitor.Start()
	t.Cleanup(threatMonitor.Stop)

	jwtManager := jwt.NewJwtManager(&cfg.Server)
	adminToken, err := jwtManager.CreateToken()
	require.NoError(t, err)

	srv := server.NewSecurityServer(server.SecurityServerDI{
		Config: cfg,
		Logger: logger,
		MiddlewareTransport: middleware.Transport{
			AdminAuthMiddleware:       middleware.NewAdminAuthMiddleware(logger, jwtManager),
			PanicRecoverMiddleware:    middleware.NewPanicRecoverMiddleware(logger),
			SecurityHeadersMiddleware: middleware.NewSecurityHeadersMiddleware(logger, cfg.Security.Headers),
			PipelineMiddleware: middleware.NewPipelineMiddleware(
				logger,
				sanitize.New(),
				sanitize.Options{TrimWhitespace: true},
				detect.NewInjectionDetector(logger, cfg.Security.ExcludedPaths),
				detect.NewSuspiciousDetector(logger),
				threatMonitor,
				m,
				cfg.Security.ExcludedPaths,
			),
		},
		HandlerTransport: handlers.HandlerTransport{
			GetStatsHandler:  handlers.NewGetStatsHandler(logger, threatMonitor),
			CheckIPHandler:   handlers.NewCheckIPHandler(logger, threatMonitor),
			LogEventHandler:  handlers.NewLogEventHandler(logger, threatMonitor),
			CSPReportHandler: handlers.NewCSPReportHandler(logger, threatMonitor),
		},
	})
	srv.Setup()

	return &harness{srv: srv, monitor: threatMonitor, adminToken: adminToken}
}

func (h *harness) send(t *testing.T, method, target string, headers map[string]string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, target, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := h.srv.Router.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	payload := map[string]interface{}{}
	if len(respBytes) > 0 {
		assert.NoError(t, json.Unmarshal(respBytes, &payload))
	}
	return resp.StatusCode, payload
}

func (h *harness) adminHeaders(extra map[string]string) map[string]string {
	headers := map[string]string{"Authorization": "Bearer " + h.adminToken}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

func (h *harness) waitForEvents(t *testing.T, want int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.monitor.GetStats().RecentEventCount >= want
	}, time.Second, 10*time.Millisecond)
}
