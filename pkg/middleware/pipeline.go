package middleware

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/common"
	"github.com/seopulse/shield/pkg/detect"
	"github.com/seopulse/shield/pkg/domain/events"
	"github.com/seopulse/shield/pkg/infra/metrics"
	"github.com/seopulse/shield/pkg/monitor"
	"github.com/seopulse/shield/pkg/sanitize"
	"github.com/seopulse/shield/pkg/types"
	"github.com/seopulse/shield/pkg/utils"
)

const rejectionMessage = "Invalid input detected"

// pipelineMiddleware runs every inbound request through the security
// pipeline: decode, detect, sanitize. A detector match rejects the request
// before business logic (fail-closed); any internal failure is logged and
// the request continues (fail-open).
type pipelineMiddleware struct {
	logger        *logrus.Logger
	sanitizer     *sanitize.Sanitizer
	sanitizeOpts  sanitize.Options
	injection     *detect.InjectionDetector
	suspicious    *detect.SuspiciousDetector
	threatMonitor *monitor.Monitor
	metrics       *metrics.SecurityMetrics
	excluded      map[string]struct{}
}

func NewPipelineMiddleware(
	logger *logrus.Logger,
	sanitizer *sanitize.Sanitizer,
	sanitizeOpts sanitize.Options,
	injection *detect.InjectionDetector,
	suspicious *detect.SuspiciousDetector,
	threatMonitor *monitor.Monitor,
	m *metrics.SecurityMetrics,
	excludedPaths []string,
) Middleware {
	excluded := make(map[string]struct{}, len(excludedPaths))
	for _, p := range excludedPaths {
		excluded[p] = struct{}{}
	}
	return &pipelineMiddleware{
		logger:        logger,
		sanitizer:     sanitizer,
		sanitizeOpts:  sanitizeOpts,
		injection:     injection,
		suspicious:    suspicious,
		threatMonitor: threatMonitor,
		metrics:       m,
		excluded:      excluded,
	}
}

func (m *pipelineMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := m.buildRequestContext(c)
		c.Locals(string(common.ClientIPContextKey), req.SourceIP)

		if match := m.scan("injection", func() *detect.Match { return m.injection.Scan(req) }); match != nil {
			m.reportThreat(req, events.TypeSQLInjectionAttempt, events.SeverityHigh, match)
			return m.reject(c, invalidInput(match))
		}

		if match := m.scan("suspicious", func() *detect.Match { return m.suspicious.Scan(req) }); match != nil {
			m.reportThreat(req, events.TypeSuspiciousRequest, events.SeverityMedium, match)
			return m.reject(c, invalidInput(match))
		}

		c.Locals(string(common.SanitizedBodyContextKey), m.sanitizeTree("body", req.Body))
		c.Locals(string(common.SanitizedQueryContextKey), m.sanitizeTree("query", req.Query))
		c.Locals(string(common.SanitizedParamsContextKey), m.sanitizeTree("params", req.Params))

		return c.Next()
	}
}

func (m *pipelineMiddleware) buildRequestContext(c *fiber.Ctx) *types.RequestContext {
	req := &types.RequestContext{
		Method:      c.Method(),
		Path:        c.Path(),
		OriginalURL: c.OriginalURL(),
		Headers:     c.GetReqHeaders(),
		SourceIP:    ClientIP(c),
		UserAgent:   c.Get(fiber.HeaderUserAgent),
		RawBody:     c.Body(),
	}

	if len(req.RawBody) > 0 {
		var decoded interface{}
		if err := json.Unmarshal(req.RawBody, &decoded); err == nil {
			req.Body = decoded
		} else {
			// non-JSON payloads are scanned as a single string leaf
			req.Body = string(req.RawBody)
		}
	}

	query := make(map[string]interface{})
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k, v := string(key), string(value)
		switch existing := query[k].(type) {
		case nil:
			query[k] = v
		case []interface{}:
			query[k] = append(existing, v)
		default:
			query[k] = []interface{}{existing, v}
		}
	})
	if len(query) > 0 {
		req.Query = query
	}

	if allParams := c.AllParams(); len(allParams) > 0 {
		params := make(map[string]interface{}, len(allParams))
		for k, v := range allParams {
			params[k] = v
		}
		req.Params = params
	}

	if user, ok := c.Locals(string(common.AuthenticatedUserContextKey)).(*types.AuthenticatedUser); ok {
		req.User = user
	}

	return req
}

// scan shields the request from detector-internal failures: a panic is
// logged and treated as no match.
func (m *pipelineMiddleware) scan(name string, fn func() *detect.Match) (match *detect.Match) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithFields(logrus.Fields{
				"detector": name,
				"panic":    r,
			}).Error("detector failed, continuing without match")
			match = nil
		}
	}()
	return fn()
}

func (m *pipelineMiddleware) reportThreat(
	req *types.RequestContext,
	eventType events.Type,
	severity events.Severity,
	match *detect.Match,
) {
	m.metrics.RequestsBlocked.WithLabelValues(match.Reason).Inc()

	ev := events.New(eventType, severity, fmt.Sprintf("%s pattern at %s", match.Reason, match.Path))
	ev.SourceIP = req.SourceIP
	ev.UserAgent = req.UserAgent
	ev.Path = req.Path
	ev.Method = req.Method
	ev.Metadata = map[string]interface{}{
		"reason":     match.Reason,
		"match_path": match.Path,
	}
	if req.User != nil {
		ev.UserID = req.User.ID
		ev.Email = req.User.Email
	}
	if client := utils.ParseUserAgent(req.UserAgent); client != nil {
		ev.Metadata["client_device"] = client.Device
		ev.Metadata["client_os"] = client.OS
		ev.Metadata["client_browser"] = client.Browser
	}

	m.threatMonitor.Ingest(ev)
}

// invalidInput wraps a detector match in the pipeline's rejection error.
// The match detail stays server-side; clients only see the generic code.
func invalidInput(match *detect.Match) *types.PipelineError {
	return &types.PipelineError{
		StatusCode: fiber.StatusBadRequest,
		Code:       "INVALID_INPUT",
		Message:    rejectionMessage,
		Err:        fmt.Errorf("%s pattern at %s", match.Reason, match.Path),
	}
}

func (m *pipelineMiddleware) reject(c *fiber.Ctx, perr *types.PipelineError) error {
	return c.Status(perr.StatusCode).JSON(fiber.Map{
		"code":  perr.Code,
		"error": perr.Message,
	})
}

// sanitizeTree cleans a decoded payload tree while honoring the excluded
// paths, which carry prose that must reach business logic untouched.
func (m *pipelineMiddleware) sanitizeTree(path string, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if len(m.excluded) == 0 {
		return m.sanitizer.Value(v, m.sanitizeOpts)
	}
	if _, ok := m.excluded[path]; ok {
		return v
	}

	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			cleanKey := m.sanitizer.String(k, sanitize.Options{StripTags: true, MaxLength: 100})
			out[cleanKey] = m.sanitizeTree(path+"."+k, item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = m.sanitizeTree(fmt.Sprintf("%s[%d]", path, i), item)
		}
		return out
	case string:
		return m.sanitizer.String(val, m.sanitizeOpts)
	default:
		return v
	}
}
