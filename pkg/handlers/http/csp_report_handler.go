package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"

	"github.com/seopulse/shield/pkg/domain/events"
	"github.com/seopulse/shield/pkg/middleware"
	"github.com/seopulse/shield/pkg/monitor"
)

// cspReportHandler ingests browser Content-Security-Policy violation
// reports. Browsers retry nothing here, so the handler always answers
// 204 regardless of payload shape.
type cspReportHandler struct {
	logger  *logrus.Logger
	monitor *monitor.Monitor
	parsers fastjson.ParserPool
}

func NewCSPReportHandler(logger *logrus.Logger, m *monitor.Monitor) Handler {
	return &cspReportHandler{
		logger:  logger,
		monitor: m,
	}
}

func (h *cspReportHandler) Handle(c *fiber.Ctx) error {
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).Error("csp report processing failed")
		}
	}()

	ev := events.New(events.TypeCSPViolation, events.SeverityLow, "content security policy violation reported")
	ev.SourceIP = middleware.ClientIP(c)
	ev.UserAgent = c.Get(fiber.HeaderUserAgent)
	ev.Path = c.Path()
	ev.Method = c.Method()

	parser := h.parsers.Get()
	defer h.parsers.Put(parser)
	if v, err := parser.ParseBytes(c.Body()); err == nil {
		if report := v.Get("csp-report"); report != nil {
			ev.Metadata = map[string]interface{}{
				"document_uri":       string(report.GetStringBytes("document-uri")),
				"violated_directive": string(report.GetStringBytes("violated-directive")),
				"blocked_uri":        string(report.GetStringBytes("blocked-uri")),
			}
		}
	} else {
		h.logger.WithError(err).Debug("unparseable csp report payload")
	}

	h.monitor.Ingest(ev)

	return c.SendStatus(fiber.StatusNoContent)
}
