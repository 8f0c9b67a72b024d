package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/domain/events"
	"github.com/seopulse/shield/pkg/middleware"
	"github.com/seopulse/shield/pkg/monitor"
)

type logEventRequest struct {
	Type     string                 `json:"type"`
	Severity string                 `json:"severity"`
	Message  string                 `json:"message"`
	UserID   string                 `json:"user_id"`
	Email    string                 `json:"email"`
	Metadata map[string]interface{} `json:"metadata"`
}

type logEventHandler struct {
	logger  *logrus.Logger
	monitor *monitor.Monitor
}

func NewLogEventHandler(logger *logrus.Logger, m *monitor.Monitor) Handler {
	return &logEventHandler{
		logger:  logger,
		monitor: m,
	}
}

// Handle accepts an externally observed security event, validates the
// enum fields and hands it to the threat monitor.
func (h *logEventHandler) Handle(c *fiber.Ctx) error {
	var req logEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if !events.ValidType(events.Type(req.Type)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown event type"})
	}
	if !events.ValidSeverity(events.Severity(req.Severity)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown severity"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message is required"})
	}

	ev := events.New(events.Type(req.Type), events.Severity(req.Severity), req.Message)
	ev.UserID = req.UserID
	ev.Email = req.Email
	ev.SourceIP = middleware.ClientIP(c)
	ev.UserAgent = c.Get(fiber.HeaderUserAgent)
	ev.Path = c.Path()
	ev.Method = c.Method()
	ev.Metadata = req.Metadata

	h.monitor.Ingest(ev)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"eventLogged": true,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
