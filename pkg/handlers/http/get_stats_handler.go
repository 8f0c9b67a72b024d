package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/monitor"
)

type getStatsHandler struct {
	logger  *logrus.Logger
	monitor *monitor.Monitor
}

func NewGetStatsHandler(logger *logrus.Logger, m *monitor.Monitor) Handler {
	return &getStatsHandler{
		logger:  logger,
		monitor: m,
	}
}

func (h *getStatsHandler) Handle(c *fiber.Ctx) error {
	stats := h.monitor.GetStats()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"suspiciousIPs":            stats.SuspiciousIPCount,
		"totalFailedLogins":        stats.TotalFailedLogins,
		"totalRateLimitViolations": stats.TotalRateLimitViolations,
		"recentEvents":             stats.RecentEventCount,
		"timestamp":                time.Now().UTC().Format(time.RFC3339),
	})
}
