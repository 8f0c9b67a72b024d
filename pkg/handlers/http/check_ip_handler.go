package http

import (
	"net"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/monitor"
)

// dotted-quad only; the monitor keys records by the textual form proxies
// put in forwarding headers
var ipv4Pattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

type checkIPHandler struct {
	logger  *logrus.Logger
	monitor *monitor.Monitor
}

func NewCheckIPHandler(logger *logrus.Logger, m *monitor.Monitor) Handler {
	return &checkIPHandler{
		logger:  logger,
		monitor: m,
	}
}

func (h *checkIPHandler) Handle(c *fiber.Ctx) error {
	ip := c.Params("ip")
	if !ipv4Pattern.MatchString(ip) || net.ParseIP(ip) == nil {
		h.logger.WithField("ip", ip).Debug("rejected malformed IP in suspicion check")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid IP address"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ip":         ip,
		"suspicious": h.monitor.IsSuspiciousIP(ip),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
