package middleware

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var proxyIPHeaders = []string{
	"X-Real-IP",
	"X-Forwarded-For",
	"True-Client-IP",
	"CF-Connecting-IP",
}

// ClientIP resolves the source address of a request, preferring validated
// proxy headers over the socket peer.
func ClientIP(c *fiber.Ctx) string {
	for _, header := range proxyIPHeaders {
		value := c.Get(header)
		if value == "" {
			continue
		}
		ips := strings.Split(value, ",")
		if len(ips) == 0 {
			continue
		}
		ip := strings.TrimSpace(ips[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	return strings.TrimSpace(c.IP())
}
