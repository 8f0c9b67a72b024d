package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/config"
)

type securityHeadersMiddleware struct {
	logger *logrus.Logger
	cfg    config.HeadersConfig
}

func NewSecurityHeadersMiddleware(
	logger *logrus.Logger,
	cfg config.HeadersConfig,
) Middleware {
	return &securityHeadersMiddleware{
		logger: logger,
		cfg:    cfg,
	}
}

func (m *securityHeadersMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Strict-Transport-Security
		if m.cfg.STSSeconds > 0 && c.Protocol() == "https" {
			h := "max-age=" + strconv.Itoa(m.cfg.STSSeconds)
			if m.cfg.STSIncludeSubdomains {
				h += "; includeSubDomains"
			}
			c.Set("Strict-Transport-Security", h)
		}

		// X-Frame-Options
		if m.cfg.FrameDeny {
			c.Set("X-Frame-Options", "DENY")
		}

		// X-Content-Type-Options
		if m.cfg.ContentTypeNosniff {
			c.Set("X-Content-Type-Options", "nosniff")
		}

		// X-XSS-Protection
		if m.cfg.BrowserXSSFilter {
			c.Set("X-XSS-Protection", "1; mode=block")
		}

		// Referrer-Policy
		if m.cfg.ReferrerPolicy != "" {
			c.Set("Referrer-Policy", m.cfg.ReferrerPolicy)
		}

		// Content-Security-Policy
		if m.cfg.ContentSecurityPolicy != "" {
			c.Set("Content-Security-Policy", m.cfg.ContentSecurityPolicy)
		}

		return c.Next()
	}
}
