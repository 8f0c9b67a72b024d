package middleware

import "github.com/gofiber/fiber/v2"

type Middleware interface {
	Middleware() fiber.Handler
}

type Transport struct {
	AdminAuthMiddleware       Middleware
	PanicRecoverMiddleware    Middleware
	SecurityHeadersMiddleware Middleware
	PipelineMiddleware        Middleware
}
