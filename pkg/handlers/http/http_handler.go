package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Admin
	GetStatsHandler Handler
	CheckIPHandler  Handler
	LogEventHandler Handler

	// Browser reporting
	CSPReportHandler Handler
}
