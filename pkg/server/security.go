package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/config"
	handlers "github.com/seopulse/shield/pkg/handlers/http"
	"github.com/seopulse/shield/pkg/middleware"
)

type (
	SecurityServerDI struct {
		MiddlewareTransport middleware.Transport
		HandlerTransport    handlers.HandlerTransport
		Config              *config.Config
		Logger              *logrus.Logger
	}
	SecurityServer struct {
		*BaseServer
		middlewareTransport middleware.Transport
		handlerTransport    handlers.HandlerTransport
	}
)

func NewSecurityServer(di SecurityServerDI) *SecurityServer {
	return &SecurityServer{
		BaseServer:          NewBaseServer(di.Config, di.Logger),
		middlewareTransport: di.MiddlewareTransport,
		handlerTransport:    di.HandlerTransport,
	}
}

// Setup builds the middleware chain and routes without binding a listener.
func (s *SecurityServer) Setup() {
	s.setupRoutes()
	s.setupHealthCheck()
}

func (s *SecurityServer) Run() error {
	s.Setup()
	s.setupMetricsEndpoint()
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.AdminPort)
	s.Logger.WithField("addr", addr).Info("Starting security server")
	return s.Router.Listen(addr)
}

func (s *SecurityServer) setupRoutes() {
	s.Router.Use(s.middlewareTransport.PanicRecoverMiddleware.Middleware())
	s.Router.Use(s.middlewareTransport.SecurityHeadersMiddleware.Middleware())

	// Browser reports must always be answered 204 and routinely carry
	// strings like "script-src 'self'", so the reporting route is mounted
	// ahead of the detection pipeline.
	s.Router.Post("/security/csp-report", s.handlerTransport.CSPReportHandler.Handle)

	s.Router.Use(s.middlewareTransport.PipelineMiddleware.Middleware())

	baseRouter := s.Router.Group("")
	s.addRoutes(baseRouter)
}

func (s *SecurityServer) addRoutes(router fiber.Router) {
	security := router.Group("/security")
	{
		admin := security.Group("", s.middlewareTransport.AdminAuthMiddleware.Middleware())
		{
			admin.Get("/stats", s.handlerTransport.GetStatsHandler.Handle)
			admin.Get("/check-ip/:ip", s.handlerTransport.CheckIPHandler.Handle)
			admin.Post("/log-event", s.handlerTransport.LogEventHandler.Handle)
		}
	}
}

func (s *SecurityServer) Shutdown() error {
	return s.Router.Shutdown()
}
