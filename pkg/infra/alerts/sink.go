package alerts

import (
	"context"

	"github.com/seopulse/shield/pkg/domain/events"
)

// Sink delivers CRITICAL events to an external notification transport.
// Trigger must never block the caller: implementations deliver on their own
// goroutine with their own timeout, and delivery failures are logged only.
//
//go:generate mockery --name=Sink --dir=. --output=../../../mocks --filename=alert_sink_mock.go --case=underscore --with-expecter
type Sink interface {
	Trigger(ctx context.Context, event *events.SecurityEvent)
}

// NoopSink discards alerts. Used when no alert transport is configured.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Trigger(_ context.Context, _ *events.SecurityEvent) {}
