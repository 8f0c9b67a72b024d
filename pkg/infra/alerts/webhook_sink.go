package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/seopulse/shield/pkg/domain/events"
	"github.com/seopulse/shield/pkg/infra/metrics"
)

const defaultDeliveryTimeout = 5 * time.Second

// WebhookSink posts CRITICAL events as JSON to a configured endpoint.
// Delivery is fire-and-forget: each trigger runs on its own goroutine with
// its own timeout, and a circuit breaker stops hammering a failing
// transport. A slow or broken webhook never delays request handling.
type WebhookSink struct {
	logger  *logrus.Logger
	metrics *metrics.SecurityMetrics
	url     string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewWebhookSink(
	logger *logrus.Logger,
	m *metrics.SecurityMetrics,
	url string,
	timeout time.Duration,
) *WebhookSink {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "alert_webhook",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("alert webhook breaker state changed")
		},
	})
	return &WebhookSink{
		logger:  logger,
		metrics: m,
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

func (s *WebhookSink) Trigger(ctx context.Context, event *events.SecurityEvent) {
	go func() {
		if _, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.deliver(ctx, event)
		}); err != nil {
			s.metrics.AlertDeliveries.WithLabelValues("failed").Inc()
			s.logger.WithError(err).WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": event.Type,
			}).Error("failed to deliver security alert")
			return
		}
		s.metrics.AlertDeliveries.WithLabelValues("delivered").Inc()
	}()
}

func (s *WebhookSink) deliver(ctx context.Context, event *events.SecurityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	deliveryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(deliveryCtx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("alert webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}
