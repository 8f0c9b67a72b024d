package alerts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seopulse/shield/pkg/domain/events"
	"github.com/seopulse/shield/pkg/infra/metrics"
)

func newSinkLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestWebhookSink_DeliversEventAsJSON(t *testing.T) {
	received := make(chan events.SecurityEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var ev events.SecurityEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		received <- ev
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(newSinkLogger(), metrics.NewSecurityMetrics(prometheus.NewRegistry()), srv.URL, time.Second)

	ev := events.New(events.TypeSuspiciousRequest, events.SeverityCritical, "injection attack campaign from 10.0.0.1")
	ev.SourceIP = "10.0.0.1"
	sink.Trigger(context.Background(), ev)

	select {
	case got := <-received:
		assert.Equal(t, ev.ID, got.ID)
		assert.Equal(t, events.SeverityCritical, got.Severity)
		assert.Equal(t, "10.0.0.1", got.SourceIP)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never received the alert")
	}
}

func TestWebhookSink_TriggerDoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	sink := NewWebhookSink(newSinkLogger(), metrics.NewSecurityMetrics(prometheus.NewRegistry()), srv.URL, 5*time.Second)

	start := time.Now()
	sink.Trigger(context.Background(), events.New(events.TypeSuspiciousRequest, events.SeverityCritical, "x"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWebhookSink_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewWebhookSink(newSinkLogger(), metrics.NewSecurityMetrics(prometheus.NewRegistry()), srv.URL, time.Second)

	for i := 0; i < 10; i++ {
		sink.Trigger(context.Background(), events.New(events.TypeSuspiciousRequest, events.SeverityCritical, "x"))
		// space the triggers out so the breaker sees consecutive failures
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		// breaker trips after five consecutive failures and stops calling out
		return calls.Load() == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebhookSink_CallerContextCancellationDoesNotAbortDelivery(t *testing.T) {
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(newSinkLogger(), metrics.NewSecurityMetrics(prometheus.NewRegistry()), srv.URL, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	sink.Trigger(ctx, events.New(events.TypeSuspiciousRequest, events.SeverityCritical, "x"))
	cancel()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery was aborted by caller cancellation")
	}
}
