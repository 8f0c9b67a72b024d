package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/common"
	"github.com/seopulse/shield/pkg/domain/events"
	"github.com/seopulse/shield/pkg/infra/alerts"
	"github.com/seopulse/shield/pkg/infra/metrics"
)

const (
	ReasonBruteForce      = "brute_force"
	ReasonScanning        = "scanning"
	ReasonInjectionAttack = "injection_attack"
)

const (
	defaultQueueSize           = 1024
	defaultSuspicionThreshold  = 20
	defaultBruteForceThreshold = 5
	defaultScanningThreshold   = 10
	defaultInjectionThreshold  = 3
)

type Config struct {
	RecentEventLimit    int           `mapstructure:"recent_event_limit"`
	AnalysisWindow      int           `mapstructure:"analysis_window"`
	Retention           time.Duration `mapstructure:"retention"`
	SuspicionWindow     time.Duration `mapstructure:"suspicion_window"`
	SuspicionThreshold  int           `mapstructure:"suspicion_threshold"`
	BruteForceThreshold int           `mapstructure:"brute_force_threshold"`
	ScanningThreshold   int           `mapstructure:"scanning_threshold"`
	InjectionThreshold  int           `mapstructure:"injection_threshold"`
	QueueSize           int           `mapstructure:"queue_size"`
}

func (c *Config) withDefaults() {
	if c.RecentEventLimit <= 0 {
		c.RecentEventLimit = common.RecentEventLimit
	}
	if c.AnalysisWindow <= 0 {
		c.AnalysisWindow = common.AnalysisWindow
	}
	if c.Retention <= 0 {
		c.Retention = common.RecordRetention
	}
	if c.SuspicionWindow <= 0 {
		c.SuspicionWindow = common.SuspicionWindow
	}
	if c.SuspicionThreshold <= 0 {
		c.SuspicionThreshold = defaultSuspicionThreshold
	}
	if c.BruteForceThreshold <= 0 {
		c.BruteForceThreshold = defaultBruteForceThreshold
	}
	if c.ScanningThreshold <= 0 {
		c.ScanningThreshold = defaultScanningThreshold
	}
	if c.InjectionThreshold <= 0 {
		c.InjectionThreshold = defaultInjectionThreshold
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
}

// Stats is the aggregate view served on the admin surface.
type Stats struct {
	SuspiciousIPCount        int   `json:"suspiciousIPs"`
	TotalFailedLogins        int64 `json:"totalFailedLogins"`
	TotalRateLimitViolations int64 `json:"totalRateLimitViolations"`
	RecentEventCount         int64 `json:"recentEvents"`
}

// Monitor is the stateful threat model. A single goroutine owns all three
// record families and processes events from a channel; queries run as
// synchronous request/response messages on the same goroutine, so the maps
// need no locking.
type Monitor struct {
	logger  *logrus.Logger
	sink    alerts.Sink
	metrics *metrics.SecurityMetrics
	cfg     Config

	now func() time.Time

	ingestCh chan *events.SecurityEvent
	actionCh chan func()
	stopCh   chan struct{}
	doneCh   chan struct{}

	ipActivity          map[string]*ipActivityRecord
	failedLogins        map[string]*failedLoginRecord
	rateLimitViolations map[string]*rateLimitRecord
}

func New(
	logger *logrus.Logger,
	sink alerts.Sink,
	m *metrics.SecurityMetrics,
	cfg Config,
) *Monitor {
	cfg.withDefaults()
	return &Monitor{
		logger:              logger,
		sink:                sink,
		metrics:             m,
		cfg:                 cfg,
		now:                 time.Now,
		ingestCh:            make(chan *events.SecurityEvent, cfg.QueueSize),
		actionCh:            make(chan func()),
		stopCh:              make(chan struct{}),
		doneCh:              make(chan struct{}),
		ipActivity:          make(map[string]*ipActivityRecord),
		failedLogins:        make(map[string]*failedLoginRecord),
		rateLimitViolations: make(map[string]*rateLimitRecord),
	}
}

// Start launches the owning goroutine.
func (m *Monitor) Start() {
	go m.loop()
}

// Stop drains queued events and terminates the owning goroutine.
func (m *Monitor) Stop() {
	close(m.stopCh)
	<-m.doneCh
}

func (m *Monitor) loop() {
	defer close(m.doneCh)
	for {
		select {
		case ev := <-m.ingestCh:
			m.process(ev)
		case fn := <-m.actionCh:
			fn()
		case <-m.stopCh:
			for {
				select {
				case ev := <-m.ingestCh:
					m.process(ev)
				default:
					return
				}
			}
		}
	}
}

// Ingest hands an event to the monitor. Events are processed to
// completion in arrival order; the call only blocks if the queue is full.
func (m *Monitor) Ingest(ev *events.SecurityEvent) {
	select {
	case m.ingestCh <- ev:
	case <-m.stopCh:
	}
}

// IsSuspiciousIP reports whether ip has recent activity above the
// suspicion threshold.
func (m *Monitor) IsSuspiciousIP(ip string) bool {
	var suspicious bool
	m.syncDo(func() {
		suspicious = m.isSuspicious(m.ipActivity[ip])
	})
	return suspicious
}

// GetStats aggregates the retained records.
func (m *Monitor) GetStats() Stats {
	var stats Stats
	m.syncDo(func() {
		stats = m.stats()
	})
	return stats
}

// Cleanup evicts every record whose last activity is older than the
// retention window. Invoked by the sweeper; safe at any time because it
// runs on the owning goroutine.
func (m *Monitor) Cleanup() {
	m.syncDo(func() {
		m.sweep()
	})
}

// syncDo runs fn on the owning goroutine and waits for it. After shutdown
// the loop is gone and nothing else touches the maps, so running inline is
// safe.
func (m *Monitor) syncDo(fn func()) {
	done := make(chan struct{})
	select {
	case m.actionCh <- func() {
		fn()
		close(done)
	}:
		<-done
	case <-m.stopCh:
		<-m.doneCh
		fn()
	}
}

// process is the ingestion pipeline. Internal failures are logged and
// swallowed: the monitor fails open and never breaks the request that
// produced the event.
func (m *Monitor) process(ev *events.SecurityEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithField("panic", r).Error("event processing failed")
		}
	}()

	m.logEvent(ev)
	m.metrics.EventsIngested.WithLabelValues(string(ev.Type), string(ev.Severity)).Inc()

	if ev.SourceIP != "" {
		m.track(ev)
		if !ev.Synthesized() {
			m.analyzePatterns(ev.SourceIP)
		}
		m.refreshSuspicionGauge()
	}

	if ev.Severity == events.SeverityCritical {
		m.sink.Trigger(context.Background(), ev)
	}
}

func (m *Monitor) track(ev *events.SecurityEvent) {
	now := m.now()

	rec, ok := m.ipActivity[ev.SourceIP]
	if !ok {
		rec = &ipActivityRecord{recent: newEventRing(m.cfg.RecentEventLimit)}
		m.ipActivity[ev.SourceIP] = rec
	}
	rec.eventCount++
	rec.lastSeen = now
	// synthesized events stay out of the analysis window so pattern
	// analysis cannot feed itself
	if !ev.Synthesized() {
		rec.recent.push(ev.Type)
	}

	switch ev.Type {
	case events.TypeLoginFailure:
		key := ev.SourceIP + "|" + loginIdentity(ev)
		login, ok := m.failedLogins[key]
		if !ok {
			login = &failedLoginRecord{}
			m.failedLogins[key] = login
		}
		login.count++
		login.lastAttempt = now
	case events.TypeRateLimitExceeded:
		violation, ok := m.rateLimitViolations[ev.SourceIP]
		if !ok {
			violation = &rateLimitRecord{}
			m.rateLimitViolations[ev.SourceIP] = violation
		}
		violation.count++
		violation.lastViolation = now
	}
}

// analyzePatterns inspects the tail of the per-IP window and escalates
// repeated low-level events into attack classifications. Thresholds are
// re-evaluated on every ingest, so a classification may fire repeatedly
// while the window stays above a threshold.
func (m *Monitor) analyzePatterns(ip string) {
	rec, ok := m.ipActivity[ip]
	if !ok {
		return
	}

	counts := make(map[events.Type]int)
	for _, t := range rec.recent.lastN(m.cfg.AnalysisWindow) {
		counts[t]++
	}

	if counts[events.TypeLoginFailure] >= m.cfg.BruteForceThreshold {
		m.synthesize(ip, ReasonBruteForce, events.SeverityHigh,
			fmt.Sprintf("repeated login failures from %s", ip))
	}
	if counts[events.TypeUnauthorizedAccess] >= m.cfg.ScanningThreshold {
		m.synthesize(ip, ReasonScanning, events.SeverityHigh,
			fmt.Sprintf("access scanning behavior from %s", ip))
	}
	if counts[events.TypeSQLInjectionAttempt]+counts[events.TypeXSSAttempt] >= m.cfg.InjectionThreshold {
		m.synthesize(ip, ReasonInjectionAttack, events.SeverityCritical,
			fmt.Sprintf("injection attack campaign from %s", ip))
	}
}

func (m *Monitor) synthesize(ip, reason string, severity events.Severity, message string) {
	ev := events.New(events.TypeSuspiciousRequest, severity, message)
	ev.SourceIP = ip
	ev.MarkSynthesized(reason)

	m.metrics.AttacksSynthesized.WithLabelValues(reason).Inc()
	m.process(ev)
}

func (m *Monitor) isSuspicious(rec *ipActivityRecord) bool {
	if rec == nil {
		return false
	}
	return m.now().Sub(rec.lastSeen) < m.cfg.SuspicionWindow &&
		rec.eventCount > int64(m.cfg.SuspicionThreshold)
}

func (m *Monitor) stats() Stats {
	var stats Stats
	for _, rec := range m.ipActivity {
		if m.isSuspicious(rec) {
			stats.SuspiciousIPCount++
		}
		if m.now().Sub(rec.lastSeen) < m.cfg.SuspicionWindow {
			stats.RecentEventCount += rec.eventCount
		}
	}
	for _, rec := range m.failedLogins {
		stats.TotalFailedLogins += rec.count
	}
	for _, rec := range m.rateLimitViolations {
		stats.TotalRateLimitViolations += rec.count
	}
	return stats
}

// refreshSuspicionGauge recomputes the suspicious-IP gauge. Called after
// every tracked ingest and after each sweep so the exported value does not
// depend on anyone polling the stats endpoint.
func (m *Monitor) refreshSuspicionGauge() {
	var suspicious int
	for _, rec := range m.ipActivity {
		if m.isSuspicious(rec) {
			suspicious++
		}
	}
	m.metrics.SuspiciousIPs.Set(float64(suspicious))
}

func (m *Monitor) sweep() {
	cutoff := m.now().Add(-m.cfg.Retention)
	var evicted int

	for ip, rec := range m.ipActivity {
		if rec.lastSeen.Before(cutoff) {
			delete(m.ipActivity, ip)
			evicted++
		}
	}
	for key, rec := range m.failedLogins {
		if rec.lastAttempt.Before(cutoff) {
			delete(m.failedLogins, key)
			evicted++
		}
	}
	for ip, rec := range m.rateLimitViolations {
		if rec.lastViolation.Before(cutoff) {
			delete(m.rateLimitViolations, ip)
			evicted++
		}
	}

	m.refreshSuspicionGauge()

	m.logger.WithFields(logrus.Fields{
		"evicted":              evicted,
		"ip_records":           len(m.ipActivity),
		"failed_login_records": len(m.failedLogins),
		"rate_limit_records":   len(m.rateLimitViolations),
	}).Info("threat monitor cleanup completed")
}

func (m *Monitor) logEvent(ev *events.SecurityEvent) {
	entry := m.logger.WithFields(logrus.Fields{
		"event_id":  ev.ID,
		"type":      ev.Type,
		"severity":  ev.Severity,
		"source_ip": ev.SourceIP,
		"path":      ev.Path,
		"method":    ev.Method,
	})
	if ev.UserID != "" {
		entry = entry.WithField("user_id", ev.UserID)
	}
	if len(ev.Metadata) > 0 {
		entry = entry.WithField("metadata", ev.Metadata)
	}

	switch ev.Severity {
	case events.SeverityCritical:
		entry.Error(ev.Message)
	case events.SeverityHigh:
		entry.Warn(ev.Message)
	default:
		entry.Info(ev.Message)
	}
}

func loginIdentity(ev *events.SecurityEvent) string {
	if ev.Email != "" {
		return ev.Email
	}
	if ev.UserID != "" {
		return ev.UserID
	}
	return "unknown"
}
