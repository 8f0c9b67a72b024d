package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeLoginSuccess         Type = "LOGIN_SUCCESS"
	TypeLoginFailure         Type = "LOGIN_FAILURE"
	TypeRateLimitExceeded    Type = "RATE_LIMIT_EXCEEDED"
	TypeSuspiciousRequest    Type = "SUSPICIOUS_REQUEST"
	TypeSQLInjectionAttempt  Type = "SQL_INJECTION_ATTEMPT"
	TypeXSSAttempt           Type = "XSS_ATTEMPT"
	TypeUnauthorizedAccess   Type = "UNAUTHORIZED_ACCESS"
	TypePasswordResetRequest Type = "PASSWORD_RESET_REQUEST"
	TypeAccountLockout       Type = "ACCOUNT_LOCKOUT"
	TypeCSPViolation         Type = "CSP_VIOLATION"
	TypeCORSViolation        Type = "CORS_VIOLATION"
	TypeFileUploadViolation  Type = "FILE_UPLOAD_VIOLATION"
	TypeSessionHijackAttempt Type = "SESSION_HIJACK_ATTEMPT"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var validTypes = map[Type]struct{}{
	TypeLoginSuccess:         {},
	TypeLoginFailure:         {},
	TypeRateLimitExceeded:    {},
	TypeSuspiciousRequest:    {},
	TypeSQLInjectionAttempt:  {},
	TypeXSSAttempt:           {},
	TypeUnauthorizedAccess:   {},
	TypePasswordResetRequest: {},
	TypeAccountLockout:       {},
	TypeCSPViolation:         {},
	TypeCORSViolation:        {},
	TypeFileUploadViolation:  {},
	TypeSessionHijackAttempt: {},
}

var validSeverities = map[Severity]struct{}{
	SeverityLow:      {},
	SeverityMedium:   {},
	SeverityHigh:     {},
	SeverityCritical: {},
}

func ValidType(t Type) bool {
	_, ok := validTypes[t]
	return ok
}

func ValidSeverity(s Severity) bool {
	_, ok := validSeverities[s]
	return ok
}

// SecurityEvent is an immutable record of one observed security-relevant
// occurrence. It is created at the point of detection and consumed once by
// the threat monitor; it is never persisted.
type SecurityEvent struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Severity  Severity               `json:"severity"`
	Message   string                 `json:"message"`
	UserID    string                 `json:"user_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	SourceIP  string                 `json:"source_ip"`
	UserAgent string                 `json:"user_agent,omitempty"`
	Path      string                 `json:"path,omitempty"`
	Method    string                 `json:"method,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// New builds a SecurityEvent stamped with a fresh ID and the current time.
func New(t Type, severity Severity, message string) *SecurityEvent {
	return &SecurityEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
	}
}

const synthesizedMetadataKey = "synthesized"

// Synthesized reports whether the event was produced by pattern analysis
// rather than observed directly at a detection point.
func (e *SecurityEvent) Synthesized() bool {
	if e.Metadata == nil {
		return false
	}
	v, ok := e.Metadata[synthesizedMetadataKey].(bool)
	return ok && v
}

// MarkSynthesized tags the event so the monitor can keep it out of the
// per-source analysis window.
func (e *SecurityEvent) MarkSynthesized(reason string) *SecurityEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[synthesizedMetadataKey] = true
	e.Metadata["reason"] = reason
	return e
}
