package detect

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/types"
)

// SuspiciousDetector tests the full request URL plus the JSON-serialized
// body and query against coarse attack signatures. Unlike the injection
// detector it operates on the whole serialized payload, so the per-path
// exclusion list does not apply.
type SuspiciousDetector struct {
	logger *logrus.Logger
}

func NewSuspiciousDetector(logger *logrus.Logger) *SuspiciousDetector {
	return &SuspiciousDetector{logger: logger}
}

// serialize flattens a decoded payload back to JSON for signature matching.
// The encoder keeps < > & literal; the default HTML escaping would rewrite
// them to < style sequences and hide markup like <script> from the
// signatures.
func serialize(v interface{}) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil
	}
	return buf.Bytes()
}

// Scan returns the first signature hit, or nil when the request looks clean.
func (d *SuspiciousDetector) Scan(req *types.RequestContext) *Match {
	var sb strings.Builder
	sb.WriteString(req.OriginalURL)

	if req.Body != nil {
		sb.Write(serialize(req.Body))
	}
	if req.Query != nil {
		sb.Write(serialize(req.Query))
	}

	target := sb.String()
	for _, p := range suspiciousPatterns {
		if loc := p.re.FindStringIndex(target); loc != nil {
			matched := target[loc[0]:loc[1]]
			d.logger.WithFields(logrus.Fields{
				"reason": p.reason,
				"url":    req.OriginalURL,
				"match":  matched,
			}).Warn("suspicious request signature detected")
			return &Match{Path: "request", Reason: p.reason, Value: matched}
		}
	}
	return nil
}
