package detect

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/types"
)

// Match describes the first pattern hit found in a request payload. Value
// is truncated for logging; it is never echoed back to the client.
type Match struct {
	Path   string
	Reason string
	Value  string
}

const maxLoggedValueLength = 100

// InjectionDetector recursively walks the decoded body, query and params
// trees and tests every string leaf against the injection pattern table.
// Exact paths on the exclusion list carry generated prose that legitimately
// contains pattern-matching substrings and are skipped entirely.
type InjectionDetector struct {
	logger   *logrus.Logger
	excluded map[string]struct{}
}

func NewInjectionDetector(logger *logrus.Logger, excludedPaths []string) *InjectionDetector {
	excluded := make(map[string]struct{}, len(excludedPaths))
	for _, p := range excludedPaths {
		excluded[p] = struct{}{}
	}
	return &InjectionDetector{
		logger:   logger,
		excluded: excluded,
	}
}

// Scan returns the first match found, or nil when the payload is clean.
func (d *InjectionDetector) Scan(req *types.RequestContext) *Match {
	if m := d.scanValue("body", req.Body); m != nil {
		return m
	}
	if m := d.scanValue("query", mapToValue(req.Query)); m != nil {
		return m
	}
	return d.scanValue("params", mapToValue(req.Params))
}

func (d *InjectionDetector) scanValue(path string, v interface{}) *Match {
	if _, ok := d.excluded[path]; ok {
		return nil
	}

	switch val := v.(type) {
	case string:
		return d.scanString(path, val)
	case map[string]interface{}:
		for k, item := range val {
			if m := d.scanValue(path+"."+k, item); m != nil {
				return m
			}
		}
	case []interface{}:
		for i, item := range val {
			if m := d.scanValue(fmt.Sprintf("%s[%d]", path, i), item); m != nil {
				return m
			}
		}
	}
	return nil
}

func (d *InjectionDetector) scanString(path, value string) *Match {
	for _, p := range injectionPatterns {
		if p.re.MatchString(value) {
			truncated := value
			if len(truncated) > maxLoggedValueLength {
				truncated = truncated[:maxLoggedValueLength-3] + "..."
			}
			d.logger.WithFields(logrus.Fields{
				"path":   path,
				"reason": p.reason,
				"value":  truncated,
			}).Warn("injection pattern detected")
			return &Match{Path: path, Reason: p.reason, Value: truncated}
		}
	}
	return nil
}

// mapToValue widens a typed map so the walker handles body, query and
// params uniformly. A nil map stays nil rather than becoming a non-nil
// interface holding a nil map.
func mapToValue(m map[string]interface{}) interface{} {
	if m == nil {
		return nil
	}
	return map[string]interface{}(m)
}
