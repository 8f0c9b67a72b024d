package detect

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/seopulse/shield/pkg/types"
)

func newTestSuspiciousDetector() *SuspiciousDetector {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewSuspiciousDetector(logger)
}

func TestSuspiciousDetector_Scan(t *testing.T) {
	detector := newTestSuspiciousDetector()

	tests := []struct {
		name         string
		req          *types.RequestContext
		expectMatch  bool
		expectReason string
	}{
		{
			name: "Directory Traversal In URL",
			req: &types.RequestContext{
				OriginalURL: "/api/files?path=../../etc/passwd",
			},
			expectMatch:  true,
			expectReason: ReasonPathTraversal,
		},
		{
			name: "Script Tag In Body",
			req: &types.RequestContext{
				OriginalURL: "/api/posts",
				Body:        map[string]interface{}{"bio": "<script>steal()</script>"},
			},
			expectMatch:  true,
			expectReason: ReasonScriptTag,
		},
		{
			name: "Union Select In Query",
			req: &types.RequestContext{
				OriginalURL: "/api/search",
				Query:       map[string]interface{}{"q": "x union select password from users"},
			},
			expectMatch:  true,
			expectReason: ReasonUnionSelect,
		},
		{
			name: "Code Execution Signature",
			req: &types.RequestContext{
				OriginalURL: "/api/run",
				Body:        map[string]interface{}{"cmd": "exec('rm -rf /')"},
			},
			expectMatch:  true,
			expectReason: ReasonCodeExecution,
		},
		{
			name: "No Exclusion List For Serialized Payload",
			req: &types.RequestContext{
				OriginalURL: "/api/articles",
				Body:        map[string]interface{}{"content": "<script>x</script>"},
			},
			expectMatch:  true,
			expectReason: ReasonScriptTag,
		},
		{
			name: "Clean Request",
			req: &types.RequestContext{
				OriginalURL: "/api/articles/42",
				Body:        map[string]interface{}{"title": "How to rank for long-tail keywords"},
			},
			expectMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := detector.Scan(tt.req)
			if !tt.expectMatch {
				assert.Nil(t, match)
				return
			}
			if assert.NotNil(t, match) {
				assert.Equal(t, tt.expectReason, match.Reason)
			}
		})
	}
}

func TestSerialize_KeepsMarkupLiteral(t *testing.T) {
	out := string(serialize(map[string]interface{}{"bio": "<script>steal()</script>"}))
	assert.Contains(t, out, "<script>")
	assert.NotContains(t, out, `<`)
}
