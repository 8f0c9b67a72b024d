package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer_String(t *testing.T) {
	s := New()

	tests := []struct {
		name     string
		input    string
		opts     Options
		expected string
	}{
		{
			name:     "Encodes Special Characters",
			input:    `<b>"quoted" & 'single'</b>`,
			opts:     Options{},
			expected: "&lt;b&gt;&quot;quoted&quot; &amp; &#39;single&#39;&lt;/b&gt;",
		},
		{
			name:     "Strip Tags Removes Encoded Tags",
			input:    "<script>alert(1)</script>Hello",
			opts:     Options{StripTags: true},
			expected: "alert(1)Hello",
		},
		{
			name:     "Trim Whitespace",
			input:    "  padded  ",
			opts:     Options{TrimWhitespace: true},
			expected: "padded",
		},
		{
			name:     "Plain Text Unchanged",
			input:    "hello world",
			opts:     Options{},
			expected: "hello world",
		},
		{
			name:     "Already Encoded Entity Not Double Encoded",
			input:    "fish &amp; chips",
			opts:     Options{},
			expected: "fish &amp; chips",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.String(tt.input, tt.opts))
		})
	}
}

func TestSanitizer_String_TruncatesToMaxLength(t *testing.T) {
	s := New()

	out := s.String(strings.Repeat("a", 50), Options{MaxLength: 10})
	assert.Equal(t, strings.Repeat("a", 10), out)

	long := strings.Repeat("b", DefaultMaxLength+100)
	assert.Len(t, s.String(long, Options{}), DefaultMaxLength)
}

func TestSanitizer_String_Idempotent(t *testing.T) {
	s := New()

	inputs := []string{
		`1' OR '1'='1`,
		`<div onclick="x()">text</div>`,
		"plain prose with & ampersand",
		"already &lt;encoded&gt; input",
	}

	for _, input := range inputs {
		once := s.String(input, Options{})
		twice := s.String(once, Options{})
		assert.Equal(t, once, twice, "re-sanitizing %q must be stable", input)
	}
}

func TestSanitizer_String_AllowHTMLKeepsAllowlistedTags(t *testing.T) {
	s := New()

	out := s.String(`<p>keep <strong>this</strong></p><script>drop()</script>`, Options{AllowHTML: true})
	assert.Contains(t, out, "<p>")
	assert.Contains(t, out, "<strong>this</strong>")
	assert.NotContains(t, out, "<script>")

	out = s.String(`<a href="https://example.com" data-track="x" onclick="y()">link</a>`, Options{AllowHTML: true})
	assert.Contains(t, out, `href="https://example.com"`)
	assert.NotContains(t, out, "data-track")
	assert.NotContains(t, out, "onclick")
}

func TestSanitizer_Value_RecursesWithoutMutatingInput(t *testing.T) {
	s := New()

	input := map[string]interface{}{
		"title": "<b>bold</b>",
		"items": []interface{}{"<i>one</i>", 42, true},
		"nested": map[string]interface{}{
			"note": `say "hi"`,
		},
	}

	out, ok := s.Value(input, Options{}).(map[string]interface{})
	assert.True(t, ok)

	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", out["title"])
	items, ok := out["items"].([]interface{})
	assert.True(t, ok)
	assert.Equal(t, "&lt;i&gt;one&lt;/i&gt;", items[0])
	assert.Equal(t, 42, items[1])
	assert.Equal(t, true, items[2])

	nested, ok := out["nested"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "say &quot;hi&quot;", nested["note"])

	// original graph untouched
	assert.Equal(t, "<b>bold</b>", input["title"])
	assert.Equal(t, "<i>one</i>", input["items"].([]interface{})[0])
}

func TestSanitizer_Value_SanitizesMapKeys(t *testing.T) {
	s := New()

	input := map[string]interface{}{
		"<script>k</script>": "v",
	}

	out, ok := s.Value(input, Options{}).(map[string]interface{})
	assert.True(t, ok)

	_, raw := out["<script>k</script>"]
	assert.False(t, raw)
	assert.Equal(t, "v", out["k"])
}
