package sanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultMaxLength = 10000
	keyMaxLength     = 100
)

// Options controls how a value is cleaned. The zero value encodes HTML
// entities and truncates at DefaultMaxLength.
type Options struct {
	AllowHTML      bool `mapstructure:"allow_html"`
	StripTags      bool `mapstructure:"strip_tags"`
	MaxLength      int  `mapstructure:"max_length"`
	TrimWhitespace bool `mapstructure:"trim_whitespace"`
}

var keyOptions = Options{StripTags: true, MaxLength: keyMaxLength}

// encodedTagPattern matches a tag-like substring after entity encoding,
// e.g. "&lt;script&gt;".
var encodedTagPattern = regexp.MustCompile(`&lt;.*?&gt;`)

// knownEntityPattern matches an already-encoded entity at the start of the
// input so re-sanitizing does not double-encode ampersands.
var knownEntityPattern = regexp.MustCompile(`^&(amp|lt|gt|quot|#39);`)

// Sanitizer cleans strings and nested payload trees. It is safe for
// concurrent use; the HTML policy is built once at construction.
type Sanitizer struct {
	htmlPolicy *bluemonday.Policy
}

func New() *Sanitizer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements(
		"p", "br", "strong", "em", "u",
		"ol", "ul", "li",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"a",
	)
	policy.AllowAttrs("href", "target", "rel").OnElements("a")
	return &Sanitizer{htmlPolicy: policy}
}

// Value returns a cleaned copy of v. The input graph is never mutated:
// maps and slices are rebuilt, strings are cleaned per opts, and every
// other type is returned unchanged. Map keys are cleaned with a fixed
// strip-tags policy to prevent key-based injection.
func (s *Sanitizer) Value(v interface{}, opts Options) interface{} {
	switch val := v.(type) {
	case string:
		return s.String(val, opts)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[s.String(k, keyOptions)] = s.Value(item, opts)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = s.Value(item, opts)
		}
		return out
	default:
		return v
	}
}

// String cleans a single string. The non-HTML path is idempotent:
// already-encoded entities are preserved rather than re-encoded.
func (s *Sanitizer) String(value string, opts Options) string {
	if opts.TrimWhitespace {
		value = strings.TrimSpace(value)
	}

	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if len(value) > maxLength {
		value = value[:maxLength]
	}

	if opts.AllowHTML {
		return s.htmlPolicy.Sanitize(value)
	}

	value = encodeEntities(value)
	if opts.StripTags {
		value = encodedTagPattern.ReplaceAllString(value, "")
	}
	return value
}

func encodeEntities(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		case '&':
			if entity := knownEntityPattern.FindString(value[i:]); entity != "" {
				b.WriteString(entity)
				i += len(entity) - 1
			} else {
				b.WriteString("&amp;")
			}
		default:
			b.WriteByte(value[i])
		}
	}
	return b.String()
}
