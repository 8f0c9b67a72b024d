package types

// AuthenticatedUser identifies the session principal attached to a request
// by the platform's auth layer, when one exists.
type AuthenticatedUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// RequestContext is the transport-agnostic descriptor of one inbound
// request handed to the security pipeline. Body, Query and Params hold the
// decoded payload trees (maps, slices, strings) rather than raw bytes so
// detectors and the sanitizer can walk them field by field.
type RequestContext struct {
	Method      string
	Path        string
	OriginalURL string
	Headers     map[string][]string
	SourceIP    string
	UserAgent   string
	RawBody     []byte
	Body        interface{}
	Query       map[string]interface{}
	Params      map[string]interface{}
	User        *AuthenticatedUser
}

// PipelineError is returned by the pipeline when a request must be
// rejected before reaching business logic.
type PipelineError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *PipelineError) Error() string {
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
