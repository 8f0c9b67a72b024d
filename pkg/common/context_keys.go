package common

type contextKey string

const (
	ClientIPContextKey          contextKey = "client_ip"
	SanitizedBodyContextKey     contextKey = "sanitized_body"
	SanitizedQueryContextKey    contextKey = "sanitized_query"
	SanitizedParamsContextKey   contextKey = "sanitized_params"
	AuthenticatedUserContextKey contextKey = "authenticated_user"
)
