package common

const (
	// TokenCookieName is the cookie carrying the session token for browser clients.
	TokenCookieName = "token"

	// AuthorizationHeaderName carries "Bearer <token>" for non-cookie clients.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName is echoed back on every response.
	RequestIDHeaderName = "X-Request-ID"
)
