package restconv

import (
	"context"
	"log/slog"
	"net/http"
)

// Context carries one request through negotiation, matching, binding, and
// invocation. It is built fresh per request and discarded afterward.
// All request state is reached through named accessors; handlers never
// touch the shared App.
type Context struct {
	request *http.Request
	writer  http.ResponseWriter
	id      string
	cfg     Config
	logger  *slog.Logger

	entry           *RouteEntry
	pathVars        map[string]string
	params          map[string]any
	requestData     map[string]any
	responseFormat  Format
	requestFormat   Format
	authenticatedBy Authenticator
}

// Ctx returns the underlying context.Context of the HTTP request.
func (c *Context) Ctx() context.Context { return c.request.Context() }

// Request returns the raw HTTP request.
func (c *Context) Request() *http.Request { return c.request }

// Writer returns the HTTP response writer. Most handlers should return a
// value instead and let the negotiated format encode it.
func (c *Context) Writer() http.ResponseWriter { return c.writer }

// ID returns the request's unique identifier, also sent back in the
// X-Request-Id response header.
func (c *Context) ID() string { return c.id }

// Config returns the effective per-request configuration: the engine
// configuration merged with recognized query overrides.
func (c *Context) Config() Config { return c.cfg }

// Logger returns the request-scoped logger.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// Service returns the matched service descriptor, nil before matching.
func (c *Context) Service() *Service {
	if c.entry == nil {
		return nil
	}
	return c.entry.service
}

// Method returns the matched method descriptor, nil before matching.
func (c *Context) Method() *Method {
	if c.entry == nil {
		return nil
	}
	return c.entry.method
}

// Access returns the resolved access level of the matched method.
func (c *Context) Access() AccessLevel {
	if c.entry == nil {
		return AccessPublic
	}
	return c.entry.method.Access()
}

// Authenticated reports whether any authenticator accepted the request.
func (c *Context) Authenticated() bool { return c.authenticatedBy != nil }

// AuthenticatedBy returns the authenticator that accepted the request,
// or nil when the request runs unauthenticated.
func (c *Context) AuthenticatedBy() Authenticator { return c.authenticatedBy }

// Param returns a value from the merged parameter pool
// (defaults < body < query < path captures).
func (c *Context) Param(name string) (any, bool) {
	v, ok := c.params[name]
	return v, ok
}

// Params returns the merged parameter pool.
func (c *Context) Params() map[string]any { return c.params }

// PathVar returns a raw path capture by placeholder name.
func (c *Context) PathVar(name string) (string, bool) {
	v, ok := c.pathVars[name]
	return v, ok
}

// RequestData returns the decoded request body field map, nil when the
// request carried no body.
func (c *Context) RequestData() map[string]any { return c.requestData }

// Format returns the negotiated response format.
func (c *Context) Format() Format { return c.responseFormat }

// RequestFormat returns the negotiated request-body format.
func (c *Context) RequestFormat() Format { return c.requestFormat }

// SetHeader sets a response header.
func (c *Context) SetHeader(key, value string) {
	c.writer.Header().Set(key, value)
}
