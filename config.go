package restconv

import (
	"net/url"
	"time"
)

// Config is the immutable engine configuration. It is fixed at compile
// time and threaded into dispatch; per-request query overrides are applied
// as a pure merge producing a fresh copy (see withQueryOverrides), so one
// Config value is safely shared across concurrent requests.
type Config struct {
	// AutoRouting derives routes from method names and parameter lists
	// for methods without manual URL declarations.
	AutoRouting bool

	// AvoidAmbiguity stops auto-generated URL segments at the first
	// optional or non-primitive parameter, so no two routes for a verb
	// differ only by a trailing optional segment. Disabling it produces
	// one route per parameter prefix length instead.
	AvoidAmbiguity bool

	// Version is the API version; requests carry it as a "v<N>" path
	// prefix which is stripped before matching.
	Version int

	// RequestDataName is the parameter name that receives the entire
	// decoded request body. Defaults to RequestDataParam.
	RequestDataName string

	// PrettyPrint asks formats to indent encoded responses. Overridable
	// per request with ?pretty=true.
	PrettyPrint bool

	// SuppressStatusCodes forces HTTP 200 on error responses, for clients
	// that cannot read status codes. Overridable per request with
	// ?suppress_response_codes=true.
	SuppressStatusCodes bool

	// MinLatency pads total request latency up to this floor, applied
	// once on the response-send path.
	MinLatency time.Duration

	// CacheRoutes persists the compiled route table through the App's
	// blob store and loads it back on the next compile.
	CacheRoutes bool
}

// DefaultConfig returns the stock configuration: auto-routing with
// ambiguity avoidance, version 1, no latency floor.
func DefaultConfig() Config {
	return Config{
		AutoRouting:     true,
		AvoidAmbiguity:  true,
		Version:         1,
		RequestDataName: RequestDataParam,
	}
}

// withQueryOverrides returns a copy of c with the recognized per-request
// query switches applied. The receiver is never mutated.
func (c Config) withQueryOverrides(query url.Values) Config {
	if v := query.Get("pretty"); v != "" {
		c.PrettyPrint = v == "true" || v == "1"
	}
	if v := query.Get("suppress_response_codes"); v != "" {
		c.SuppressStatusCodes = v == "true" || v == "1"
	}
	return c
}
