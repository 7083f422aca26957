package restconv

import (
	"strings"
)

// AccessLevel controls whether an operation requires authentication and how
// strictly. Levels are ordered: when several signals apply to one method,
// the highest level wins.
type AccessLevel int

const (
	// AccessPublic operations never consult authenticators.
	AccessPublic AccessLevel = iota

	// AccessHybrid operations attempt authentication but proceed
	// unauthenticated when it fails. Handlers can branch on
	// Context.Authenticated.
	AccessHybrid

	// AccessProtected operations require a successful authentication.
	AccessProtected

	// AccessPrivileged operations are declared restricted on the service
	// itself (not merely annotated) and also require authentication.
	AccessPrivileged
)

func (l AccessLevel) String() string {
	switch l {
	case AccessPublic:
		return "public"
	case AccessHybrid:
		return "hybrid"
	case AccessProtected:
		return "protected"
	case AccessPrivileged:
		return "privileged"
	default:
		return "unknown"
	}
}

// RequiresAuth reports whether a failed authentication aborts the request.
func (l AccessLevel) RequiresAuth() bool { return l >= AccessProtected }

// AttemptsAuth reports whether authenticators are consulted at all.
func (l AccessLevel) AttemptsAuth() bool { return l >= AccessHybrid }

// ParamKind classifies a parameter's declared type for routing purposes.
// Only primitive parameters may become URL path segments.
type ParamKind int

const (
	KindPrimitive ParamKind = iota
	KindArray
	KindComposite
)

func (k ParamKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// RequestDataParam is the conventional name of the parameter that receives
// the entire decoded request body. It never maps to a URL segment.
const RequestDataParam = "request_data"

// Param describes one parameter of a routed method.
//
// A parameter with no default value is required; required primitive
// parameters are candidates for URL path segments in the order declared.
type Param struct {
	// Name is the parameter name as it appears in URL captures, query
	// strings, and decoded bodies.
	Name string

	// Kind classifies the declared type. The zero value is KindPrimitive.
	Kind ParamKind

	// Type is the composite type name, for KindComposite only.
	Type string

	// Default is the value used when no source supplies the parameter.
	// A nil Default marks the parameter required.
	Default any

	// Validate is a validator tag (e.g. "min=1,max=100") applied to the
	// resolved value before invocation.
	Validate string

	// NoValidate disables validation for this parameter.
	NoValidate bool

	index int
}

// Required reports whether the parameter must be supplied by the request.
func (p Param) Required() bool { return p.Default == nil }

// Index returns the parameter's position in the method signature.
func (p Param) Index() int { return p.index }

// HandlerFunc is the operation bound to a route. Args are the method's
// parameters in declaration order, defaults overlaid with resolved values.
type HandlerFunc func(ctx *Context, args []any) (any, error)

// HookFunc is a pre- or post-process hook, looked up by a name derived from
// the negotiated format and the method name. Absent hooks are not an error.
type HookFunc func(ctx *Context)

// RouteOverride is a manual verb+path declaration. A method with one or
// more overrides is never auto-routed.
type RouteOverride struct {
	Verb string
	Path string
}

// Method describes one routable operation of a Service.
// Configure it with the chainable setters, then leave it alone: methods are
// treated as immutable once the owning service is added to an App.
type Method struct {
	name        string
	description string
	params      []Param
	overrides   []RouteOverride
	handler     HandlerFunc
	hooks       map[string]HookFunc
	metadata    map[string]any

	restricted bool // declared restricted on the service: level 3
	protected  bool // "protected" annotation: level 2
	hybrid     bool // "hybrid" annotation: level 1
}

// Name returns the method name as registered.
func (m *Method) Name() string { return m.name }

// Params returns the method's parameters in declaration order.
func (m *Method) Params() []Param { return m.params }

// Describe sets the free-text description.
func (m *Method) Describe(text string) *Method {
	m.description = text
	return m
}

// Param appends a parameter. Position index follows call order.
func (m *Method) Param(p Param) *Method {
	p.index = len(m.params)
	m.params = append(m.params, p)
	return m
}

// URL declares a manual route for this method. May be called multiple
// times; each call yields exactly one route and disables auto-routing.
func (m *Method) URL(verb, path string) *Method {
	m.overrides = append(m.overrides, RouteOverride{
		Verb: strings.ToUpper(verb),
		Path: path,
	})
	return m
}

// Restricted marks the method as declared at restricted visibility
// (AccessPrivileged). This outranks Protected and Hybrid.
func (m *Method) Restricted() *Method {
	m.restricted = true
	return m
}

// Protected marks the method with the "protected" annotation
// (AccessProtected unless Restricted is also set).
func (m *Method) Protected() *Method {
	m.protected = true
	return m
}

// Hybrid marks the method with the "hybrid" annotation (AccessHybrid
// unless a higher signal is present).
func (m *Method) Hybrid() *Method {
	m.hybrid = true
	return m
}

// Hook registers a named pre- or post-process hook, e.g. "pre_getUsers_json".
// See hookName for the lookup convention.
func (m *Method) Hook(name string, fn HookFunc) *Method {
	if m.hooks == nil {
		m.hooks = make(map[string]HookFunc)
	}
	m.hooks[name] = fn
	return m
}

// Meta attaches a free-form metadata key/value pair (doc-comment derived
// annotations land here when descriptors come from the extract package).
func (m *Method) Meta(key string, value any) *Method {
	if m.metadata == nil {
		m.metadata = make(map[string]any)
	}
	m.metadata[key] = value
	return m
}

// Metadata returns the method's metadata map. May be nil.
func (m *Method) Metadata() map[string]any { return m.metadata }

// Access derives the effective access level. Highest signal wins:
// restricted visibility beats the "protected" annotation beats "hybrid".
func (m *Method) Access() AccessLevel {
	switch {
	case m.restricted:
		return AccessPrivileged
	case m.protected:
		return AccessProtected
	case m.hybrid:
		return AccessHybrid
	default:
		return AccessPublic
	}
}

// hidden reports whether the method is excluded from routing entirely.
func (m *Method) hidden() bool { return strings.HasPrefix(m.name, "_") }

// param looks up a parameter by name.
func (m *Method) param(name string) (Param, bool) {
	for _, p := range m.params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Service is a named group of routable methods sharing a resource path
// prefix. Build it once, add it to an App, and do not mutate it afterward:
// the compiled route table aliases the descriptors.
type Service struct {
	name    string
	prefix  string
	methods []*Method
}

// NewService creates a service descriptor with the given class identifier.
func NewService(name string) *Service {
	return &Service{name: name}
}

// WithPrefix sets the resource path prefix (e.g. "users/").
func (s *Service) WithPrefix(prefix string) *Service {
	s.prefix = prefix
	return s
}

// Name returns the service's class identifier.
func (s *Service) Name() string { return s.name }

// Prefix returns the resource path prefix.
func (s *Service) Prefix() string { return s.prefix }

// routePrefix returns the effective resource path prefix. When none was
// set, the lowercased service name supplies it, so a service named
// "Users" mounts under "users/" by convention.
func (s *Service) routePrefix() string {
	if s.prefix != "" {
		return s.prefix
	}
	return strings.ToLower(s.name)
}

// Method registers a routable operation and returns it for chaining.
func (s *Service) Method(name string, h HandlerFunc) *Method {
	m := &Method{name: name, handler: h}
	s.methods = append(s.methods, m)
	return m
}

// Methods returns the registered methods in registration order.
func (s *Service) Methods() []*Method { return s.methods }

// method looks up a method by name.
func (s *Service) method(name string) (*Method, bool) {
	for _, m := range s.methods {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}
