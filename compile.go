package restconv

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/restconv/restconv/internal/pathexp"
)

// httpVerbs are the method-name prefixes recognized by auto-routing.
// Order matters only for prefix stripping; no verb is a prefix of another.
var httpVerbs = []string{"get", "post", "put", "patch", "delete", "head", "options"}

// compiler turns service descriptors into route entries. Compilation is
// deterministic: identical descriptors always yield an identical table,
// which is what makes the compiled table cacheable.
type compiler struct {
	cfg    Config
	logger *slog.Logger
}

// compileService appends the service's routes to the table.
func (c *compiler) compileService(t *RouteTable, svc *Service) error {
	for _, m := range svc.methods {
		if m.hidden() {
			continue
		}
		if len(m.overrides) > 0 {
			if err := c.compileOverrides(t, svc, m); err != nil {
				return err
			}
			continue
		}
		if !c.cfg.AutoRouting {
			continue
		}
		if err := c.autoRoute(t, svc, m); err != nil {
			return err
		}
	}
	return nil
}

// compileOverrides emits exactly one entry per manual url declaration.
func (c *compiler) compileOverrides(t *RouteTable, svc *Service, m *Method) error {
	for _, o := range m.overrides {
		pattern := joinPath(svc.routePrefix(), o.Path)
		if err := c.addEntry(t, svc, m, o.Verb, pattern); err != nil {
			return err
		}
	}
	return nil
}

// autoRoute derives entries from the method name and parameter list.
//
// The lower-cased name supplies the verb (a leading verb token, else GET)
// and the base path segment ("index" maps to the resource root). For
// verbs without a request body, each required primitive parameter after
// the root appends a {name} segment; body-carrying verbs take their
// parameters from the decoded body instead, so postValidate(token) maps
// to POST <prefix>/validate, not .../validate/{token}. With ambiguity
// avoidance on, segment generation stops at the first optional or
// non-primitive parameter and a single entry is produced; with it off,
// every prefix length becomes its own candidate entry, shortest first.
func (c *compiler) autoRoute(t *RouteTable, svc *Service, m *Method) error {
	verb, base := splitVerb(m.name)
	root := joinPath(svc.routePrefix(), base)

	var segments []string
	if !hasBody(verb) {
		for _, p := range m.params {
			if p.Name == c.requestDataName() {
				continue
			}
			if p.Kind != KindPrimitive || (c.cfg.AvoidAmbiguity && !p.Required()) {
				break
			}
			segments = append(segments, p.Name)
		}
	}

	if c.cfg.AvoidAmbiguity {
		// One entry: the full run of leading required primitives.
		pattern := root
		for _, name := range segments {
			pattern = joinPath(pattern, "{"+name+"}")
		}
		return c.addEntry(t, svc, m, verb, pattern)
	}

	// One candidate per prefix length, shortest first.
	pattern := root
	if err := c.addEntry(t, svc, m, verb, pattern); err != nil {
		return err
	}
	for _, name := range segments {
		pattern = joinPath(pattern, "{"+name+"}")
		if err := c.addEntry(t, svc, m, verb, pattern); err != nil {
			return err
		}
	}
	return nil
}

// addEntry compiles the pattern and inserts the entry, preserving
// insertion order. Duplicate patterns within a verb are dropped by the
// table with a warning rather than failing compilation.
func (c *compiler) addEntry(t *RouteTable, svc *Service, m *Method, verb, pattern string) error {
	compiled, err := pathexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compile route %s %s for %s.%s: %w", verb, pattern, svc.name, m.name, err)
	}
	t.add(&RouteEntry{
		Verb:     verb,
		Pattern:  pattern,
		service:  svc,
		method:   m,
		defaults: positionalDefaults(m),
		compiled: compiled,
	}, c.logger)
	return nil
}

func (c *compiler) requestDataName() string {
	if c.cfg.RequestDataName != "" {
		return c.cfg.RequestDataName
	}
	return RequestDataParam
}

// positionalDefaults builds the default-argument array for a method.
// Required parameters hold nil until binding resolves them.
func positionalDefaults(m *Method) []any {
	defaults := make([]any, len(m.params))
	for i, p := range m.params {
		defaults[i] = p.Default
	}
	return defaults
}

// splitVerb maps a lower-cased method name to its HTTP verb and base URL
// segment. A leading verb token is stripped and becomes the verb; without
// one the verb defaults to GET. "index" (the conventional listing method)
// maps to the empty segment, i.e. the resource root.
func splitVerb(methodName string) (verb, base string) {
	name := strings.ToLower(methodName)
	verb = "GET"
	for _, v := range httpVerbs {
		if strings.HasPrefix(name, v) {
			verb = strings.ToUpper(v)
			name = name[len(v):]
			break
		}
	}
	if name == "index" {
		name = ""
	}
	return verb, name
}

// joinPath joins two pattern fragments with a single slash and trims the
// trailing slash. Patterns are stored without a leading slash.
func joinPath(a, b string) string {
	a = strings.Trim(a, "/")
	b = strings.Trim(b, "/")
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "/" + b
	}
}
