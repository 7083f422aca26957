package restconv

import (
	"log/slog"
	"strings"

	"github.com/restconv/restconv/internal/pathexp"
)

// RouteEntry binds one (verb, URL pattern) pair to a method. Several
// entries may reference the same method, one per valid path-segment
// truncation of its auto-route.
type RouteEntry struct {
	Verb    string
	Pattern string

	service  *Service
	method   *Method
	defaults []any // positional default-argument array
	compiled *pathexp.Pattern
}

// Service returns the owning service descriptor.
func (e *RouteEntry) Service() *Service { return e.service }

// Method returns the target method descriptor.
func (e *RouteEntry) Method() *Method { return e.method }

// RouteTable maps HTTP verbs to ordered route entries. Insertion order is
// match order: the first structurally matching entry wins, regardless of
// specificity. Built once, read-only during request handling, so it is
// shared across concurrent requests without locking.
type RouteTable struct {
	entries map[string][]*RouteEntry
}

// NewRouteTable returns an empty table.
func NewRouteTable() *RouteTable {
	return &RouteTable{entries: make(map[string][]*RouteEntry)}
}

// add appends an entry to its verb's sequence. A second entry with an
// identical pattern for the same verb is dropped with a warning, keeping
// the table free of unreachable duplicates.
func (t *RouteTable) add(e *RouteEntry, logger *slog.Logger) bool {
	key := strings.ToLower(e.Pattern)
	for _, existing := range t.entries[e.Verb] {
		if strings.ToLower(existing.Pattern) == key {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("duplicate route pattern",
				slog.String("verb", e.Verb),
				slog.String("pattern", e.Pattern),
				slog.String("kept", existing.service.name+"."+existing.method.name),
				slog.String("dropped", e.service.name+"."+e.method.name))
			return false
		}
	}
	t.entries[e.Verb] = append(t.entries[e.Verb], e)
	return true
}

// Entries returns the ordered entries for a verb.
func (t *RouteTable) Entries(verb string) []*RouteEntry {
	return t.entries[verb]
}

// Verbs returns the verbs that have at least one entry.
func (t *RouteTable) Verbs() []string {
	verbs := make([]string, 0, len(t.entries))
	for v := range t.entries {
		verbs = append(verbs, v)
	}
	return verbs
}

// Len returns the total number of entries.
func (t *RouteTable) Len() int {
	n := 0
	for _, es := range t.entries {
		n += len(es)
	}
	return n
}

// match returns the first entry for verb whose pattern matches path, in
// insertion order, together with the captured path parameters.
func (t *RouteTable) match(verb, path string) (*RouteEntry, map[string]string, bool) {
	for _, e := range t.entries[verb] {
		if vars, ok := e.compiled.Match(path); ok {
			return e, vars, true
		}
	}
	return nil, nil, false
}

// matchesOtherVerb reports whether path is routable under a verb other
// than the given one. Distinguishes 405 from 404.
func (t *RouteTable) matchesOtherVerb(verb, path string) bool {
	for v, es := range t.entries {
		if v == verb {
			continue
		}
		for _, e := range es {
			if _, ok := e.compiled.Match(path); ok {
				return true
			}
		}
	}
	return false
}
