// Package pathexp compiles URL route patterns into anchored regular
// expressions with named, segment-bounded captures.
//
// Two placeholder syntaxes are accepted and behave identically:
//
//	widgets/{id}/parts/{part}
//	widgets/:id/parts/:part
//
// Each placeholder captures one path segment ([^/]+). Literal text matches
// case-insensitively.
package pathexp

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a compiled route pattern.
type Pattern struct {
	// template is the original pattern string.
	template string
	// regexp is the compiled expression, anchored on the full path.
	regexp *regexp.Regexp
	// varsN are the placeholder names in order of appearance.
	varsN []string
}

// segmentPattern is the capture used for every placeholder: greedy within
// one path segment, never crossing a slash.
const segmentPattern = `[^/]+`

// Compile parses a route template and returns the compiled Pattern.
// It returns an error on unbalanced braces, empty placeholder names, or
// duplicated placeholder names.
func Compile(tpl string) (*Pattern, error) {
	idxs, err := braceIndices(tpl)
	if err != nil {
		return nil, err
	}

	var (
		pattern strings.Builder
		varsN   []string
		end     int
	)

	pattern.WriteString("(?i)^")

	for i := 0; i < len(idxs); i += 2 {
		raw := tpl[end:idxs[i]]
		end = idxs[i+1]

		name := tpl[idxs[i]+1 : end-1]
		if name == "" {
			return nil, fmt.Errorf("pathexp: missing name in %q from %q", tpl[idxs[i]:end], tpl)
		}

		literal, err := writeLiteral(&pattern, raw)
		if err != nil {
			return nil, fmt.Errorf("pathexp: %v in %q", err, tpl)
		}
		varsN = append(varsN, literal...)

		fmt.Fprintf(&pattern, "(%s)", segmentPattern)
		varsN = append(varsN, name)
	}

	literal, err := writeLiteral(&pattern, tpl[end:])
	if err != nil {
		return nil, fmt.Errorf("pathexp: %v in %q", err, tpl)
	}
	varsN = append(varsN, literal...)

	pattern.WriteByte('$')

	if err := checkDuplicateVars(varsN); err != nil {
		return nil, err
	}

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("pathexp: compile %q: %w", tpl, err)
	}

	return &Pattern{
		template: tpl,
		regexp:   re,
		varsN:    varsN,
	}, nil
}

// MustCompile is like Compile but panics on error. For patterns known
// valid at registration time.
func MustCompile(tpl string) *Pattern {
	p, err := Compile(tpl)
	if err != nil {
		panic(err)
	}
	return p
}

// writeLiteral quotes raw literal text into the pattern, expanding any
// legacy colon placeholders it contains. Returns the names of expanded
// placeholders in order.
func writeLiteral(pattern *strings.Builder, raw string) ([]string, error) {
	var names []string
	for {
		i := strings.IndexByte(raw, ':')
		if i < 0 {
			break
		}
		rest := raw[i+1:]
		stop := strings.IndexByte(rest, '/')
		if stop < 0 {
			stop = len(rest)
		}
		name := rest[:stop]
		if name == "" {
			return nil, fmt.Errorf("missing name after %q", ":")
		}
		pattern.WriteString(regexp.QuoteMeta(raw[:i]))
		fmt.Fprintf(pattern, "(%s)", segmentPattern)
		names = append(names, name)
		raw = rest[stop:]
	}
	pattern.WriteString(regexp.QuoteMeta(raw))
	return names, nil
}

// Template returns the original pattern string.
func (p *Pattern) Template() string { return p.template }

// Vars returns the placeholder names in order of appearance.
func (p *Pattern) Vars() []string { return p.varsN }

// Literal reports whether the pattern contains no placeholders.
func (p *Pattern) Literal() bool { return len(p.varsN) == 0 }

// Match tests path against the pattern. On success it returns the captured
// placeholder values keyed by name; the map is nil for literal patterns.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	matches := p.regexp.FindStringSubmatch(path)
	if matches == nil {
		return nil, false
	}
	if len(p.varsN) == 0 {
		return nil, true
	}
	vars := make(map[string]string, len(p.varsN))
	for i, name := range p.varsN {
		if i+1 < len(matches) {
			vars[name] = matches[i+1]
		}
	}
	return vars, true
}

// braceIndices returns the start and end+1 indices of each top-level
// {...} pair in s. Returns an error if braces are unbalanced.
func braceIndices(s string) ([]int, error) {
	var (
		idxs  []int
		level int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if level++; level == 1 {
				idxs = append(idxs, i)
			}
		case '}':
			if level--; level == 0 {
				idxs = append(idxs, i+1)
			} else if level < 0 {
				return nil, fmt.Errorf("pathexp: unbalanced braces in %q", s)
			}
		}
	}
	if level != 0 {
		return nil, fmt.Errorf("pathexp: unbalanced braces in %q", s)
	}
	return idxs, nil
}

// checkDuplicateVars returns an error if any placeholder name is repeated.
func checkDuplicateVars(vars []string) error {
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if seen[v] {
			return fmt.Errorf("pathexp: duplicated placeholder %q", v)
		}
		seen[v] = true
	}
	return nil
}
