package extract

import (
	"encoding/json"
	"go/ast"
	"go/token"
	"log/slog"
	"strings"

	"github.com/restconv/restconv"
)

// validVerbs are the HTTP verbs accepted in @url annotations.
var validVerbs = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// annotations is the parsed form of one doc-comment block.
type annotations struct {
	// text is the free-form description with annotation lines removed.
	text string
	// values holds recognized simple annotations (protected, hybrid,
	// prefix).
	values map[string]any
	// extra holds well-formed but unrecognized "@key value" lines.
	extra map[string]any
	// overrides are the @url declarations in order.
	overrides []restconv.RouteOverride
	// params holds @param override blocks keyed by parameter name.
	params map[string]paramOverride
}

type paramOverride struct {
	def        any
	validate   string
	noValidate bool
}

// parseAnnotations scans a doc-comment block. Malformed annotation lines
// are dropped with a warning so one bad line never poisons the rest of
// the block.
func parseAnnotations(doc *ast.CommentGroup, logger *slog.Logger, fset *token.FileSet) annotations {
	ann := annotations{
		values: make(map[string]any),
		extra:  make(map[string]any),
		params: make(map[string]paramOverride),
	}
	if doc == nil {
		return ann
	}
	pos := fset.Position(doc.Pos())

	var text []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "@") {
			text = append(text, line)
			continue
		}

		fields := strings.Fields(trimmed)
		key := strings.TrimPrefix(fields[0], "@")
		args := fields[1:]

		switch key {
		case "protected", "hybrid":
			ann.values[key] = true
		case "prefix":
			if len(args) != 1 {
				drop(logger, pos, trimmed, "expected @prefix <path>")
				continue
			}
			ann.values[key] = args[0]
		case "url":
			if len(args) != 2 || !validVerbs[strings.ToUpper(args[0])] {
				drop(logger, pos, trimmed, "expected @url <VERB> <path>")
				continue
			}
			ann.overrides = append(ann.overrides, restconv.RouteOverride{
				Verb: strings.ToUpper(args[0]),
				Path: args[1],
			})
		case "param":
			if len(args) < 1 {
				drop(logger, pos, trimmed, "expected @param <name> [attrs]")
				continue
			}
			// Re-split from the raw line: attribute values may be
			// quoted and contain spaces (validate="oneof=a b").
			attrs := splitAttrs(strings.TrimPrefix(trimmed, fields[0]))
			over, ok := parseParamOverride(attrs[1:], logger, pos, trimmed)
			if !ok {
				continue
			}
			ann.params[attrs[0]] = over
		case "":
			drop(logger, pos, trimmed, "empty annotation")
		default:
			ann.extra[key] = strings.TrimSpace(strings.TrimPrefix(trimmed, "@"+key))
			if ann.extra[key] == "" {
				ann.extra[key] = true
			}
		}
	}

	ann.text = strings.TrimSpace(strings.Join(text, "\n"))
	return ann
}

// splitAttrs splits an attribute list on whitespace, keeping quoted
// values together so key="a b" stays one token.
func splitAttrs(s string) []string {
	var (
		attrs  []string
		cur    strings.Builder
		quoted bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case !quoted && (r == ' ' || r == '\t'):
			if cur.Len() > 0 {
				attrs = append(attrs, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		attrs = append(attrs, cur.String())
	}
	return attrs
}

// parseParamOverride parses the attrs of an @param line: default=<json>,
// validate=<tag>, novalidate. A bare-word default is taken as a string.
func parseParamOverride(attrs []string, logger *slog.Logger, pos token.Position, line string) (paramOverride, bool) {
	var over paramOverride
	for _, attr := range attrs {
		k, v, hasValue := strings.Cut(attr, "=")
		switch {
		case k == "novalidate" && !hasValue:
			over.noValidate = true
		case k == "default" && hasValue:
			var parsed any
			if err := json.Unmarshal([]byte(v), &parsed); err != nil {
				// bare word: treat as string
				parsed = v
			}
			over.def = normalizeDefault(parsed)
		case k == "validate" && hasValue:
			over.validate = strings.Trim(v, `"`)
		default:
			drop(logger, pos, line, "unknown @param attribute "+k)
			return paramOverride{}, false
		}
	}
	return over, true
}

// normalizeDefault converts json.Unmarshal's float64 to int when the
// value is integral, matching how descriptors declare numeric defaults.
func normalizeDefault(v any) any {
	if f, ok := v.(float64); ok && f == float64(int(f)) {
		return int(f)
	}
	return v
}

func drop(logger *slog.Logger, pos token.Position, line, reason string) {
	logger.Warn("dropping malformed annotation",
		slog.String("pos", pos.String()),
		slog.String("line", line),
		slog.String("reason", reason))
}
