package restconv

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Format is the data-format collaborator. The engine only selects and
// drives formats; what the bytes look like is the format's business.
//
// Implementations must be safe for concurrent use: the engine shares one
// registered instance across requests. WithMIME and WithExtension return
// derived copies, never mutate the receiver.
type Format interface {
	// MIME returns the canonical media type, e.g. "application/json".
	MIME() string

	// Extension returns the path extension the format answers to,
	// e.g. "json". Empty means the format has no extension form.
	Extension() string

	// WithMIME returns a copy answering to the given media type.
	// Used when a vendor type (e.g. application/vnd.foo+json) negotiated
	// via Accept must be echoed back in Content-Type.
	WithMIME(mime string) Format

	// WithExtension returns a copy answering to the given extension.
	WithExtension(ext string) Format

	// Encode serializes v. pretty requests human-readable output.
	Encode(v any, pretty bool) ([]byte, error)

	// Decode parses a request body into a field map.
	Decode(data []byte) (map[string]any, error)
}

// JSONFormat is the built-in default format.
type JSONFormat struct {
	mime string
	ext  string
}

// NewJSONFormat returns a JSON format with the canonical media type.
func NewJSONFormat() *JSONFormat {
	return &JSONFormat{mime: "application/json", ext: "json"}
}

func (f *JSONFormat) MIME() string      { return f.mime }
func (f *JSONFormat) Extension() string { return f.ext }

func (f *JSONFormat) WithMIME(mime string) Format {
	c := *f
	c.mime = mime
	return &c
}

func (f *JSONFormat) WithExtension(ext string) Format {
	c := *f
	c.ext = ext
	return &c
}

func (f *JSONFormat) Encode(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func (f *JSONFormat) Decode(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	return fields, nil
}

// URLEncodedFormat decodes application/x-www-form-urlencoded bodies.
// It has no extension form and encodes responses as a flat query string,
// which is only useful for debugging.
type URLEncodedFormat struct {
	mime string
}

func NewURLEncodedFormat() *URLEncodedFormat {
	return &URLEncodedFormat{mime: "application/x-www-form-urlencoded"}
}

func (f *URLEncodedFormat) MIME() string      { return f.mime }
func (f *URLEncodedFormat) Extension() string { return "" }

func (f *URLEncodedFormat) WithMIME(mime string) Format {
	c := *f
	c.mime = mime
	return &c
}

func (f *URLEncodedFormat) WithExtension(string) Format {
	c := *f
	return &c
}

func (f *URLEncodedFormat) Encode(v any, _ bool) ([]byte, error) {
	fields, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("urlencoded: cannot encode %T", v)
	}
	values := url.Values{}
	for k, val := range fields {
		values.Set(k, fmt.Sprint(val))
	}
	return []byte(values.Encode()), nil
}

func (f *URLEncodedFormat) Decode(data []byte) (map[string]any, error) {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, fmt.Errorf("decode form body: %w", err)
	}
	fields := make(map[string]any, len(values))
	for k, vals := range values {
		if len(vals) == 1 {
			fields[k] = vals[0]
		} else {
			fields[k] = vals
		}
	}
	return fields, nil
}

// formatRegistry holds the registered formats, indexed by media type and
// extension. The first registered format is the overall default.
// Read-only after compile.
type formatRegistry struct {
	order  []Format
	byMIME map[string]Format
	byExt  map[string]Format
}

func newFormatRegistry() *formatRegistry {
	return &formatRegistry{
		byMIME: make(map[string]Format),
		byExt:  make(map[string]Format),
	}
}

// add registers a format. Later registrations win on MIME or extension
// collisions, matching last-write-wins registration semantics.
func (r *formatRegistry) add(f Format) {
	r.order = append(r.order, f)
	r.byMIME[strings.ToLower(f.MIME())] = f
	if ext := strings.ToLower(f.Extension()); ext != "" {
		r.byExt[ext] = f
	}
}

// lookupMIME resolves a media type, ignoring case and parameters.
func (r *formatRegistry) lookupMIME(mime string) (Format, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	f, ok := r.byMIME[mime]
	return f, ok
}

// lookupExt resolves a path extension, ignoring case.
func (r *formatRegistry) lookupExt(ext string) (Format, bool) {
	f, ok := r.byExt[strings.ToLower(ext)]
	return f, ok
}

// fallback returns the configured default for a wildcard media range.
// The overall default serves */* and application/*; text/* is served by
// the first registered text format, if any.
func (r *formatRegistry) fallback(wildcard string) (Format, bool) {
	if len(r.order) == 0 {
		return nil, false
	}
	switch wildcard {
	case "*/*", "application/*":
		return r.order[0], true
	case "text/*":
		for _, f := range r.order {
			if strings.HasPrefix(strings.ToLower(f.MIME()), "text/") {
				return f, true
			}
		}
	}
	return nil, false
}

// defaultFormat returns the first registered format.
func (r *formatRegistry) defaultFormat() (Format, bool) {
	if len(r.order) == 0 {
		return nil, false
	}
	return r.order[0], true
}
