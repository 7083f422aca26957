package restconv

import (
	"sort"
	"strconv"
	"strings"
)

// acceptEntry is one media range from an Accept header with its effective
// quality. Entries without an explicit ;q= get a rank inferred from
// declaration order, (N - position) / N, so earlier entries outrank later
// ones.
type acceptEntry struct {
	mime    string
	quality float64
}

// parseAccept splits an Accept header into media ranges sorted by quality,
// highest first. The sort is stable, so equal qualities keep declaration
// order. Malformed q values fall back to the positional rank.
func parseAccept(header string) []acceptEntry {
	parts := strings.Split(header, ",")
	n := float64(len(parts))
	entries := make([]acceptEntry, 0, len(parts))
	for i, part := range parts {
		fields := strings.Split(part, ";")
		mime := strings.ToLower(strings.TrimSpace(fields[0]))
		if mime == "" {
			continue
		}
		quality := (n - float64(i)) / n
		for _, field := range fields[1:] {
			field = strings.TrimSpace(field)
			if v, ok := strings.CutPrefix(field, "q="); ok {
				if q, err := strconv.ParseFloat(v, 64); err == nil {
					quality = q
				}
			}
		}
		entries = append(entries, acceptEntry{mime: mime, quality: quality})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].quality > entries[j].quality
	})
	return entries
}

// negotiated is the outcome of response-side negotiation.
type negotiated struct {
	format Format
	// path is the request path with the recognized extension removed.
	path string
	// varyAccept marks the response as cache-variant by Accept header.
	varyAccept bool
}

// negotiateResponse selects the response format. Tried in order, first
// success wins: path extension, Accept header by quality, wildcard
// fallback. Returns ok=false when nothing is negotiable; the caller must
// answer 406 directly since no encoder exists to shape an error body.
//
// An absent Accept header behaves like */*.
func negotiateResponse(reg *formatRegistry, path, accept string) (negotiated, bool) {
	if f, stripped, ok := extensionFormat(reg, path); ok {
		return negotiated{format: f, path: stripped}, true
	}

	if strings.TrimSpace(accept) == "" {
		f, ok := reg.defaultFormat()
		return negotiated{format: f, path: path}, ok
	}

	entries := parseAccept(accept)
	for _, e := range entries {
		if f, ok := reg.lookupMIME(e.mime); ok {
			if !strings.EqualFold(f.MIME(), e.mime) {
				// Vendor type negotiated against a registered format:
				// echo the requested type back in Content-Type.
				f = f.WithMIME(e.mime)
			}
			return negotiated{format: f, path: path, varyAccept: true}, true
		}
	}
	for _, e := range entries {
		if f, ok := reg.fallback(e.mime); ok {
			return negotiated{format: f, path: path, varyAccept: true}, true
		}
	}
	return negotiated{}, false
}

// negotiateRequest selects the request-body format from an explicit
// Content-Type. Present and registered wins; present but unrecognized is
// an unsupported-media-type error; absent falls back to the response
// format.
func negotiateRequest(reg *formatRegistry, contentType string, response Format) (Format, *Error) {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		return response, nil
	}
	if f, ok := reg.lookupMIME(ct); ok {
		return f, nil
	}
	return nil, Errorf(CodeUnsupportedMedia, "unsupported content type %q", ct)
}

// extensionFormat scans the dot-separated extensions of a path from the
// right and returns the first registered one together with the path minus
// that extension. Any query-string remnant is stripped before scanning.
// Unrecognized extensions are left in place; only the recognized rightmost
// one governs.
func extensionFormat(reg *formatRegistry, path string) (Format, string, bool) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, ".")
	for i := len(segments) - 1; i >= 1; i-- {
		f, ok := reg.lookupExt(segments[i])
		if !ok {
			continue
		}
		rest := append(segments[:i:i], segments[i+1:]...)
		if !strings.EqualFold(f.Extension(), segments[i]) {
			f = f.WithExtension(segments[i])
		}
		return f, strings.Join(rest, "."), true
	}
	return nil, path, false
}
