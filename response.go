package restconv

// Responder shapes the final payload before the negotiated format encodes
// it. Hosts replace it to change the wire envelope without touching the
// engine.
type Responder interface {
	// FormatResponse wraps a successful handler result.
	FormatResponse(ctx *Context, result any) any

	// FormatError wraps an error outcome.
	FormatError(ctx *Context, err *Error) any
}

// defaultResponder emits {"result": ...} and {"error": {...}} envelopes.
type defaultResponder struct{}

// response is the envelope for successful responses.
type response struct {
	Result any `json:"result"`
}

// errorResponse is the envelope for error responses.
type errorResponse struct {
	Error *Error `json:"error"`
}

func (defaultResponder) FormatResponse(_ *Context, result any) any {
	return response{Result: result}
}

func (defaultResponder) FormatError(_ *Context, err *Error) any {
	return errorResponse{Error: err}
}
