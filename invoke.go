package restconv

import "strings"

// Invocation is the fully bound call descriptor: the matched method, its
// positional arguments (defaults overlaid with resolved values), and the
// resolved access level. Built fresh per request and discarded after it.
type Invocation struct {
	ctx *Context

	// Args holds the method's arguments in declaration order.
	Args []any

	// Access is the resolved access level of the target.
	Access AccessLevel

	// Metadata is the target method's metadata map.
	Metadata map[string]any
}

// bindInvocation assigns each parameter its resolved value from the merged
// pool, runs the validation collaborator, and produces the Invocation.
//
// The raw-body parameter receives the whole decoded request body and skips
// validation unless it carries an explicit tag.
func bindInvocation(ctx *Context, v Validator, requestDataName string) (*Invocation, *Error) {
	m := ctx.Method()
	args := make([]any, len(m.params))

	for i, p := range m.params {
		if p.Name == requestDataName {
			args[i] = ctx.requestData
			continue
		}

		value, ok := ctx.params[p.Name]
		if !ok || value == nil {
			if p.Required() {
				return nil, Errorf(CodeInvalidArgument, "missing required parameter %q", p.Name)
			}
			args[i] = p.Default
			continue
		}

		if !p.NoValidate {
			resolved, err := v.Validate(value, p)
			if err != nil {
				svcErr := DefaultErrorTransformer(err)
				if svcErr.Code == CodeInternal {
					svcErr = Errorf(CodeInvalidArgument, "parameter %q: %v", p.Name, err)
				}
				return nil, svcErr
			}
			value = resolved
		}
		args[i] = value
	}

	return &Invocation{
		ctx:      ctx,
		Args:     args,
		Access:   m.Access(),
		Metadata: m.metadata,
	}, nil
}

// invoke runs the pre-process hook, if present, then the target handler.
// Privileged targets are invoked the same way as public ones: descriptors
// carry explicit handler references, so no visibility machinery is needed
// at call time; the level only governs authentication.
func (inv *Invocation) invoke() (any, error) {
	m := inv.ctx.Method()
	if hook, ok := m.hooks[hookName("pre", m.name, inv.ctx.responseFormat)]; ok {
		hook(inv.ctx)
	}
	return m.handler(inv.ctx, inv.Args)
}

// postProcess runs the post-process hook, if present, after response
// encoding. Absence is not an error.
func (inv *Invocation) postProcess() {
	m := inv.ctx.Method()
	if hook, ok := m.hooks[hookName("post", m.name, inv.ctx.responseFormat)]; ok {
		hook(inv.ctx)
	}
}

// hookName derives the deterministic hook lookup key from the phase, the
// method name, and the negotiated format's extension, e.g.
// "pre_getUsers_json".
func hookName(phase, method string, f Format) string {
	ext := ""
	if f != nil {
		ext = strings.ToLower(f.Extension())
	}
	return phase + "_" + method + "_" + ext
}
