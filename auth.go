package restconv

// Authenticator is the authentication collaborator. Authenticators are
// consulted in registration order; the first to accept the request wins
// and is recorded on the Context.
type Authenticator interface {
	IsAuthenticated(ctx *Context) bool
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx *Context) bool

func (f AuthenticatorFunc) IsAuthenticated(ctx *Context) bool { return f(ctx) }

// authenticate runs the ordered authenticator loop for the method's
// access level.
//
// Public methods skip the loop. Protected and privileged methods require
// at least one configured authenticator and at least one acceptance.
// Hybrid methods attempt the same loop but swallow failure: the request
// proceeds unauthenticated and handlers branch on Context.Authenticated.
func authenticate(ctx *Context, auths []Authenticator) *Error {
	level := ctx.Access()
	if !level.AttemptsAuth() {
		return nil
	}

	for _, a := range auths {
		if a.IsAuthenticated(ctx) {
			ctx.authenticatedBy = a
			return nil
		}
	}

	if !level.RequiresAuth() {
		return nil
	}
	if len(auths) == 0 {
		return NewError(CodeUnauthenticated, "no authentication configured")
	}
	return NewError(CodeUnauthenticated, "authentication failed")
}
