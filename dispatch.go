package restconv

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// App is the route compiler and dispatch engine. Register services,
// formats, and authenticators, then serve via Handler().
//
// Registration must finish before the first request: Compile (or the
// first Handler call) freezes the route table, which is afterwards shared
// read-only across concurrent requests.
type App struct {
	mu                 sync.Mutex
	cfg                Config
	services           []*Service
	formats            *formatRegistry
	auths              []Authenticator
	validator          Validator
	responder          Responder
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	errorHandlers      map[int]ErrorHandler
	middlewares        []func(http.Handler) http.Handler
	logger             *slog.Logger
	store              BlobStore
	maxRequestBodySize int64

	table    *RouteTable
	compiled bool
}

// NewApp creates an engine with the given configuration. If no format is
// registered by compile time, JSON is registered as the default.
func NewApp(cfg Config) *App {
	return &App{
		cfg:                cfg,
		formats:            newFormatRegistry(),
		validator:          defaultValidator{},
		responder:          defaultResponder{},
		errorHandlers:      make(map[int]ErrorHandler),
		maxRequestBodySize: 1 << 20, // 1MB default
	}
}

// AddService registers a service descriptor. The descriptor must not be
// mutated afterward.
func (a *App) AddService(svc *Service) *App {
	a.services = append(a.services, svc)
	return a
}

// AddAuthenticator appends an authentication collaborator. Order is
// significant: the first to accept a request wins.
func (a *App) AddAuthenticator(auth Authenticator) *App {
	a.auths = append(a.auths, auth)
	return a
}

// AddFormat registers a data format. The first registered format is the
// default for */* and absent Accept headers.
func (a *App) AddFormat(f Format) *App {
	a.formats.add(f)
	return a
}

// WithValidator replaces the per-parameter validation collaborator.
func (a *App) WithValidator(v Validator) *App {
	a.validator = v
	return a
}

// WithResponder replaces the payload-shaping collaborator.
func (a *App) WithResponder(r Responder) *App {
	a.responder = r
	return a
}

// WithErrorTransformer adds a custom error transformer.
func (a *App) WithErrorTransformer(fn ErrorTransformer) *App {
	a.errorTransformer = fn
	return a
}

// WithMaskInternalErrors masks internal error messages in responses.
// Useful in production to avoid leaking sensitive information.
func (a *App) WithMaskInternalErrors() *App {
	a.maskInternalErrors = true
	return a
}

// WithMiddleware adds an HTTP middleware to wrap the app.
// Middleware is applied in the order added (first added is outermost).
func (a *App) WithMiddleware(mw func(http.Handler) http.Handler) *App {
	a.middlewares = append(a.middlewares, mw)
	return a
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func (a *App) WithLogger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// WithStore sets the blob store backing the route table cache. Only
// consulted when Config.CacheRoutes is set.
func (a *App) WithStore(store BlobStore) *App {
	a.store = store
	return a
}

// WithMaxRequestBodySize sets the maximum request body size in bytes.
// A value of 0 means no limit. Default is 1MB.
func (a *App) WithMaxRequestBodySize(size int64) *App {
	a.maxRequestBodySize = size
	return a
}

// OnStatus registers an error handler intercepting responses for one HTTP
// status code before the default envelope is encoded.
func (a *App) OnStatus(status int, h ErrorHandler) *App {
	a.errorHandlers[status] = h
	return a
}

// Compile builds the route table, or loads it from the blob store when
// route caching is enabled. A cached artifact is accepted if every
// entry re-links by name to a registered service and method; it is not
// a full descriptor fingerprint, so hosts that change routing metadata
// must invalidate the artifact themselves. An unreadable or
// unlinkable artifact falls back to a clean recompile; a failed write
// is logged and otherwise ignored.
//
// Compile is idempotent and must complete before requests are dispatched.
func (a *App) Compile() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.compiled {
		return nil
	}

	if _, ok := a.formats.defaultFormat(); !ok {
		a.formats.add(NewJSONFormat())
	}

	if a.cfg.CacheRoutes && a.store != nil {
		if data, err := a.store.Get(routeArtifactName); err == nil {
			if t, err := decodeTable(data, a.services); err == nil {
				a.table = t
				a.compiled = true
				return nil
			} else {
				a.log().Warn("stale route cache, recompiling", slog.Any("error", err))
			}
		}
	}

	t := NewRouteTable()
	c := &compiler{cfg: a.cfg, logger: a.logger}
	for _, svc := range a.services {
		if err := c.compileService(t, svc); err != nil {
			return err
		}
	}
	a.table = t
	a.compiled = true

	if a.cfg.CacheRoutes && a.store != nil {
		data, err := encodeTable(t)
		if err == nil {
			err = a.store.Put(routeArtifactName, data)
		}
		if err != nil {
			// Non-fatal: serving continues on the in-memory table.
			a.log().Warn("route cache write failed", slog.Any("error", err))
		}
	}
	return nil
}

// Routes returns the compiled table. It compiles first if needed,
// panicking on a descriptor error, same as Handler.
func (a *App) Routes() *RouteTable {
	if err := a.Compile(); err != nil {
		panic("restconv: " + err.Error())
	}
	return a.table
}

// Handler returns an http.Handler including all configured middleware.
// It panics if compilation fails; call Compile first to handle descriptor
// errors gracefully.
func (a *App) Handler() http.Handler {
	if err := a.Compile(); err != nil {
		panic("restconv: " + err.Error())
	}
	var h http.Handler = http.HandlerFunc(a.serveHTTP)
	// Apply middleware in reverse order so first added is outermost.
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

func (a *App) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}

// serveHTTP runs the request pipeline: negotiate response format,
// negotiate request format, decode body, match route, merge and bind
// parameters, authenticate, invoke, encode.
func (a *App) serveHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	reqID := uuid.NewString()
	logger := a.log().With(slog.String("request_id", reqID))

	defer func() {
		if rec := recover(); rec != nil {
			stack := debug.Stack()
			logger.Error("PANIC recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(stack)))
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "internal server error (panic): %v", rec)
		}
	}()

	w.Header().Set("X-Request-Id", reqID)

	cfg := a.cfg.withQueryOverrides(req.URL.Query())
	path := strings.Trim(req.URL.Path, "/")
	path = stripVersion(path, cfg.Version)

	// Response format first: until one is negotiated there is no encoder
	// to shape an error body, so failure here is a direct 406.
	neg, ok := negotiateResponse(a.formats, path, req.Header.Get("Accept"))
	if !ok {
		w.WriteHeader(http.StatusNotAcceptable)
		fmt.Fprint(w, "not acceptable")
		return
	}
	if neg.varyAccept {
		w.Header().Add("Vary", "Accept")
	}

	ctx := &Context{
		request:        req,
		writer:         w,
		id:             reqID,
		cfg:            cfg,
		logger:         logger,
		responseFormat: neg.format,
	}

	reqFormat, svcErr := negotiateRequest(a.formats, req.Header.Get("Content-Type"), neg.format)
	if svcErr != nil {
		a.abort(ctx, start, svcErr)
		return
	}
	ctx.requestFormat = reqFormat

	if hasBody(req.Method) {
		body := req.Body
		if a.maxRequestBodySize > 0 {
			body = http.MaxBytesReader(w, body, a.maxRequestBodySize)
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			a.abort(ctx, start, Errorf(CodeInvalidArgument, "read request body: %v", err))
			return
		}
		if len(raw) > 0 {
			fields, err := reqFormat.Decode(raw)
			if err != nil {
				a.abort(ctx, start, Errorf(CodeInvalidArgument, "decode request body: %v", err))
				return
			}
			ctx.requestData = fields
		}
	}

	entry, pathVars, ok := a.table.match(req.Method, neg.path)
	if !ok {
		if a.table.matchesOtherVerb(req.Method, neg.path) {
			a.abort(ctx, start, Errorf(CodeMethodNotAllowed, "method %s not allowed for /%s", req.Method, neg.path))
			return
		}
		a.abort(ctx, start, Errorf(CodeNotFound, "no route for %s /%s", req.Method, neg.path))
		return
	}
	ctx.entry = entry
	ctx.pathVars = pathVars
	ctx.params = mergeParams(entry, pathVars, req.URL.Query(), ctx.requestData, hasBody(req.Method))

	if svcErr := authenticate(ctx, a.auths); svcErr != nil {
		a.abort(ctx, start, svcErr)
		return
	}

	inv, svcErr := bindInvocation(ctx, a.validator, a.requestDataName())
	if svcErr != nil {
		a.abort(ctx, start, svcErr)
		return
	}

	result, err := inv.invoke()
	if err != nil {
		a.abort(ctx, start, a.transformError(err))
		return
	}

	payload := a.responder.FormatResponse(ctx, result)
	encoded, err := ctx.responseFormat.Encode(payload, cfg.PrettyPrint)
	if err != nil {
		a.abort(ctx, start, Errorf(CodeInternal, "encode response: %v", err))
		return
	}
	inv.postProcess()

	a.send(ctx, start, http.StatusOK, encoded)
}

// abort short-circuits the pipeline with an error response. Status-keyed
// host handlers may take over; otherwise the responder shapes the default
// envelope and the negotiated format encodes it.
func (a *App) abort(ctx *Context, start time.Time, svcErr *Error) {
	if a.maskInternalErrors && svcErr.Code == CodeInternal {
		svcErr = NewError(CodeInternal, "internal server error")
	}

	status := svcErr.Code.HTTPStatus()
	if h, ok := a.errorHandlers[status]; ok {
		if h(ctx, svcErr) {
			return
		}
	}

	payload := a.responder.FormatError(ctx, svcErr)
	encoded, err := ctx.responseFormat.Encode(payload, ctx.cfg.PrettyPrint)
	if err != nil {
		ctx.Logger().Error("failed to encode error response",
			slog.String("code", string(svcErr.Code)),
			slog.Any("error", err))
		ctx.writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	if ctx.cfg.SuppressStatusCodes {
		status = http.StatusOK
	}
	a.send(ctx, start, status, encoded)
}

// send writes the encoded response, padding total latency up to the
// configured floor first. The throttle applies only here, on the send
// path, never during matching.
func (a *App) send(ctx *Context, start time.Time, status int, encoded []byte) {
	if ctx.cfg.MinLatency > 0 {
		if remaining := ctx.cfg.MinLatency - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	ctx.writer.Header().Set("Content-Type", ctx.responseFormat.MIME()+"; charset=utf-8")
	ctx.writer.WriteHeader(status)
	if _, err := ctx.writer.Write(encoded); err != nil {
		ctx.Logger().Error("failed to write response", slog.Any("error", err))
	}
}

func (a *App) transformError(err error) *Error {
	var svcErr *Error
	if a.errorTransformer != nil {
		svcErr = a.errorTransformer(err)
	}
	if svcErr == nil {
		svcErr = DefaultErrorTransformer(err)
	}
	return svcErr
}

func (a *App) requestDataName() string {
	if a.cfg.RequestDataName != "" {
		return a.cfg.RequestDataName
	}
	return RequestDataParam
}

// hasBody reports whether the verb carries a decodable body.
func hasBody(verb string) bool {
	switch verb {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// stripVersion removes a leading "v<N>" path segment naming the
// configured version. Any other version prefix stays in the path and
// falls through to matching, where it ends as a 404.
func stripVersion(path string, version int) string {
	if version < 1 {
		return path
	}
	seg, rest, found := strings.Cut(path, "/")
	if strings.EqualFold(seg, "v"+strconv.Itoa(version)) {
		if found {
			return rest
		}
		return ""
	}
	return path
}

// reservedQuery lists query keys consumed as per-request config overrides;
// they never enter the parameter pool.
var reservedQuery = map[string]bool{
	"pretty":                  true,
	"suppress_response_codes": true,
}

// mergeParams builds the merged parameter pool. Later sources win on key
// collision: positional defaults, then decoded body fields (body verbs
// only), then query parameters, then path captures. Path captures rank
// highest so a body field can never spoof a routed identifier.
func mergeParams(entry *RouteEntry, pathVars map[string]string, query map[string][]string, body map[string]any, bodyVerb bool) map[string]any {
	pool := make(map[string]any)

	for i, p := range entry.method.params {
		if entry.defaults[i] != nil {
			pool[p.Name] = entry.defaults[i]
		}
	}

	if bodyVerb {
		for k, v := range body {
			pool[k] = v
		}
	}

	for k, vals := range query {
		if reservedQuery[k] || len(vals) == 0 {
			continue
		}
		if len(vals) == 1 {
			pool[k] = vals[0]
		} else {
			pool[k] = vals
		}
	}

	// Only captures naming a known argument of the target method enter
	// the pool.
	for k, v := range pathVars {
		if _, ok := entry.method.param(k); ok {
			pool[k] = v
		}
	}

	return pool
}
