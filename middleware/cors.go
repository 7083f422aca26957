package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds the configuration for the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins a cross-domain request may come from.
	// "*" allows all origins. Default: ["*"].
	AllowOrigins []string

	// AllowMethods lists methods the client may use.
	// Default: ["GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"].
	AllowMethods []string

	// AllowHeaders lists headers the client may send.
	// Default: ["Content-Type", "Accept", "Authorization"].
	AllowHeaders []string

	// ExposeHeaders lists headers safe to expose to clients.
	ExposeHeaders []string

	// AllowCredentials permits requests with credentials.
	AllowCredentials bool

	// MaxAge is how long (seconds) a preflight result may be cached.
	MaxAge int
}

// CORS returns an HTTP middleware answering preflight requests and
// setting CORS headers. Pass nil for a permissive development config.
func CORS(cfg *CORSConfig) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = &CORSConfig{}
	}
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := cfg.AllowMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	headers := cfg.AllowHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "Accept", "Authorization"}
	}

	methodsStr := strings.Join(methods, ", ")
	headersStr := strings.Join(headers, ", ")
	exposedStr := strings.Join(cfg.ExposeHeaders, ", ")
	wildcard := slices.Contains(origins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case wildcard && cfg.AllowCredentials && origin != "":
				// The CORS spec forbids "*" together with credentials;
				// echo the requesting origin instead.
				w.Header().Set("Access-Control-Allow-Origin", origin)
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			if cfg.AllowCredentials && w.Header().Get("Access-Control-Allow-Origin") != "" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methodsStr)
				w.Header().Set("Access-Control-Allow-Headers", headersStr)
				if exposedStr != "" {
					w.Header().Set("Access-Control-Expose-Headers", exposedStr)
				}
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
