package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{
		"Accept", "Accept-Language", "Content-Type", CorrelationHeader, SessionHeader,
	}, ", ")
)

// CORSConfig configures cross-origin access to the browse API.
type CORSConfig struct {
	// AllowedOrigins lists exact origins. "*" admits any origin.
	AllowedOrigins []string
	// ExposedHeaders are readable by scripts on the storefront page.
	ExposedHeaders []string
	// MaxAge is the preflight cache lifetime in seconds; 0 means one hour.
	MaxAge           int
	AllowCredentials bool
	// Environment "development" admits any origin regardless of the list.
	Environment string
}

// CORS answers preflight requests and decorates responses for allowed
// origins. A preflight from an origin that is not allowed gets 403.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	wildcard := cfg.Environment == "development" || slices.Contains(cfg.AllowedOrigins, "*")
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 3600
	}
	exposed := strings.Join(cfg.ExposedHeaders, ", ")

	allowOrigin := func(origin string) string {
		switch {
		case wildcard && cfg.AllowCredentials && origin != "":
			return origin
		case wildcard:
			return "*"
		case origin != "" && slices.Contains(cfg.AllowedOrigins, origin):
			return origin
		}
		return ""
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := allowOrigin(origin)
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			h := w.Header()
			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				if allowed != "*" {
					h.Add("Vary", "Origin")
				}
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if exposed != "" {
					h.Set("Access-Control-Expose-Headers", exposed)
				}
			}

			if !preflight {
				next.ServeHTTP(w, r)
				return
			}
			if allowed == "" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
