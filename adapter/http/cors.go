package http

import "net/http"

// WithCORS wraps a handler with a permissive cross-origin policy and answers
// pre-flight (OPTIONS) requests directly, so browser front-ends can call the
// API from any host without a proxy in between.
func WithCORS(next http.Handler) http.Handler {
	if next == nil {
		return nil
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		// Credentialed requests need the concrete origin echoed back; the
		// wildcard only serves plain requests.
		if origin := r.Header.Get("Origin"); origin != "" {
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Set("Vary", "Origin, Access-Control-Request-Headers, Access-Control-Request-Method")
		} else {
			header.Set("Access-Control-Allow-Origin", "*")
		}

		allowHeaders := r.Header.Get("Access-Control-Request-Headers")
		if allowHeaders == "" {
			allowHeaders = "Content-Type, Authorization"
		}
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		header.Set("Access-Control-Allow-Headers", allowHeaders)
		header.Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
