package web

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// corsMiddleware adds permissive CORS headers for the JSON API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns a handler panic into the "Something went wrong"
// page, or a JSON error for API requests.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil || rec == http.ErrAbortHandler {
				if rec != nil {
					panic(rec)
				}
				return
			}
			detail := fmt.Sprint(rec)
			s.log.Error("panic serving request",
				"method", r.Method, "path", r.URL.Path, "panic", detail, "stack", string(debug.Stack()))
			if wantsJSON(r) {
				writeError(w, http.StatusInternalServerError, detail)
				return
			}
			s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", detail)
		}()
		next.ServeHTTP(w, r)
	})
}
