package httpserver

import "net/http"

// Routes defines HTTP endpoints.
type Routes struct {
	Submit  http.Handler
	Health  http.Handler
	Metrics http.Handler
	// Auth wraps Submit when set.
	Auth func(http.Handler) http.Handler
}

// NewRouter sets up HTTP routing.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Submit != nil {
		submit := routes.Submit
		if routes.Auth != nil {
			submit = routes.Auth(submit)
		}
		mux.Handle("/telemetry", method(http.MethodPost, submit.ServeHTTP))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health.ServeHTTP))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, routes.Metrics.ServeHTTP))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
