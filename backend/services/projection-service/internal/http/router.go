package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Devices http.HandlerFunc
	Device  http.HandlerFunc
	Health  http.HandlerFunc
	Metrics http.Handler
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Devices != nil {
		mux.Handle("/devices", method(http.MethodGet, routes.Devices))
	}
	if routes.Device != nil {
		mux.Handle("/devices/", method(http.MethodGet, routes.Device))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
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
