// Package middleware provides observability for the route state HTTP API.
//
// # OpenTelemetry
//
// OpenTelemetry traces every request with a server span named after the
// chi route pattern:
//
//	mux.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("routestate"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// # Prometheus
//
// Metrics records request counts and latency, and doubles as a
// router.Observer so URL and state imports are counted too:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("myapp"))
//	r, _ := router.New(root, router.WithObserver(m))
//	mux.Use(m.Handler)
//	mux.Handle("/metrics", promhttp.Handler())
package middleware
