package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/chainindex/archive-gateway/internal/httpapi/middlewares"
)

// router is the Mux HTTP router wrapper, down to the one convenience the
// routes below need.
type router struct {
	r *mux.Router
}

func newRouter() *router {
	r := mux.NewRouter()
	r.PathPrefix("/").Methods(http.MethodOptions)
	r.Use(middlewares.RequestID)
	return &router{r}
}

func (r *router) get(uri string, op string, f http.HandlerFunc) {
	r.r.Path(uri).Methods(http.MethodGet).Handler(otelhttp.NewHandler(f, op))
}

func (r *router) post(uri string, op string, f http.HandlerFunc) {
	r.r.Path(uri).Methods(http.MethodPost).Handler(otelhttp.NewHandler(f, op))
}

// Serve starts listening on addr, wiring h's operations to their routes.
func Serve(addr string, h *Handlers) error {
	r := newRouter()
	r.post("/batch", "batch", h.Batch)
	r.get("/metadata", "metadata", h.Metadata)
	r.get("/metadata/{id}", "metadata_by_id", h.MetadataByID)
	r.get("/status", "status", h.Status)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r.r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}
