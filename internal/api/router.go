package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"georegistry/internal/repository"
)

// NewRouter assembles the full HTTP surface: record CRUD per kind, version
// history, flags, the diff changefeed, the history export and operational
// endpoints.
func NewRouter(
	handlers *Handlers,
	sessions repository.SessionRepository,
	exportHandler http.Handler,
	importHandler http.Handler,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(SessionAuth(sessions))

		r.Get("/diffs", handlers.listDiffs)
		r.Get("/diffs/{increment}", handlers.getDiff)
		r.Handle("/export", exportHandler)
		r.Handle("/import", importHandler)

		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/", handlers.listRecords)
			r.Post("/", handlers.createRecord)

			r.Route("/{ref}", func(r chi.Router) {
				r.Get("/", handlers.getRecord)
				r.Put("/", handlers.updateRecord)
				r.Delete("/", handlers.deleteRecord)

				r.Get("/versions", handlers.listVersions)
				r.Get("/versions/{sequential}", handlers.getVersion)
				r.Post("/versions/{sequential}/flags", handlers.flagVersion)
			})
		})
	})

	return r
}
