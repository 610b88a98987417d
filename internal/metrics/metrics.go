package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry groups the counters exported by the versioning pipeline. All
// helper methods are nil-safe so callers can run without metrics wired.
type Registry struct {
	saves     *prometheus.CounterVec
	conflicts prometheus.Counter
	diffs     prometheus.Counter
	redirects prometheus.Counter
	flags     prometheus.Counter
}

// New registers the versioning counters with the given registerer.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "georegistry_saves_total",
			Help: "Successful record saves by kind.",
		}, []string{"kind"}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "georegistry_version_conflicts_total",
			Help: "Saves rejected by the optimistic version check.",
		}),
		diffs: factory.NewCounter(prometheus.CounterOpts{
			Name: "georegistry_diffs_total",
			Help: "Diffs recorded by the diff engine.",
		}),
		redirects: factory.NewCounter(prometheus.CounterOpts{
			Name: "georegistry_identifier_redirects_total",
			Help: "Identifier redirects applied.",
		}),
		flags: factory.NewCounter(prometheus.CounterOpts{
			Name: "georegistry_flags_total",
			Help: "Version flags created.",
		}),
	}
}

func (r *Registry) RecordSave(kind string) {
	if r == nil {
		return
	}
	r.saves.WithLabelValues(kind).Inc()
}

func (r *Registry) RecordConflict() {
	if r == nil {
		return
	}
	r.conflicts.Inc()
}

func (r *Registry) RecordDiff() {
	if r == nil {
		return
	}
	r.diffs.Inc()
}

func (r *Registry) RecordRedirect() {
	if r == nil {
		return
	}
	r.redirects.Inc()
}

func (r *Registry) RecordFlag() {
	if r == nil {
		return
	}
	r.flags.Inc()
}
