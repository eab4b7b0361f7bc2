package rules

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-wide counters aggregated across worker caches. Per-worker detail
// lives on the Cache itself (Compilations, Len); these exist for operators
// watching a whole pipeline stage.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rulegate_plan_cache_hits_total",
		Help: "Plan cache lookups served from cache.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rulegate_plan_cache_misses_total",
		Help: "Plan cache lookups that triggered compilation.",
	})

	cacheMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rulegate_plan_cache_schema_mismatches_total",
		Help: "Cache hits rejected because the record schema fingerprint changed.",
	})

	compilations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rulegate_compilations_total",
		Help: "Successful rule compilations.",
	})

	evaluationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rulegate_evaluation_errors_total",
		Help: "Evaluation failures by outcome code.",
	}, []string{"code"})
)
