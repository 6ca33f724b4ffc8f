package badges

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// метрики

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_events_total",
			Help: "Кол-во обработанных событий по результату",
		},
		[]string{"event_type", "result"},
	)

	badgesAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Кол-во выданных бейджей",
		},
		[]string{"badge"},
	)

	codesMinted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "badges_codes_minted_total",
			Help: "Кол-во выпущенных кодов скидок",
		},
	)

	evaluateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "badges_evaluate_duration_seconds",
			Help:    "Продолжительность оценки события",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)
)

// результат обработки события
const (
	resultAwarded   = "awarded"
	resultNone      = "none"
	resultDuplicate = "duplicate"
	resultDisabled  = "disabled"
	resultInvalid   = "invalid"
	resultError     = "error"
)
