package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "grams"

const (
	NameActionsTotal    = "actions_total"
	NameFeedSubscribers = "feed_subscribers"
	NameFeedDropped     = "feed_dropped_events_total"
	LabelAction         = "action"
	LabelOutcome        = "outcome"
)

// Outcome label values.
const (
	OutcomeOK              = "ok"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeNotFound        = "not_found"
	OutcomeInvalid         = "invalid"
	OutcomeError           = "error"
)

var GramActions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameActionsTotal,
		Help:      "Gram resource actions by outcome",
		Namespace: Namespace,
	},
	[]string{LabelAction, LabelOutcome},
)

var FeedSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name:      NameFeedSubscribers,
		Help:      "Connected live feed subscribers",
		Namespace: Namespace,
	},
)

var FeedDropped = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameFeedDropped,
		Help:      "Feed events dropped because a subscriber or the hub was saturated",
		Namespace: Namespace,
	},
)
