// Package metrics collects and exposes Prometheus metrics for the linking
// workflow and the event relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by the services.
type Recorder interface {
	RecordLinkStarted()
	RecordLinkCompleted()
	RecordLinkFailed(stage string)
	RecordPropertySet(path string)
	RecordDisconnect()
	RecordEventForwarded(kind string)
	RecordEventDropped(reason string)
	RecordRelayDeliveryFailure()
}

// Collector implements Recorder on Prometheus counters.
type Collector struct {
	linkStarted      prometheus.Counter
	linkCompleted    prometheus.Counter
	linkFailed       *prometheus.CounterVec
	propertySet      *prometheus.CounterVec
	disconnects      prometheus.Counter
	eventsForwarded  *prometheus.CounterVec
	eventsDropped    *prometheus.CounterVec
	relayDeliveryErr prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		linkStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arnold_link_started_total",
			Help: "Connect prompts issued.",
		}),
		linkCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arnold_link_completed_total",
			Help: "OAuth callbacks that stored a credential.",
		}),
		linkFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arnold_link_failed_total",
			Help: "OAuth callbacks that failed, by stage.",
		}, []string{"stage"}),
		propertySet: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arnold_property_set_total",
			Help: "Analytics property selections stored, by input path.",
		}, []string{"path"}),
		disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arnold_disconnect_total",
			Help: "Credential deletions requested.",
		}),
		eventsForwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arnold_events_forwarded_total",
			Help: "Chat events forwarded to the automation engine, by kind.",
		}, []string{"kind"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arnold_events_dropped_total",
			Help: "Chat events dropped by the relay filter, by reason.",
		}, []string{"reason"}),
		relayDeliveryErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arnold_relay_delivery_failures_total",
			Help: "Engine webhook deliveries that failed.",
		}),
	}

	reg.MustRegister(
		c.linkStarted,
		c.linkCompleted,
		c.linkFailed,
		c.propertySet,
		c.disconnects,
		c.eventsForwarded,
		c.eventsDropped,
		c.relayDeliveryErr,
	)

	return c
}

// RecordLinkStarted counts an issued connect prompt.
func (c *Collector) RecordLinkStarted() { c.linkStarted.Inc() }

// RecordLinkCompleted counts a stored credential.
func (c *Collector) RecordLinkCompleted() { c.linkCompleted.Inc() }

// RecordLinkFailed counts a failed callback at the given stage.
func (c *Collector) RecordLinkFailed(stage string) {
	c.linkFailed.WithLabelValues(stage).Inc()
}

// RecordPropertySet counts a stored property selection ("command" or "menu").
func (c *Collector) RecordPropertySet(path string) {
	c.propertySet.WithLabelValues(path).Inc()
}

// RecordDisconnect counts a disconnect request.
func (c *Collector) RecordDisconnect() { c.disconnects.Inc() }

// RecordEventForwarded counts a forwarded chat event.
func (c *Collector) RecordEventForwarded(kind string) {
	c.eventsForwarded.WithLabelValues(kind).Inc()
}

// RecordEventDropped counts a dropped chat event.
func (c *Collector) RecordEventDropped(reason string) {
	c.eventsDropped.WithLabelValues(reason).Inc()
}

// RecordRelayDeliveryFailure counts a failed engine webhook delivery.
func (c *Collector) RecordRelayDeliveryFailure() { c.relayDeliveryErr.Inc() }

// Handler returns the Prometheus scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop is a Recorder that discards everything; used in tests.
type Noop struct{}

func (Noop) RecordLinkStarted()              {}
func (Noop) RecordLinkCompleted()            {}
func (Noop) RecordLinkFailed(string)         {}
func (Noop) RecordPropertySet(string)        {}
func (Noop) RecordDisconnect()               {}
func (Noop) RecordEventForwarded(string)     {}
func (Noop) RecordEventDropped(string)       {}
func (Noop) RecordRelayDeliveryFailure()     {}
