// Package metrics exposes Prometheus collectors for the bot runtime.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "demobot"

// Collectors groups every metric the bot records. A nil *Collectors is valid
// and records nothing.
type Collectors struct {
	registry *prometheus.Registry

	updates         *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	messages        *prometheus.CounterVec
	sendFailures    *prometheus.CounterVec
	events          *prometheus.CounterVec
	users           prometheus.Gauge
	conversations   prometheus.Gauge
}

// New builds collectors on a private registry that also carries the Go
// runtime and process collectors.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Inbound updates by kind.",
		}, []string{"kind"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Handler latency by handler and status.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"handler", "status"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Outbound messages by API action.",
		}, []string{"action"}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Outbound calls that failed after retries, by error kind.",
		}, []string{"kind"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Domain events such as registrations and polls.",
		}, []string{"event"}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users",
			Help:      "Known user profiles at the last stats snapshot.",
		}),
		conversations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Users in the middle of a conversation at the last stats snapshot.",
		}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.updates, c.handlerDuration, c.messages, c.sendFailures, c.events,
		c.users, c.conversations,
	)
	return c
}

// Registry returns the registry backing the collectors.
func (c *Collectors) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// IncUpdate counts one inbound update of the given kind.
func (c *Collectors) IncUpdate(kind string) {
	if c == nil {
		return
	}
	c.updates.WithLabelValues(kind).Inc()
}

// ObserveHandler records a handler run.
func (c *Collectors) ObserveHandler(handler, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.handlerDuration.WithLabelValues(handler, status).Observe(d.Seconds())
}

// IncMessage counts one successful outbound call.
func (c *Collectors) IncMessage(action string) {
	if c == nil {
		return
	}
	c.messages.WithLabelValues(action).Inc()
}

// IncSendFailure counts one outbound call that was given up on.
func (c *Collectors) IncSendFailure(kind string) {
	if c == nil {
		return
	}
	c.sendFailures.WithLabelValues(kind).Inc()
}

// IncEvent counts a named domain event.
func (c *Collectors) IncEvent(event string) {
	if c == nil {
		return
	}
	c.events.WithLabelValues(event).Inc()
}

// SetSnapshot publishes the latest user and conversation counts.
func (c *Collectors) SetSnapshot(users, conversations int) {
	if c == nil {
		return
	}
	c.users.Set(float64(users))
	c.conversations.Set(float64(conversations))
}
