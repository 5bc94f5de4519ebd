package trellis

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports Hub statistics as Prometheus metrics.
type Collector struct {
	hub *Hub

	frames      *prometheus.Desc
	messages    *prometheus.Desc
	structural  *prometheus.Desc
	violations  *prometheus.Desc
	reclaimed   *prometheus.Desc
	nodes       *prometheus.Desc
	queueLength *prometheus.Desc
}

// NewCollector returns a collector for hub. Register it with a
// prometheus.Registerer; values are read from Hub.Stats on every scrape.
func NewCollector(hub *Hub) *Collector {
	return &Collector{
		hub: hub,
		frames: prometheus.NewDesc("trellis_frames_total",
			"Frame updates run by the hub.", nil, nil),
		messages: prometheus.NewDesc("trellis_messages_total",
			"Messages drained from the mailbox, by outcome.", []string{"outcome"}, nil),
		structural: prometheus.NewDesc("trellis_structural_issues_total",
			"Structural inconsistencies detected while applying messages.", []string{"severity"}, nil),
		violations: prometheus.NewDesc("trellis_contract_violations_total",
			"Operations whose payload kind did not match the target node.", nil, nil),
		reclaimed: prometheus.NewDesc("trellis_nodes_reclaimed_total",
			"Destroyed nodes whose slots were freed.", nil, nil),
		nodes: prometheus.NewDesc("trellis_nodes",
			"Nodes in the store, by state.", []string{"state"}, nil),
		queueLength: prometheus.NewDesc("trellis_mailbox_length",
			"Messages waiting for the next frame update.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.frames
	ch <- c.messages
	ch <- c.structural
	ch <- c.violations
	ch <- c.reclaimed
	ch <- c.nodes
	ch <- c.queueLength
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.hub.Stats()
	ch <- prometheus.MustNewConstMetric(c.frames, prometheus.CounterValue, float64(s.Frames))
	ch <- prometheus.MustNewConstMetric(c.messages, prometheus.CounterValue, float64(s.Applied), "applied")
	ch <- prometheus.MustNewConstMetric(c.messages, prometheus.CounterValue, float64(s.Dropped), "dropped")
	ch <- prometheus.MustNewConstMetric(c.structural, prometheus.CounterValue, float64(s.StructuralWarnings), "warning")
	ch <- prometheus.MustNewConstMetric(c.structural, prometheus.CounterValue, float64(s.StructuralErrors), "error")
	ch <- prometheus.MustNewConstMetric(c.violations, prometheus.CounterValue, float64(s.ContractViolations))
	ch <- prometheus.MustNewConstMetric(c.reclaimed, prometheus.CounterValue, float64(s.Reclaimed))
	ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(s.Live), "live")
	ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(s.Pending), "pending")
	ch <- prometheus.MustNewConstMetric(c.queueLength, prometheus.GaugeValue, float64(s.Queued))
}

var _ prometheus.Collector = (*Collector)(nil)
