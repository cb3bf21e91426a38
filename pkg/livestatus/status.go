package livestatus

import (
	"github.com/icinga/icinga-livestatus/pkg/com"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"sync/atomic"
	"time"
)

// StatusProvider provides the figures the status table reports.
type StatusProvider interface {
	NumHosts() int
	NumServices() int
	ActiveConnections() int64
	QueuedConnections() int64
	Threads() int
	Connections() uint64
	Requests() uint64
	Commands() uint64
	ProgramStart() time.Time
	LastLogRotation() time.Time
	Version() string
}

// StatsOptions configures the static figures of Stats.
type StatsOptions struct {
	Threads      int
	ProgramStart time.Time
	Version      string
	// LastLogRotation returns the time of the last history log rotation.
	LastLogRotation func() time.Time
}

// Stats counts connections, requests and commands and implements StatusProvider.
// All counters are mirrored into Prometheus collectors.
type Stats struct {
	index   *Index
	options StatsOptions

	active      atomic.Int64
	queued      atomic.Int64
	connections com.Counter
	requests    com.Counter
	commands    com.Counter

	activeGauge      prometheus.Gauge
	queuedGauge      prometheus.Gauge
	connectionsTotal prometheus.Counter
	requestsTotal    *prometheus.CounterVec
	commandsTotal    *prometheus.CounterVec
	commandsDropped  *prometheus.CounterVec
}

// NewStats returns new Stats and registers its collectors with reg.
func NewStats(reg prometheus.Registerer, index *Index, options StatsOptions) *Stats {
	factory := promauto.With(reg)

	s := &Stats{
		index:   index,
		options: options,
		activeGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livestatus_connections_active",
			Help: "Connections currently being answered",
		}),
		queuedGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livestatus_connections_queued",
			Help: "Accepted connections waiting for a free thread",
		}),
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "livestatus_connections_total",
			Help: "Accepted connections total",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "livestatus_requests_total",
			Help: "Requests total per request method",
		}, []string{"method"}),
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "livestatus_commands_total",
			Help: "External commands total per command category",
		}, []string{"category"}),
		commandsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "livestatus_commands_dropped_total",
			Help: "External commands dropped due to errors per command category",
		}, []string{"category"}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "livestatus_hosts",
		Help: "Hosts known to the monitoring core",
	}, func() float64 { return float64(s.NumHosts()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "livestatus_services",
		Help: "Services known to the monitoring core",
	}, func() float64 { return float64(s.NumServices()) })

	return s
}

// ConnectionQueued records an accepted connection waiting for a thread.
func (s *Stats) ConnectionQueued() {
	s.connections.Inc()
	s.connectionsTotal.Inc()
	s.queued.Add(1)
	s.queuedGauge.Inc()
}

// ConnectionStarted records a queued connection being picked up by a thread.
func (s *Stats) ConnectionStarted() {
	s.queued.Add(-1)
	s.queuedGauge.Dec()
	s.active.Add(1)
	s.activeGauge.Inc()
}

// ConnectionDone records the end of an active connection.
func (s *Stats) ConnectionDone() {
	s.active.Add(-1)
	s.activeGauge.Dec()
}

// ConnectionAbandoned records the end of a connection which never got a thread.
func (s *Stats) ConnectionAbandoned() {
	s.queued.Add(-1)
	s.queuedGauge.Dec()
}

// RequestAnswered records a request of the given method, e.g. GET.
func (s *Stats) RequestAnswered(method string) {
	s.requests.Inc()
	s.requestsTotal.WithLabelValues(method).Inc()
}

// CommandDispatched records a command of the given category.
func (s *Stats) CommandDispatched(category CommandCategory) {
	s.commands.Inc()
	s.commandsTotal.WithLabelValues(category.String()).Inc()
}

// CommandDropped records a command of the given category which couldn't be handled.
func (s *Stats) CommandDropped(category CommandCategory) {
	s.commandsDropped.WithLabelValues(category.String()).Inc()
}

func (s *Stats) NumHosts() int {
	return s.index.NumHosts()
}

func (s *Stats) NumServices() int {
	return s.index.NumServices()
}

func (s *Stats) ActiveConnections() int64 {
	return s.active.Load()
}

func (s *Stats) QueuedConnections() int64 {
	return s.queued.Load()
}

func (s *Stats) Threads() int {
	return s.options.Threads
}

func (s *Stats) Connections() uint64 {
	return s.connections.Total()
}

func (s *Stats) Requests() uint64 {
	return s.requests.Total()
}

func (s *Stats) Commands() uint64 {
	return s.commands.Total()
}

// Since returns the numbers of connections, requests and commands since the last call.
func (s *Stats) Since() (connections, requests, commands uint64) {
	return s.connections.Reset(), s.requests.Reset(), s.commands.Reset()
}

func (s *Stats) ProgramStart() time.Time {
	return s.options.ProgramStart
}

func (s *Stats) LastLogRotation() time.Time {
	if s.options.LastLogRotation == nil {
		return time.Time{}
	}

	return s.options.LastLogRotation()
}

func (s *Stats) Version() string {
	return s.options.Version
}

// Assert interface compliance.
var _ StatusProvider = (*Stats)(nil)
