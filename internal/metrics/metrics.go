// Package metrics exposes the server's Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	// Simulation
	TicksTotal     prometheus.Counter
	TickDuration   prometheus.Histogram
	RoomsActive    prometheus.Gauge
	RoomProduction *prometheus.GaugeVec
	OverheatsTotal prometheus.Counter
	MarketPrice    *prometheus.GaugeVec

	// Commands
	CommandsTotal *prometheus.CounterVec

	// Transport
	WSConnections prometheus.Gauge

	// Persistence
	SavesTotal   *prometheus.CounterVec
	SaveDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	r := &Registry{registry: reg}
	f := promauto.With(reg)

	r.TicksTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "unitcoin_ticks_total",
		Help: "Total number of simulation ticks across all rooms",
	})
	r.TickDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "unitcoin_tick_duration_seconds",
		Help:    "Time spent running one room tick",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})
	r.RoomsActive = f.NewGauge(prometheus.GaugeOpts{
		Name: "unitcoin_rooms_active",
		Help: "Number of rooms held in memory",
	})
	r.RoomProduction = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "unitcoin_room_production_per_minute",
		Help: "UnitCoin production rate of a room at its last tick",
	}, []string{"room"})
	r.OverheatsTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "unitcoin_overheats_total",
		Help: "Number of times a PC entered the overheated state",
	})
	r.MarketPrice = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "unitcoin_market_price",
		Help: "Current UnitCoin price per room",
	}, []string{"room"})
	r.CommandsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "unitcoin_commands_total",
		Help: "Player commands by type and outcome",
	}, []string{"command", "status"}) // status: ok, rejected
	r.WSConnections = f.NewGauge(prometheus.GaugeOpts{
		Name: "unitcoin_ws_connections",
		Help: "Open websocket connections",
	})
	r.SavesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "unitcoin_saves_total",
		Help: "Room save attempts by outcome",
	}, []string{"status"})
	r.SaveDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "unitcoin_save_duration_seconds",
		Help:    "Time spent writing one room save",
		Buckets: prometheus.DefBuckets,
	})
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordTick records one room tick.
func (r *Registry) RecordTick(room string, production float64, overheats int, d time.Duration) {
	r.TicksTotal.Inc()
	r.TickDuration.Observe(d.Seconds())
	r.RoomProduction.WithLabelValues(room).Set(production)
	if overheats > 0 {
		r.OverheatsTotal.Add(float64(overheats))
	}
}

// RecordCommand counts a player command. A nil err is "ok".
func (r *Registry) RecordCommand(command string, err error) {
	status := "ok"
	if err != nil {
		status = "rejected"
	}
	r.CommandsTotal.WithLabelValues(command, status).Inc()
}

// RecordSave records a save attempt.
func (r *Registry) RecordSave(err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.SavesTotal.WithLabelValues(status).Inc()
	r.SaveDuration.Observe(d.Seconds())
}

func (r *Registry) SetMarketPrice(room string, price float64) {
	r.MarketPrice.WithLabelValues(room).Set(price)
}
