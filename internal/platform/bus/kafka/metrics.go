package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wattgrid_bus_published_total",
		Help: "Messages published to the event bus, by topic",
	}, []string{"topic"})

	publishErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wattgrid_bus_publish_errors_total",
		Help: "Failed publishes to the event bus, by topic",
	}, []string{"topic"})

	consumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wattgrid_bus_consumed_total",
		Help: "Messages consumed from the event bus, by topic",
	}, []string{"topic"})

	handlerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wattgrid_bus_handler_errors_total",
		Help: "Handler failures that left a message unacknowledged, by topic",
	}, []string{"topic"})

	handleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wattgrid_bus_handle_duration_seconds",
		Help:    "Time spent in message handlers, by topic",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"topic"})
)
