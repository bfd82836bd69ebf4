package ingestrouter

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"wattgrid/internal/platform/bus"
	"wattgrid/pkg/events"
)

// Router consumes the raw ingest stream and republishes each measurement to
// its device's partition. It is stateless; the partition function is the
// only routing rule.
type Router struct {
	publisher    bus.Publisher
	replicaCount int
	logger       *slog.Logger
	routed       *prometheus.CounterVec
}

var routedTotal *prometheus.CounterVec

func routedMetric() *prometheus.CounterVec {
	if routedTotal == nil {
		routedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wattgrid_router_measurements_routed_total",
			Help: "Measurements routed, by target partition",
		}, []string{"partition"})
	}
	return routedTotal
}

// NewRouter creates a router for the given replica count.
func NewRouter(publisher bus.Publisher, replicaCount int, logger *slog.Logger) *Router {
	return &Router{
		publisher:    publisher,
		replicaCount: replicaCount,
		logger:       logger,
		routed:       routedMetric(),
	}
}

// HandleRaw forwards one raw measurement to its partition. Malformed
// payloads are dropped with a log; publish errors propagate so the raw
// stream redelivers.
func (r *Router) HandleRaw(ctx context.Context, msg *bus.Message) error {
	m, err := events.DecodeMeasurement(msg.Value)
	if err != nil {
		r.logger.Error("dropping malformed raw measurement", "error", err)
		return nil
	}

	partition := Partition(m.DeviceID, r.replicaCount)
	if err := r.publisher.PublishToPartition(ctx, bus.TopicMeasurements, partition, []byte(m.DeviceID), msg.Value); err != nil {
		return err
	}

	r.routed.WithLabelValues(strconv.Itoa(int(partition))).Inc()
	r.logger.Debug("measurement routed", "device_id", m.DeviceID, "partition", partition)
	return nil
}
