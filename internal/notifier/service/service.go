// Package service routes push messages from the broker to connected
// clients.
package service

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"wattgrid/internal/platform/bus"
	"wattgrid/pkg/events"
)

// Sink delivers payloads to connected clients. The WebSocket hub implements
// it; tests use a recording fake.
type Sink interface {
	SendToUser(userID string, payload []byte)
	Broadcast(payload []byte)
}

// Service consumes the push stream and fans messages out.
type Service struct {
	sink      Sink
	logger    *slog.Logger
	delivered *prometheus.CounterVec
}

var deliveredTotal *prometheus.CounterVec

func deliveredMetric() *prometheus.CounterVec {
	if deliveredTotal == nil {
		deliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wattgrid_notifier_pushes_total",
			Help: "Push messages fanned out, by type",
		}, []string{"type"})
	}
	return deliveredTotal
}

// New wires the notifier service.
func New(sink Sink, logger *slog.Logger) *Service {
	return &Service{sink: sink, logger: logger, delivered: deliveredMetric()}
}

// HandlePush routes one push message. Alerts go only to the addressed
// user's connections; everything else is broadcast. Fanout never fails the
// delivery: a disconnected client simply misses the message.
func (s *Service) HandlePush(_ context.Context, msg *bus.Message) error {
	p, err := events.DecodePush(msg.Value)
	if err != nil {
		s.logger.Error("dropping malformed push message", "error", err)
		return nil
	}

	switch {
	case p.Type == events.PushAlert && p.UserID != "":
		s.sink.SendToUser(p.UserID, msg.Value)
		s.logger.Info("alert delivered", "user_id", p.UserID, "device_id", p.DeviceID)
	case p.Type == events.PushAlert:
		s.logger.Warn("alert without addressee dropped", "device_id", p.DeviceID)
		return nil
	default:
		s.sink.Broadcast(msg.Value)
		s.logger.Debug("push broadcast", "type", p.Type, "device_id", p.DeviceID)
	}
	s.delivered.WithLabelValues(p.Type).Inc()
	return nil
}
