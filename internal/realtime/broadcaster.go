package realtime

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/giftwell/server/internal/telemetry"
)

// Broadcaster pushes events to every subscriber of a topic. Publish never
// returns an error: transport failures are absorbed here, logged, and
// resolved by pruning the failed subscriber. Callers publish only after
// their own state is committed.
type Broadcaster struct {
	registry *Registry
	log      *zap.Logger
	metrics  *telemetry.Metrics
}

func NewBroadcaster(registry *Registry, log *zap.Logger, metrics *telemetry.Metrics) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{registry: registry, log: log, metrics: metrics}
}

// Publish marshals ev once and sends it to a snapshot of the topic's
// subscribers. Subscribers that fail to take the payload are detached after
// the sweep, so one dead connection cannot starve the rest. Publishing to a
// topic with no subscribers does nothing.
func (b *Broadcaster) Publish(topic string, ev Event) {
	subs := b.registry.Subscribers(topic)
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Error("marshal event",
			zap.String("topic", topic),
			zap.String("event", ev.Type),
			zap.Error(err))
		return
	}

	var dead []*Subscriber
	for _, sub := range subs {
		if err := sub.Send(payload); err != nil {
			b.log.Warn("dropping subscriber after failed send",
				zap.String("topic", topic),
				zap.String("subscriber_id", sub.ID),
				zap.Error(err))
			dead = append(dead, sub)
		}
	}
	for _, sub := range dead {
		b.registry.Detach(topic, sub)
	}

	b.metrics.ObserveBroadcast(ev.Type, len(subs)-len(dead), len(dead))
	b.log.Debug("event published",
		zap.String("topic", topic),
		zap.String("event", ev.Type),
		zap.Int("delivered", len(subs)-len(dead)),
		zap.Int("pruned", len(dead)))
}
