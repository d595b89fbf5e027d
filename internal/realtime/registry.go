package realtime

import "sync"

// Subscriber is one attached viewer. The send function is supplied by the
// transport layer and must be safe for concurrent use; it delivers one
// marshaled event or reports an error, after which the subscriber is pruned.
type Subscriber struct {
	ID   string
	send func(payload []byte) error
}

// NewSubscriber wraps a transport send function. The id only has to be
// unique enough for log correlation.
func NewSubscriber(id string, send func(payload []byte) error) *Subscriber {
	return &Subscriber{ID: id, send: send}
}

// Send delivers one payload over the subscriber's transport.
func (s *Subscriber) Send(payload []byte) error {
	return s.send(payload)
}

// Registry tracks which subscribers are attached to which topic. Topics are
// created lazily on first attach and reaped when their last subscriber
// detaches, so an idle registry holds no state.
type Registry struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]struct{}
}

func NewRegistry() *Registry {
	return &Registry{topics: make(map[string]map[*Subscriber]struct{})}
}

// Attach registers sub under topic. Attaching an already attached subscriber
// is a no-op.
func (r *Registry) Attach(topic string, sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.topics[topic]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		r.topics[topic] = subs
	}
	subs[sub] = struct{}{}
}

// Detach removes sub from topic, dropping the topic entirely once it has no
// subscribers left. Detaching an unknown subscriber is a no-op, so the prune
// path and the connection teardown path can race safely.
func (r *Registry) Detach(topic string, sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.topics[topic]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(r.topics, topic)
	}
}

// Subscribers returns a snapshot of the subscribers attached to topic.
// Broadcasts iterate the snapshot, never the live map.
func (r *Registry) Subscribers(topic string) []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs, ok := r.topics[topic]
	if !ok {
		return nil
	}
	out := make([]*Subscriber, 0, len(subs))
	for sub := range subs {
		out = append(out, sub)
	}
	return out
}

// Count reports how many subscribers are attached to topic.
func (r *Registry) Count(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[topic])
}

// TopicCount reports how many topics currently have subscribers.
func (r *Registry) TopicCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics)
}
