package inmemory

import (
	"context"
	"sync"

	"github.com/sharetube/watchparty/internal/repository/broker"
	"golang.org/x/exp/maps"
)

// Broker routes messages to subscribers registered in this process.
type Broker struct {
	subscribers map[string]broker.Subscriber
	topics      map[string]map[string]struct{}
	mu          sync.RWMutex
}

func New() *Broker {
	return &Broker{
		subscribers: make(map[string]broker.Subscriber),
		topics:      make(map[string]map[string]struct{}),
	}
}

func (b *Broker) Register(sub broker.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[sub.ID()] = sub
}

// Unregister drops the subscriber and all of its topic memberships.
func (b *Broker) Unregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, id)
	for topic, members := range b.topics {
		delete(members, id)
		if len(members) == 0 {
			delete(b.topics, topic)
		}
	}
}

func (b *Broker) Join(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members, ok := b.topics[topic]
	if !ok {
		members = make(map[string]struct{})
		b.topics[topic] = members
	}
	members[id] = struct{}{}
}

func (b *Broker) Leave(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members, ok := b.topics[topic]
	if !ok {
		return
	}

	delete(members, id)
	if len(members) == 0 {
		delete(b.topics, topic)
	}
}

func (b *Broker) CloseTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.topics, topic)
}

func (b *Broker) Members(topic string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return maps.Keys(b.topics[topic])
}

func (b *Broker) Publish(_ context.Context, topic string, msg *broker.Message) error {
	b.Deliver(topic, msg)
	return nil
}

// Deliver hands msg to every local subscriber of topic.
func (b *Broker) Deliver(topic string, msg *broker.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.recipients(topic, msg, func(sub broker.Subscriber) {
		sub.Deliver(msg)
	})
}

// Evict closes every local subscriber msg is addressed to and returns how
// many were closed.
func (b *Broker) Evict(topic string, msg *broker.Message) int {
	var subs []broker.Subscriber

	b.mu.RLock()
	b.recipients(topic, msg, func(sub broker.Subscriber) {
		subs = append(subs, sub)
	})
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.Close()
	}

	return len(subs)
}

// recipients must be called with mu held.
func (b *Broker) recipients(topic string, msg *broker.Message, fn func(broker.Subscriber)) {
	if id, ok := broker.ParseConnTopic(topic); ok {
		if sub, ok := b.subscribers[id]; ok && !msg.Excludes(id) {
			fn(sub)
		}
		return
	}

	for id := range b.topics[topic] {
		if msg.Excludes(id) {
			continue
		}

		if sub, ok := b.subscribers[id]; ok {
			fn(sub)
		}
	}
}
