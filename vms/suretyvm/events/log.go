// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"sync"

	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"github.com/luxfi/pubsub"
)

// Publisher fans a published event out to external listeners.
type Publisher interface {
	Publish(pubsub.Filterer)
}

// Log sequences published events, keeps the most recent [retention] of them
// for polling and delivers each one to every subscriber.
type Log struct {
	log       log.Logger
	retention int

	lock        sync.Mutex
	lastSeq     uint64
	backlog     []Event
	nextSubID   uint64
	subscribers map[uint64]*subscriber
	publisher   Publisher
}

type subscriber struct {
	ch chan Event
	// empty matches every kind
	kinds set.Set[Kind]
}

func (s *subscriber) matches(kind Kind) bool {
	return s.kinds.Len() == 0 || s.kinds.Contains(kind)
}

func NewLog(logger log.Logger, retention int) *Log {
	return &Log{
		log:         logger,
		retention:   retention,
		subscribers: make(map[uint64]*subscriber),
	}
}

// SetPublisher registers the external fan-out, replacing any previous one.
func (l *Log) SetPublisher(p Publisher) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.publisher = p
}

// Publish assigns sequence numbers to [events] in order and delivers them.
// Subscribers that are not keeping up miss the event rather than block the
// publisher. The sequenced events are returned.
func (l *Log) Publish(events ...Event) []Event {
	l.lock.Lock()
	defer l.lock.Unlock()

	published := make([]Event, len(events))
	for i, event := range events {
		l.lastSeq++
		event.Seq = l.lastSeq
		published[i] = event

		l.backlog = append(l.backlog, event)
		for id, sub := range l.subscribers {
			if !sub.matches(event.Kind) {
				continue
			}
			select {
			case sub.ch <- event:
			default:
				l.log.Warn("dropping event for slow subscriber",
					log.Uint64("subscriber", id),
					log.Uint64("seq", event.Seq),
					log.String("kind", string(event.Kind)),
				)
			}
		}
		if l.publisher != nil {
			l.publisher.Publish(NewFilterer(event))
		}
	}
	if excess := len(l.backlog) - l.retention; excess > 0 {
		l.backlog = append(l.backlog[:0:0], l.backlog[excess:]...)
	}
	return published
}

// Since returns, oldest first, up to [limit] retained events with a sequence
// number greater than [seq]. A non-positive limit returns all of them.
func (l *Log) Since(seq uint64, limit int) []Event {
	l.lock.Lock()
	defer l.lock.Unlock()

	var result []Event
	for _, event := range l.backlog {
		if event.Seq <= seq {
			continue
		}
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, event)
	}
	return result
}

// LastSeq returns the sequence number of the most recent event.
func (l *Log) LastSeq() uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.lastSeq
}

// Subscribe returns a channel receiving the events of [kinds], or of every
// kind if none are given, published after the call and a function that
// unsubscribes and closes the channel.
func (l *Log) Subscribe(buffer int, kinds ...Kind) (<-chan Event, func()) {
	l.lock.Lock()
	defer l.lock.Unlock()

	id := l.nextSubID
	l.nextSubID++
	ch := make(chan Event, buffer)
	l.subscribers[id] = &subscriber{
		ch:    ch,
		kinds: set.Of(kinds...),
	}

	cancel := func() {
		l.lock.Lock()
		defer l.lock.Unlock()

		if _, ok := l.subscribers[id]; ok {
			delete(l.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Close unsubscribes every subscriber.
func (l *Log) Close() {
	l.lock.Lock()
	defer l.lock.Unlock()

	for id, sub := range l.subscribers {
		delete(l.subscribers, id)
		close(sub.ch)
	}
}
