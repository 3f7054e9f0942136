// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import "github.com/luxfi/pubsub"

var _ pubsub.Filterer = (*filterer)(nil)

type filterer struct {
	event Event
}

// NewFilterer matches websocket connections watching any participant of
// [event].
func NewFilterer(event Event) pubsub.Filterer {
	return &filterer{event: event}
}

func (f *filterer) Filter(filters []pubsub.Filter) ([]bool, interface{}) {
	resp := make([]bool, len(filters))
	for _, addr := range f.event.Participants() {
		for i, c := range filters {
			if resp[i] {
				continue
			}
			resp[i] = c.Check(addr[:])
		}
	}
	return resp, f.event
}
