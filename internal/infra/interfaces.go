package infra

import (
	"context"
	"log"
)

type EventPublisher interface {
	Publish(ctx context.Context, event string, data any) error
}

// FanOut delivers every event to all publishers. A failing publisher is
// logged and does not stop the others.
type FanOut []EventPublisher

func (f FanOut) Publish(ctx context.Context, event string, data any) error {
	var first error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event, data); err != nil {
			log.Printf("publish %s failed: %v", event, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
