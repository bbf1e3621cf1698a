package event

import (
	"context"
	"errors"
)

// Multi fans a single event out to several publishers, e.g. the in-process
// bus plus a Kafka mirror.
type Multi struct {
	publishers []Publisher
}

func NewMulti(publishers ...Publisher) *Multi {
	return &Multi{publishers: publishers}
}

func (m *Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
