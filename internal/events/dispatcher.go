package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

const defaultQueueSize = 1024

type queued struct {
	ctx     context.Context
	topic   string
	payload []byte
}

// Dispatcher publishes to its sinks on a background goroutine so request
// paths never wait on event delivery. A full queue drops the event.
type Dispatcher struct {
	log   *zap.Logger
	sinks []Publisher
	queue chan queued

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	started bool
}

func NewDispatcher(log *zap.Logger, queueSize int, sinks ...Publisher) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Dispatcher{
		log:   log.Named("events.dispatcher"),
		sinks: sinks,
		queue: make(chan queued, queueSize),
		done:  make(chan struct{}),
	}
}

func (d *Dispatcher) Publish(ctx context.Context, topic string, payload []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errors.New("event dispatcher stopped")
	}

	select {
	case d.queue <- queued{ctx: context.WithoutCancel(ctx), topic: topic, payload: payload}:
		return nil
	default:
		d.log.Warn("event queue full, dropping event", zap.String("topic", topic))
		return nil
	}
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	go d.run()
}

// Stop closes the queue and waits for queued events to drain or ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for item := range d.queue {
		for _, sink := range d.sinks {
			if err := sink.Publish(item.ctx, item.topic, item.payload); err != nil {
				d.log.Warn("event sink failed", zap.String("topic", item.topic), zap.Error(err))
			}
		}
	}
}
