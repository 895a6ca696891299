package events

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"auction-engine/utils"
)

// Publisher accepts events from inside a lot's critical section and must never block.
type Publisher interface {
	Publish(evts ...Event)
}

// Sink delivers events to one downstream system
type Sink interface {
	Name() string
	Deliver(ctx context.Context, evt Event) error
}

// Dispatcher fans events out to sinks. Each sink owns a bounded queue drained by its own
// goroutine, so every sink sees events in enqueue order and a slow sink only delays itself.
type Dispatcher struct {
	lanes   []*lane
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// lane is the ordered queue in front of one sink
type lane struct {
	sink  Sink
	queue chan Event
}

// NewDispatcher creates a dispatcher with a bounded queue per sink
func NewDispatcher(buffer int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 1024
	}
	d := &Dispatcher{lanes: make([]*lane, 0, len(sinks))}
	for _, s := range sinks {
		d.lanes = append(d.lanes, &lane{sink: s, queue: make(chan Event, buffer)})
	}
	return d
}

// Publish enqueues events on every sink; a sink whose queue is full loses the event and it is logged.
func (d *Dispatcher) Publish(evts ...Event) {
	for _, evt := range evts {
		for _, l := range d.lanes {
			select {
			case l.queue <- evt:
			default:
				d.dropped.Add(1)
				utils.Warn("event dropped: sink queue full", map[string]any{
					"sink":       l.sink.Name(),
					"type":       evt.Type,
					"auction_id": evt.AuctionID,
					"lot_id":     evt.LotID,
				})
			}
		}
	}
}

// Dropped returns how many deliveries were discarded because a sink queue was full
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Start runs one delivery loop per sink until ctx is cancelled, then drains what is queued.
func (d *Dispatcher) Start(ctx context.Context) {
	for _, l := range d.lanes {
		d.wg.Add(1)
		go func(l *lane) {
			defer d.wg.Done()
			l.run(ctx)
		}(l)
	}
}

// Wait blocks until every delivery loop has exited
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (l *lane) run(ctx context.Context) {
	for {
		select {
		case evt := <-l.queue:
			l.deliver(ctx, evt)
		case <-ctx.Done():
			l.drain()
			return
		}
	}
}

func (l *lane) drain() {
	for {
		select {
		case evt := <-l.queue:
			l.deliver(context.Background(), evt)
		default:
			return
		}
	}
}

func (l *lane) deliver(ctx context.Context, evt Event) {
	if err := safeDeliver(ctx, l.sink, evt); err != nil {
		utils.Error("event delivery failed", map[string]any{
			"sink":   l.sink.Name(),
			"type":   evt.Type,
			"lot_id": evt.LotID,
			"error":  err.Error(),
		})
	}
}

// safeDeliver keeps one misbehaving sink from killing the delivery loop
func safeDeliver(ctx context.Context, s Sink, evt Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			utils.Error("panic in event sink", map[string]any{
				"sink":  s.Name(),
				"err":   p,
				"stack": string(debug.Stack()),
			})
			err = fmt.Errorf("sink %s panicked: %v", s.Name(), p)
		}
	}()
	return s.Deliver(ctx, evt)
}

// Recorder is a synchronous Publisher that keeps every event, used in tests and tooling.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(evts ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evts...)
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType filters recorded events by type
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// LogSink writes every event to the structured log
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Deliver(_ context.Context, evt Event) error {
	fields := map[string]any{
		"type":       evt.Type,
		"auction_id": evt.AuctionID,
	}
	if evt.LotID != "" {
		fields["lot_id"] = evt.LotID
	}
	if evt.Amount != nil {
		fields["amount"] = evt.Amount.String()
	}
	if evt.Sequence > 0 {
		fields["sequence"] = evt.Sequence
	}
	if evt.Status != "" {
		fields["status"] = evt.Status
	}
	utils.Debug("domain event", fields)
	return nil
}
