package events

// ChannelBus is an in-process, buffered fan-out Sink: every Emit pushes
// onto a fixed-size channel, identical in shape to the teacher's
// streams/jsonrpc/client.Client.State() channel consumed by
// cmd/client/main.go's select loop. A full buffer drops the incoming
// event rather than blocking the caller — pool operations must never
// stall behind a slow observer (spec.md §5: no operation suspends
// mid-update).
type ChannelBus struct {
	events chan Event
}

// NewChannelBus constructs a ChannelBus with the given buffer size.
func NewChannelBus(bufferSize int) *ChannelBus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &ChannelBus{events: make(chan Event, bufferSize)}
}

// Emit implements Sink. If the buffer is full, the event is dropped
// rather than blocking.
func (b *ChannelBus) Emit(e Event) {
	select {
	case b.events <- e:
	default:
	}
}

// Events returns the channel subscribers should range over.
func (b *ChannelBus) Events() <-chan Event {
	return b.events
}

// Close closes the underlying channel. No further Emit calls may
// happen after Close.
func (b *ChannelBus) Close() {
	close(b.events)
}

// MultiSink fans a single Emit out to several sinks, e.g. a
// ChannelBus for application subscribers and a metrics.Metrics for
// Prometheus instrumentation, wired together by router.New.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}
