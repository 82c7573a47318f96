package player

import "sync"

// emitter decouples backend calls from handler execution: events are
// queued and delivered in order on a goroutine owned by the backend
// instance, so a handler may call back into the controller without
// deadlocking.
type emitter struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// emitterQueueSize bounds the undelivered-event backlog. A single
// controller call produces at most three events (playlist switch:
// seek + play + state change), so the queue stays far from full even
// when the handler is stalled behind one call.
const emitterQueueSize = 64

func newEmitter(h Handler) *emitter {
	e := &emitter{
		ch:   make(chan Event, emitterQueueSize),
		done: make(chan struct{}),
	}
	go e.loop(h)
	return e
}

func (e *emitter) loop(h Handler) {
	for {
		select {
		case <-e.done:
			return
		case ev := <-e.ch:
			if h != nil {
				h(ev)
			}
		}
	}
}

func (e *emitter) emit(ev Event) {
	select {
	case e.ch <- ev:
	case <-e.done:
	}
}

func (e *emitter) close() {
	e.once.Do(func() { close(e.done) })
}
