package application

import "sync"

const streamBuffer = 64

// stream is a broadcast channel with a per-channel replay policy. With replay
// enabled a new subscriber immediately receives the most recent value before
// anything newer; without it, subscribers only see values published after
// they attach.
//
// Publishing never blocks. When a subscriber's buffer is full the oldest
// buffered value is dropped to make room, so a slow subscriber loses history
// but still converges on the latest value.
type stream[T any] struct {
	mu      sync.Mutex
	subs    map[int]chan T
	nextID  int
	replay  bool
	last    T
	hasLast bool
}

func newStream[T any](replay bool) *stream[T] {
	return &stream[T]{subs: map[int]chan T{}, replay: replay}
}

func (s *stream[T]) Publish(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.replay {
		s.last = value
		s.hasLast = true
	}

	for _, ch := range s.subs {
		sendOrDropOldest(ch, value)
	}
}

// Subscribe returns a receive channel and a cancel function; the channel is
// closed by cancel.
func (s *stream[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan T, streamBuffer)
	s.subs[id] = ch

	if s.replay && s.hasLast {
		ch <- s.last
	}

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Latest returns the retained value of a replaying stream.
func (s *stream[T]) Latest() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last, s.hasLast
}

func sendOrDropOldest[T any](ch chan T, value T) {
	for {
		select {
		case ch <- value:
			return
		default:
		}

		select {
		case <-ch:
		default:
		}
	}
}
