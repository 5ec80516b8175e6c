package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReplayDeliversLatestToLateSubscriber(t *testing.T) {
	t.Parallel()

	s := newStream[int](true)
	s.Publish(1)
	s.Publish(2)

	ch, cancel := s.Subscribe()
	defer cancel()

	assert.Equal(t, 2, <-ch)
}

func TestStreamNoReplayDeliversNothingToLateSubscriber(t *testing.T) {
	t.Parallel()

	s := newStream[int](false)
	s.Publish(1)

	ch, cancel := s.Subscribe()
	defer cancel()

	select {
	case v := <-ch:
		t.Fatalf("unexpected value %d on non-replaying stream", v)
	default:
	}

	s.Publish(2)
	assert.Equal(t, 2, <-ch)
}

func TestStreamFanOutPreservesOrderPerSubscriber(t *testing.T) {
	t.Parallel()

	s := newStream[int](false)

	first, cancelFirst := s.Subscribe()
	defer cancelFirst()
	second, cancelSecond := s.Subscribe()
	defer cancelSecond()

	for i := 0; i < 5; i++ {
		s.Publish(i)
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, i, <-first)
		assert.Equal(t, i, <-second)
	}
}

func TestStreamSlowSubscriberKeepsLatest(t *testing.T) {
	t.Parallel()

	s := newStream[int](false)

	ch, cancel := s.Subscribe()
	defer cancel()

	total := streamBuffer * 3
	for i := 0; i < total; i++ {
		s.Publish(i)
	}

	var last int
	for {
		select {
		case v := <-ch:
			last = v
			continue
		default:
		}
		break
	}

	assert.Equal(t, total-1, last)
}

func TestStreamCancelClosesChannel(t *testing.T) {
	t.Parallel()

	s := newStream[int](false)
	ch, cancel := s.Subscribe()
	cancel()

	_, open := <-ch
	require.False(t, open)

	// a second cancel is harmless, and publishing after cancel must not panic
	cancel()
	s.Publish(1)
}

func TestStreamLatest(t *testing.T) {
	t.Parallel()

	s := newStream[string](true)

	_, ok := func() (string, bool) { return s.Latest() }()
	assert.False(t, ok)

	s.Publish("a")
	v, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "a", v)
}
