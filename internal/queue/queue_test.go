package queue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/transport"
)

type sentMessage struct {
	address string
	text    string
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	failures map[string]int // text -> remaining failures
}

func (s *fakeSender) SendMessage(ctx context.Context, address string, p transport.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[p.Text] > 0 {
		s.failures[p.Text]--
		return errors.New("gateway down")
	}
	s.sent = append(s.sent, sentMessage{address: address, text: p.Text})
	return nil
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, m := range s.sent {
		out[i] = m.text
	}
	return out
}

type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()
	return ctx.Err()
}

func (f *fakeSleeper) all() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

func newTestQueue(sender transport.Sender, sleeper *fakeSleeper, opts Options) *DelayQueue {
	opts.Sleep = sleeper.Sleep
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(42))
	}
	if opts.DelayMin == 0 && opts.DelayMax == 0 {
		opts.DelayMin = 2 * time.Second
		opts.DelayMax = 5 * time.Second
	}
	return New(sender, opts)
}

func TestDelayQueue_OrderAndDelayBounds(t *testing.T) {
	sender := &fakeSender{}
	sleeper := &fakeSleeper{}
	q := newTestQueue(sender, sleeper, Options{})

	var expected []string
	for i := 0; i < 20; i++ {
		contact := fmt.Sprintf("5068888%04d", i%3)
		text := fmt.Sprintf("msg-%02d", i)
		expected = append(expected, text)
		q.Enqueue(Item{ContactKey: contact, Address: contact + "@s.whatsapp.net", Messages: []transport.Payload{transport.Text(text)}})
	}

	q.Start(context.Background())
	defer q.Stop()

	require.Eventually(t, func() bool { return len(sender.texts()) == 20 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, expected, sender.texts())

	delays := sleeper.all()
	require.Len(t, delays, 20)
	for _, d := range delays {
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}
}

func TestDelayQueue_SameSeedSameDelays(t *testing.T) {
	run := func() []time.Duration {
		sender := &fakeSender{}
		sleeper := &fakeSleeper{}
		q := newTestQueue(sender, sleeper, Options{Rand: rand.New(rand.NewSource(7))})
		for i := 0; i < 5; i++ {
			q.Enqueue(Item{ContactKey: "a", Address: "a", Messages: []transport.Payload{transport.Text(fmt.Sprint(i))}})
		}
		q.Start(context.Background())
		require.Eventually(t, func() bool { return len(sender.texts()) == 5 }, time.Second, 5*time.Millisecond)
		q.Stop()
		return sleeper.all()
	}

	assert.Equal(t, run(), run())
}

func TestDelayQueue_MultipleMessagesKeepOrder(t *testing.T) {
	sender := &fakeSender{}
	sleeper := &fakeSleeper{}
	q := newTestQueue(sender, sleeper, Options{})

	q.Start(context.Background())
	defer q.Stop()

	q.Enqueue(Item{ContactKey: "a", Address: "a", Messages: []transport.Payload{transport.Text("a1"), transport.Text("a2")}})
	q.Enqueue(Item{ContactKey: "b", Address: "b", Messages: []transport.Payload{transport.Text("b1")}})
	q.Enqueue(Item{ContactKey: "a", Address: "a", Messages: []transport.Payload{transport.Text("a3")}})

	require.Eventually(t, func() bool { return len(sender.texts()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a1", "a2", "b1", "a3"}, sender.texts())
}

func TestDelayQueue_ImmediateSkipsDelay(t *testing.T) {
	sender := &fakeSender{}
	sleeper := &fakeSleeper{}
	q := newTestQueue(sender, sleeper, Options{})

	var mu sync.Mutex
	var delivered []Delivery
	q.opts.OnSent = func(d Delivery) {
		mu.Lock()
		delivered = append(delivered, d)
		mu.Unlock()
	}

	q.Enqueue(Item{ContactKey: "a", Address: "a", Messages: []transport.Payload{transport.Text("bot")}})
	q.Enqueue(Item{ContactKey: "a", Address: "a", Messages: []transport.Payload{transport.Text("human")}, Immediate: true})

	q.Start(context.Background())
	defer q.Stop()

	require.Eventually(t, func() bool { return len(sender.texts()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"bot", "human"}, sender.texts())
	assert.Len(t, sleeper.all(), 1)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 2)
	assert.True(t, delivered[1].Immediate)
	assert.Zero(t, delivered[1].Delay)
}

func TestDelayQueue_RetriesThenSucceeds(t *testing.T) {
	sender := &fakeSender{failures: map[string]int{"flaky": 2}}
	sleeper := &fakeSleeper{}
	q := newTestQueue(sender, sleeper, Options{Attempts: 3, RetryBackoff: time.Second})

	var retries int
	var mu sync.Mutex
	q.opts.OnRetry = func(Delivery, error) {
		mu.Lock()
		retries++
		mu.Unlock()
	}

	q.Enqueue(Item{ContactKey: "a", Address: "a", Messages: []transport.Payload{transport.Text("flaky")}})
	q.Start(context.Background())
	defer q.Stop()

	require.Eventually(t, func() bool { return len(sender.texts()) == 1 }, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, 2, retries)
	mu.Unlock()

	delays := sleeper.all()
	require.Len(t, delays, 3)
	assert.Equal(t, time.Second, delays[1])
	assert.Equal(t, time.Second, delays[2])
}

func TestDelayQueue_DropsAfterMaxAttemptsAndContinues(t *testing.T) {
	sender := &fakeSender{failures: map[string]int{"broken": 10}}
	sleeper := &fakeSleeper{}
	q := newTestQueue(sender, sleeper, Options{Attempts: 2})

	failed := make(chan Delivery, 1)
	q.opts.OnFailure = func(d Delivery, err error) { failed <- d }

	q.Enqueue(Item{ContactKey: "a", Address: "a", Messages: []transport.Payload{transport.Text("broken")}})
	q.Enqueue(Item{ContactKey: "b", Address: "b", Messages: []transport.Payload{transport.Text("fine")}})

	q.Start(context.Background())
	defer q.Stop()

	select {
	case d := <-failed:
		assert.Equal(t, "broken", d.Payload.Text)
		assert.Equal(t, 2, d.Attempts)
	case <-time.After(time.Second):
		t.Fatal("expected failure callback")
	}

	require.Eventually(t, func() bool { return len(sender.texts()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"fine"}, sender.texts())
}

func TestDelayQueue_EnqueueEmptyIsNoop(t *testing.T) {
	q := New(&fakeSender{}, Options{})
	q.Enqueue(Item{ContactKey: "a"})
	assert.Equal(t, 0, q.Len())
}

func TestDelayQueue_NextDelay(t *testing.T) {
	t.Run("fixed delay when bounds are equal", func(t *testing.T) {
		q := New(&fakeSender{}, Options{DelayMin: time.Second, DelayMax: time.Second})
		assert.Equal(t, time.Second, q.nextDelay())
	})

	t.Run("max below min collapses to min", func(t *testing.T) {
		q := New(&fakeSender{}, Options{DelayMin: 3 * time.Second, DelayMax: time.Second})
		assert.Equal(t, 3*time.Second, q.nextDelay())
	})

	t.Run("stays within bounds", func(t *testing.T) {
		q := New(&fakeSender{}, Options{DelayMin: time.Second, DelayMax: 2 * time.Second, Rand: rand.New(rand.NewSource(1))})
		for i := 0; i < 1000; i++ {
			d := q.nextDelay()
			assert.True(t, d >= time.Second && d <= 2*time.Second)
		}
	})
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, sleepContext(ctx, time.Hour))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}
