package queue

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/transport"
)

const (
	DefaultAttempts     = 3
	DefaultRetryBackoff = 2 * time.Second
	DefaultSendTimeout  = 15 * time.Second
)

// Item is one enqueue call: every message is delivered in order, each after
// its own randomized delay unless Immediate is set.
type Item struct {
	ContactKey string
	Address    string
	Messages   []transport.Payload
	Immediate  bool
}

// Delivery describes a single message leaving the queue.
type Delivery struct {
	ContactKey string
	Address    string
	Payload    transport.Payload
	Immediate  bool
	Delay      time.Duration
	Attempts   int
	EnqueuedAt time.Time
}

type Options struct {
	DelayMin     time.Duration
	DelayMax     time.Duration
	Attempts     int
	RetryBackoff time.Duration
	SendTimeout  time.Duration
	Rand         *rand.Rand
	Sleep        func(ctx context.Context, d time.Duration) error

	OnSent    func(Delivery)
	OnRetry   func(Delivery, error)
	OnFailure func(Delivery, error)
}

// DelayQueue is a single global FIFO drained by one worker, so at most one
// send is in flight at any time.
type DelayQueue struct {
	sender transport.Sender
	opts   Options

	mu      sync.Mutex
	pending []Delivery
	notify  chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(sender transport.Sender, opts Options) *DelayQueue {
	if opts.DelayMax < opts.DelayMin {
		opts.DelayMax = opts.DelayMin
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &DelayQueue{
		sender: sender,
		opts:   opts,
		notify: make(chan struct{}, 1),
	}
}

func (q *DelayQueue) Enqueue(item Item) {
	if len(item.Messages) == 0 {
		return
	}

	now := time.Now()
	q.mu.Lock()
	for _, p := range item.Messages {
		q.pending = append(q.pending, Delivery{
			ContactKey: item.ContactKey,
			Address:    item.Address,
			Payload:    p,
			Immediate:  item.Immediate,
			EnqueuedAt: now,
		})
	}
	size := len(q.pending)
	q.mu.Unlock()

	log.Debug().
		Str("contact", item.ContactKey).
		Int("messages", len(item.Messages)).
		Int("queueLength", size).
		Msg("outbound messages enqueued")

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *DelayQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *DelayQueue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.run(ctx)
	log.Info().
		Dur("delayMin", q.opts.DelayMin).
		Dur("delayMax", q.opts.DelayMax).
		Int("attempts", q.opts.Attempts).
		Msg("outbound queue started")
}

func (q *DelayQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	log.Info().Int("dropped", q.Len()).Msg("outbound queue stopped")
}

func (q *DelayQueue) run(ctx context.Context) {
	defer q.wg.Done()

	for {
		d, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.notify:
				continue
			}
		}

		if !q.process(ctx, d) {
			return
		}
	}
}

func (q *DelayQueue) pop() (Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return Delivery{}, false
	}
	d := q.pending[0]
	q.pending[0] = Delivery{}
	q.pending = q.pending[1:]
	return d, true
}

// process returns false only when the worker is shutting down.
func (q *DelayQueue) process(ctx context.Context, d Delivery) bool {
	if !d.Immediate {
		d.Delay = q.nextDelay()
		if err := q.opts.Sleep(ctx, d.Delay); err != nil {
			return false
		}
	}

	var lastErr error
	for attempt := 1; attempt <= q.opts.Attempts; attempt++ {
		d.Attempts = attempt

		sendCtx, cancel := context.WithTimeout(ctx, q.opts.SendTimeout)
		lastErr = q.sender.SendMessage(sendCtx, d.Address, d.Payload)
		cancel()

		if lastErr == nil {
			if q.opts.OnSent != nil {
				q.opts.OnSent(d)
			}
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		log.Warn().
			Err(lastErr).
			Str("contact", d.ContactKey).
			Int("attempt", attempt).
			Int("maxAttempts", q.opts.Attempts).
			Msg("outbound send failed")

		if attempt < q.opts.Attempts {
			if q.opts.OnRetry != nil {
				q.opts.OnRetry(d, lastErr)
			}
			if err := q.opts.Sleep(ctx, q.opts.RetryBackoff); err != nil {
				return false
			}
		}
	}

	log.Error().
		Err(lastErr).
		Str("contact", d.ContactKey).
		Int("attempts", d.Attempts).
		Msg("outbound message dropped")
	if q.opts.OnFailure != nil {
		q.opts.OnFailure(d, lastErr)
	}
	return true
}

func (q *DelayQueue) nextDelay() time.Duration {
	span := q.opts.DelayMax - q.opts.DelayMin
	if span <= 0 {
		return q.opts.DelayMin
	}
	return q.opts.DelayMin + time.Duration(q.opts.Rand.Int63n(int64(span)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
