package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultQueueSize = 1000
	defaultTimeout   = 10 * time.Second

	// maxResponseBodySize limits how much of the response body is logged (1KB)
	maxResponseBodySize = 1024
)

// Delivery is the outcome of one delivery attempt.
type Delivery struct {
	ID         string
	URL        string
	EventType  string
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Success    bool
	Err        string
}

// Options configure a Dispatcher.
type Options struct {
	Endpoints []Endpoint
	QueueSize int
	Client    *http.Client
	// Backoff returns the pause before retry attempt n (starting at 1).
	// Defaults to 2^(n-1) seconds.
	Backoff func(n int) time.Duration
	// OnDelivery, when set, is called after every attempt.
	OnDelivery func(Delivery)
	Logger     zerolog.Logger
}

// Dispatcher delivers events asynchronously from a bounded queue.
type Dispatcher struct {
	opts      Options
	queue     chan Event
	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewDispatcher starts a dispatcher worker.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Backoff == nil {
		opts.Backoff = func(n int) time.Duration { return time.Duration(1<<(n-1)) * time.Second }
	}
	d := &Dispatcher{
		opts:   opts,
		queue:  make(chan Event, opts.QueueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.worker()
	return d
}

// Dispatch queues an event. It never blocks and reports whether the event was
// accepted; events are dropped when the queue is full or the dispatcher closed.
func (d *Dispatcher) Dispatch(event Event) bool {
	select {
	case <-d.stopCh:
		return false
	default:
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case d.queue <- event:
		return true
	default:
		d.opts.Logger.Error().
			Str("event", event.Type).
			Str("definition", event.Resource.ID).
			Int("queue_size", cap(d.queue)).
			Msg("webhook queue full, dropping event")
		return false
	}
}

// Close stops accepting events, delivers what is queued and waits for the
// worker. It is safe to call more than once.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() { close(d.stopCh) })
	<-d.done
	return nil
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for {
		select {
		case event := <-d.queue:
			d.deliverAll(event)
		case <-d.stopCh:
			for {
				select {
				case event := <-d.queue:
					d.deliverAll(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliverAll(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.opts.Logger.Error().Err(err).Str("event", event.Type).Msg("marshal webhook event")
		return
	}
	for _, ep := range d.opts.Endpoints {
		if ep.matches(event) {
			d.deliverWithRetry(ep, event, payload)
		}
	}
}

func (d *Dispatcher) deliverWithRetry(ep Endpoint, event Event, payload []byte) {
	signature := ComputeHMAC(payload, ep.Secret)
	deliveryID := uuid.NewString()
	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	for attempt := 0; attempt <= ep.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.opts.Backoff(attempt))
		}
		res := d.deliver(ep, event, payload, signature, deliveryID, timeout)
		res.Attempt = attempt + 1
		if d.opts.OnDelivery != nil {
			d.opts.OnDelivery(res)
		}

		log := d.opts.Logger.With().
			Str("delivery", deliveryID).
			Str("url", ep.URL).
			Str("event", event.Type).
			Int("attempt", res.Attempt).
			Int("status", res.StatusCode).
			Dur("duration", res.Duration).
			Logger()
		if res.Success {
			log.Info().Msg("webhook delivered")
			return
		}
		if attempt < ep.MaxRetries {
			log.Warn().Str("error", res.Err).Msg("webhook delivery failed, retrying")
		} else {
			log.Error().Str("error", res.Err).Msg("webhook delivery failed permanently")
		}
	}
}

func (d *Dispatcher) deliver(ep Endpoint, event Event, payload []byte, signature, deliveryID string, timeout time.Duration) Delivery {
	res := Delivery{ID: deliveryID, URL: ep.URL, EventType: event.Type}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		res.Err = err.Error()
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, signature)
	req.Header.Set(HeaderEvent, event.Type)
	req.Header.Set(HeaderDelivery, deliveryID)

	start := time.Now()
	resp, err := d.opts.Client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !res.Success {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		res.Err = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return res
}
