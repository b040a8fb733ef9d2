// ABOUTME: Dispatcher delivers store events to registered webhooks as signed, fire-and-forget HTTP POSTs.
// ABOUTME: Each delivery runs detached with its own timeout; failures go to a FailureSink and are never retried.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/2389-research/kanbanfs/board/core"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 10 * time.Second

// Delivery headers.
const (
	HeaderEvent     = "X-Webhook-Event"
	HeaderSignature = "X-Webhook-Signature"
)

// Source supplies the current webhook registrations. It is consulted on
// every event so registry changes apply immediately.
type Source interface {
	Webhooks() ([]core.Webhook, error)
}

// Payload is the JSON body of a delivery.
type Payload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Dispatcher fans events out to matching webhooks.
type Dispatcher struct {
	source  Source
	client  *http.Client
	timeout time.Duration
	sink    FailureSink
	wg      sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClient sets the HTTP client used for deliveries.
func WithClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithTimeout sets the per-delivery timeout.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithFailureSink sets where failed deliveries are reported.
func WithFailureSink(s FailureSink) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.sink = s
		}
	}
}

// NewDispatcher returns a Dispatcher reading registrations from source.
func NewDispatcher(source Source, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source:  source,
		client:  &http.Client{},
		timeout: DefaultTimeout,
		sink:    LogSink{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Matches reports whether the webhook should receive the event.
func Matches(h core.Webhook, event string) bool {
	return h.Active && h.Subscribes(event)
}

// Sign returns the hex HMAC-SHA256 of payload keyed by secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Emit starts one delivery per matching webhook and returns without waiting.
func (d *Dispatcher) Emit(ev core.Event) {
	hooks, err := d.source.Webhooks()
	if err != nil {
		log.Printf("component=board.webhook action=load_webhooks_failed event=%s err=%v", ev.Type, err)
		return
	}
	var body []byte
	for _, h := range hooks {
		if !Matches(h, ev.Type) {
			continue
		}
		if body == nil {
			body, err = json.Marshal(Payload{
				Event:     ev.Type,
				Timestamp: core.Timestamp(ev.Timestamp),
				Data:      ev.Data,
			})
			if err != nil {
				log.Printf("component=board.webhook action=marshal_failed event=%s err=%v", ev.Type, err)
				return
			}
		}
		d.wg.Add(1)
		go func(h core.Webhook) {
			defer d.wg.Done()
			d.deliver(h, ev.Type, body)
		}(h)
	}
}

// Wait blocks until every delivery started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(h core.Webhook, event string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	started := time.Now()
	status, err := d.post(ctx, h, event, body)
	if err != nil {
		d.sink.Record(Failure{
			WebhookID:  h.ID,
			URL:        h.URL,
			Event:      event,
			StatusCode: status,
			Err:        err.Error(),
			Payload:    body,
			At:         time.Now().UTC(),
		})
		return
	}
	log.Printf("component=board.webhook action=delivered webhook=%s event=%s status=%d duration_ms=%d",
		h.ID, event, status, time.Since(started).Milliseconds())
}

func (d *Dispatcher) post(ctx context.Context, h core.Webhook, event string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, event)
	if h.Secret != "" {
		req.Header.Set(HeaderSignature, "sha256="+Sign(h.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
