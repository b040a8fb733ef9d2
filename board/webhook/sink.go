// ABOUTME: FailureSink receives webhook deliveries that did not get a 2xx response.
// ABOUTME: LogSink writes them to the process log; Sinks fans out to several sinks.
package webhook

import (
	"log"
	"time"
)

// Failure describes one failed delivery.
type Failure struct {
	ID         int64     `json:"id,omitempty"`
	WebhookID  string    `json:"webhookId"`
	URL        string    `json:"url"`
	Event      string    `json:"event"`
	StatusCode int       `json:"statusCode,omitempty"`
	Err        string    `json:"error"`
	Payload    []byte    `json:"payload,omitempty"`
	At         time.Time `json:"at"`
}

// FailureSink records failed deliveries. Record is called from delivery
// goroutines and must be safe for concurrent use.
type FailureSink interface {
	Record(Failure)
}

// LogSink logs failures.
type LogSink struct{}

// Record logs f.
func (LogSink) Record(f Failure) {
	log.Printf("component=board.webhook action=delivery_failed webhook=%s url=%s event=%s status=%d err=%q",
		f.WebhookID, f.URL, f.Event, f.StatusCode, f.Err)
}

type multiSink []FailureSink

func (m multiSink) Record(f Failure) {
	for _, s := range m {
		s.Record(f)
	}
}

// Sinks combines several sinks into one. Nil entries are skipped.
func Sinks(sinks ...FailureSink) FailureSink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
