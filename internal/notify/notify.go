// Package notify publishes fetch lifecycle events to a message broker so
// downstream processing can pick up newly extracted files.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Subjects fetch events are published on.
const (
	SubjectFetchCompleted = "gmfetch.fetch.completed"
	SubjectFetchFailed    = "gmfetch.fetch.failed"
)

// Publisher publishes raw payloads to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// Event describes the outcome of one station fetch.
type Event struct {
	RunID     string    `json:"run_id"`
	Service   string    `json:"service"`
	Station   string    `json:"station"`
	Cadence   string    `json:"cadence"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Datasets  []string  `json:"datasets"`
	Files     []string  `json:"files,omitempty"`
	Bytes     int       `json:"bytes"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Subject returns the subject the event belongs on.
func (e *Event) Subject() string {
	if e.Error != "" {
		return SubjectFetchFailed
	}
	return SubjectFetchCompleted
}

// Notifier encodes events and hands them to a Publisher.
type Notifier struct {
	pub    Publisher
	prefix string
}

// New wraps pub. A non-empty prefix is prepended to each subject,
// separated by a dot.
func New(pub Publisher, prefix string) *Notifier {
	return &Notifier{pub: pub, prefix: prefix}
}

// Notify publishes the event. A nil Notifier does nothing.
func (n *Notifier) Notify(ctx context.Context, e *Event) error {
	if n == nil || n.pub == nil {
		return nil
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := e.Subject()
	if n.prefix != "" {
		subject = n.prefix + "." + subject
	}
	if err := n.pub.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close releases the underlying publisher.
func (n *Notifier) Close() error {
	if n == nil || n.pub == nil {
		return nil
	}
	return n.pub.Close()
}
