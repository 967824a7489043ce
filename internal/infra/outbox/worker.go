package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Event names are <family>.<what_happened>; each family gets its own topic so
// room consumers never rewind past blocking traffic and vice versa.
var familyTopics = map[string]string{
	"room":     "hotel.rooms.v1",
	"blocking": "hotel.blockings.v1",
}

const fallbackTopic = "hotel.operations.v1"

const (
	defaultInterval = 500 * time.Millisecond
	defaultBatch    = 16
)

// RecordSource is the claim side of the outbox store.
type RecordSource interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, nextAttempt time.Time, reason string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains claimed records into Kafka in batches, keyed by aggregate id
// so every room's events land on one partition in order. Failed records go
// back through the store's retry schedule rather than stopping the drain.
type Worker struct {
	Records     RecordSource
	Producer    Producer
	Interval    time.Duration
	Batch       int
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Records == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainBatch(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) drainBatch(ctx context.Context) error {
	for i := 0; i < w.batch(); i++ {
		doc, err := w.Records.Claim(ctx, w.ID)
		if err != nil {
			return err
		}
		if doc == nil {
			return nil
		}
		if err := w.deliver(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) deliver(ctx context.Context, doc *EventDocument) error {
	payload, headers, err := w.envelope(doc)
	if err != nil {
		return w.Records.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	if err := w.Producer.Publish(ctx, w.topicFor(doc.Name), doc.Aggregate, payload, headers); err != nil {
		return w.Records.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	return w.Records.MarkSent(ctx, doc.ID)
}

// envelope wraps the stored payload in a CloudEvents 1.0 structure. Subject
// carries the room or blocking id so consumers can filter without decoding
// data.
func (w *Worker) envelope(doc *EventDocument) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name + ".v1",
		"source":          w.source(),
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := doc.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (w *Worker) topicFor(name string) string {
	family := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		family = name[:idx]
	}
	topic, ok := familyTopics[family]
	if !ok {
		topic = fallbackTopic
	}
	return w.TopicPrefix + topic
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return defaultInterval
	}
	return w.Interval
}

func (w *Worker) batch() int {
	if w.Batch <= 0 {
		return defaultBatch
	}
	return w.Batch
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://hotelcore"
}
