package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOccurred = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type stubSource struct {
	queue  []*EventDocument
	sent   []string
	failed map[string]string
}

func (s *stubSource) Claim(_ context.Context, _ string) (*EventDocument, error) {
	if len(s.queue) == 0 {
		return nil, nil
	}
	doc := s.queue[0]
	s.queue = s.queue[1:]
	return doc, nil
}

func (s *stubSource) MarkSent(_ context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *stubSource) MarkFailed(_ context.Context, id string, _ time.Time, reason string) error {
	if s.failed == nil {
		s.failed = map[string]string{}
	}
	s.failed[id] = reason
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type stubProducer struct {
	published []published
	err       error
}

func (p *stubProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func record(id, name, aggregate string, payload string) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Aggregate:  aggregate,
		Payload:    []byte(payload),
		OccurredAt: testOccurred,
	}
}

func TestWorkerRoutesEventFamilies(t *testing.T) {
	source := &stubSource{queue: []*EventDocument{
		record("e1", "room.status_changed", "r-1", `{"room_id":"r-1"}`),
		record("e2", "blocking.inventory_impact_changed", "r-1", `{"blocking_id":"b-1"}`),
		record("e3", "policy.updated", "global", `{}`),
	}}
	producer := &stubProducer{}
	w := &Worker{Records: source, Producer: producer, ID: "w-1"}

	require.NoError(t, w.drainBatch(context.Background()))
	require.Len(t, producer.published, 3)
	assert.Equal(t, "hotel.rooms.v1", producer.published[0].topic)
	assert.Equal(t, "hotel.blockings.v1", producer.published[1].topic)
	assert.Equal(t, "hotel.operations.v1", producer.published[2].topic)
	assert.Equal(t, []string{"e1", "e2", "e3"}, source.sent)
}

func TestWorkerTopicPrefix(t *testing.T) {
	w := &Worker{TopicPrefix: "stage."}
	assert.Equal(t, "stage.hotel.rooms.v1", w.topicFor("room.created"))
	assert.Equal(t, "stage.hotel.operations.v1", w.topicFor("audit"))
}

func TestWorkerEnvelope(t *testing.T) {
	source := &stubSource{queue: []*EventDocument{
		record("e1", "room.status_changed", "r-1", `{"room_id":"r-1","action":"check_in"}`),
	}}
	producer := &stubProducer{}
	w := &Worker{Records: source, Producer: producer, ID: "w-1"}

	require.NoError(t, w.drainBatch(context.Background()))
	require.Len(t, producer.published, 1)
	msg := producer.published[0]
	assert.Equal(t, "r-1", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "e1", evt["id"])
	assert.Equal(t, "room.status_changed.v1", evt["type"])
	assert.Equal(t, "app://hotelcore", evt["source"])
	assert.Equal(t, "r-1", evt["subject"])
	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "check_in", data["action"])
}

func TestWorkerMarksFailedOnPublishError(t *testing.T) {
	source := &stubSource{queue: []*EventDocument{
		record("e1", "room.status_changed", "r-1", `{}`),
	}}
	producer := &stubProducer{err: errors.New("broker unreachable")}
	w := &Worker{Records: source, Producer: producer, ID: "w-1"}

	require.NoError(t, w.drainBatch(context.Background()))
	assert.Empty(t, source.sent)
	assert.Equal(t, "broker unreachable", source.failed["e1"])
}

func TestWorkerMarksFailedOnBadPayload(t *testing.T) {
	source := &stubSource{queue: []*EventDocument{
		record("e1", "room.status_changed", "r-1", `not json`),
	}}
	producer := &stubProducer{}
	w := &Worker{Records: source, Producer: producer, ID: "w-1"}

	require.NoError(t, w.drainBatch(context.Background()))
	assert.Empty(t, producer.published)
	assert.Contains(t, source.failed, "e1")
}

func TestWorkerBatchLimit(t *testing.T) {
	source := &stubSource{}
	for i := 0; i < 5; i++ {
		source.queue = append(source.queue, record("e", "room.created", "r-1", `{}`))
	}
	producer := &stubProducer{}
	w := &Worker{Records: source, Producer: producer, ID: "w-1", Batch: 2}

	require.NoError(t, w.drainBatch(context.Background()))
	assert.Len(t, producer.published, 2)
	assert.Len(t, source.queue, 3)
}

func TestWorkerRequiresDependencies(t *testing.T) {
	w := &Worker{}
	assert.ErrorIs(t, w.Run(context.Background()), ErrWorkerNotConfigured)
}
