package logkeeper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/h2non/gock"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"blog/pkg/models"
)

const (
	esURL     = "http://localhost:9200"
	testIndex = "blog-access"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	exitCode := m.Run()
	os.Exit(exitCode)
}

// sliceReader hands out the queued messages and then reports cancellation.
type sliceReader struct {
	msgs []kafka.Message
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func newTestKeeper(t *testing.T, workers int) *Keeper {
	t.Helper()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
		Transport: gock.DefaultTransport,
	})
	if err != nil {
		t.Fatalf("failed to create elasticsearch client: %v", err)
	}

	return New(es, testIndex, workers)
}

func testEntry(reqID string, status int) models.LogEntry {
	return models.LogEntry{
		Timestamp:  time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		IP:         "203.0.113.7",
		StatusCode: status,
		RequestID:  reqID,
		Method:     http.MethodPut,
		Path:       "/posts/65f1c0ffee65f1c0ffee65f1/like/",
		Duration:   0.002,
		Service:    "blog",
	}
}

func mockIndex(entry models.LogEntry) {
	gock.New(esURL).
		Put("/" + testIndex + "/_doc/" + DocumentID(entry)).
		Reply(http.StatusCreated).
		SetHeader("X-Elastic-Product", "Elasticsearch").
		JSON(map[string]any{"_index": testIndex, "_id": DocumentID(entry), "result": "created"})
}

func TestKeeper_Index(t *testing.T) {
	defer gock.Off()

	entry := testEntry("9b4f6c5d-1a32-4d8f-b5a6-23c9e1f7d2a1", http.StatusOK)
	mockIndex(entry)

	k := newTestKeeper(t, 1)
	b, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("failed to marshal entry: %v", err)
	}

	got, err := k.Index(context.Background(), b)
	if err != nil {
		t.Fatalf("unexpected error indexing entry: %v", err)
	}
	if got.RequestID != entry.RequestID {
		t.Errorf("want request id %q, got %q", entry.RequestID, got.RequestID)
	}
	if !gock.IsDone() {
		t.Error("index request was not sent to elasticsearch")
	}
}

func TestKeeper_IndexInvalidEntry(t *testing.T) {
	defer gock.Off()
	gock.New(esURL)

	k := newTestKeeper(t, 1)
	if _, err := k.Index(context.Background(), []byte("not json")); err == nil {
		t.Error("want error for invalid entry, got nil")
	}
}

func TestKeeper_Run(t *testing.T) {
	defer gock.Off()

	entries := []models.LogEntry{
		testEntry("req-one", http.StatusOK),
		testEntry("req-two", http.StatusNotFound),
		testEntry("req-three", http.StatusBadRequest),
	}
	r := &sliceReader{}
	for _, e := range entries {
		mockIndex(e)
		b, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("failed to marshal entry: %v", err)
		}
		r.msgs = append(r.msgs, kafka.Message{Value: b})
	}

	k := newTestKeeper(t, 2)

	done := make(chan struct{})
	go func() {
		k.Run(context.Background(), r)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	if !gock.IsDone() {
		t.Errorf("not all entries were indexed, pending mocks: %d", len(gock.Pending()))
	}
}

// brokenReader fails every read until ctx is cancelled.
type brokenReader struct {
	reads atomic.Int32
}

func (r *brokenReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.reads.Add(1)
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{}, errors.New("broker unavailable")
}

func TestKeeper_RunWaitsBetweenFailedReads(t *testing.T) {
	k := newTestKeeper(t, 1)
	k.retryDelay = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	r := &brokenReader{}
	done := make(chan struct{})
	go func() {
		k.Run(ctx, r)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if reads := r.reads.Load(); reads > 10 {
		t.Errorf("want at most 10 reads in 200ms with a 50ms retry delay, got %d", reads)
	}
}

func TestDocumentID(t *testing.T) {
	entry := models.LogEntry{Service: "blog", RequestID: "abc"}
	if got := DocumentID(entry); got != "blogabc" {
		t.Errorf("want document id %q, got %q", "blogabc", got)
	}
}
