// Package logkeeper moves access log entries from Kafka into Elasticsearch.
package logkeeper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"blog/pkg/models"
)

const (
	indexTimeout = 10 * time.Second
	retryDelay   = time.Second
)

type Config struct {
	LogLevel     string   `toml:"logLevel"`
	KafkaBrokers []string `toml:"kafkaBrokers"`
	KafkaTopic   string   `toml:"kafkaTopic"`
	KafkaGroupID string   `toml:"kafkaGroupID"`

	ElasticSearchIndex string   `toml:"elasticSearchIndex"`
	ElasticSearchNodes []string `toml:"elasticSearchNodes"`

	NumWorkers int `toml:"numWorkers"`
}

// Reader is the consuming side of Kafka. *kafka.Reader implements it.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Keeper struct {
	es         *elasticsearch.Client
	index      string
	numWorkers int
	// retryDelay is how long Run waits after a failed read.
	retryDelay time.Duration
}

func New(es *elasticsearch.Client, index string, numWorkers int) *Keeper {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Keeper{es: es, index: index, numWorkers: numWorkers, retryDelay: retryDelay}
}

// Run reads messages until ctx is cancelled and indexes them with a pool of workers.
// It returns after all workers have finished.
func (k *Keeper) Run(ctx context.Context, r Reader) {
	jobs := make(chan kafka.Message, k.numWorkers*5)
	var wg sync.WaitGroup
	wg.Add(k.numWorkers)
	for workerID := 0; workerID < k.numWorkers; workerID++ {
		go func(id int) {
			defer wg.Done()
			k.worker(jobs, id)
		}(workerID)
	}

	log.Info("[logkeeper] accepting logs...")
loop:
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break loop
			}
			log.Errorf("[logkeeper] failed to read message from Kafka: %v", err)
			select {
			case <-ctx.Done():
				break loop
			case <-time.After(k.retryDelay):
			}
			continue
		}
		log.Debugf("[logkeeper] received message: %s", string(msg.Value))

		jobs <- msg
	}

	close(jobs)
	wg.Wait()
}

// worker indexes until jobs is closed. Each document gets its own timeout so
// that messages already read are still stored after Run's context is cancelled.
func (k *Keeper) worker(jobs <-chan kafka.Message, workerID int) {
	for msg := range jobs {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		entry, err := k.Index(ctx, msg.Value)
		cancel()
		if err != nil {
			log.Errorf("[logkeeper][workerID:%d] %v", workerID, err)
			continue
		}
		log.Infof("[logkeeper][workerID:%d][%s] log entry indexed", workerID, shorten(entry.RequestID))
	}
}

// Index stores a single JSON encoded log entry. The document ID is the
// service name followed by the request ID, so redelivered entries overwrite
// themselves.
func (k *Keeper) Index(ctx context.Context, value []byte) (models.LogEntry, error) {
	var entry models.LogEntry
	if err := json.Unmarshal(value, &entry); err != nil {
		return entry, fmt.Errorf("failed to unmarshal log entry: %w", err)
	}

	res, err := k.es.Index(
		k.index,
		bytes.NewReader(value),
		k.es.Index.WithContext(ctx),
		k.es.Index.WithDocumentID(DocumentID(entry)),
	)
	if err != nil {
		return entry, fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return entry, fmt.Errorf("failed to index document: %s", res.Status())
	}

	return entry, nil
}

func DocumentID(entry models.LogEntry) string {
	return entry.Service + entry.RequestID
}

func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
