package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"fundStatApp/internal/app/dto"
)

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	BatchSize     int
	BatchTimeout  int // milliseconds
}

// PayEventProducer defines the interface for publishing payment events
type PayEventProducer interface {
	PublishPayEvent(ctx context.Context, ev *dto.PayEventDTO) error
	PublishPayEventBatch(ctx context.Context, events []*dto.PayEventDTO) error
	Close() error
}

// PayEventConsumer defines the interface for consuming payment events
type PayEventConsumer interface {
	Subscribe(ctx context.Context) (<-chan *dto.PayEventDTO, error)
	Commit(ctx context.Context, ev *dto.PayEventDTO) error
	Close() error
}

// KafkaProducer implements PayEventProducer using Kafka
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(config KafkaConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{}, // events for the same project land on one partition
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaProducer{writer: writer}
}

var _ PayEventProducer = (*KafkaProducer)(nil)

// PublishPayEvent sends one payment event, keyed by project id so
// per-project ordering is preserved.
func (p *KafkaProducer) PublishPayEvent(ctx context.Context, ev *dto.PayEventDTO) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ProjectID),
		Value: data,
		Time:  time.Now(),
	})
}

// PublishPayEventBatch sends a batch of payment events.
func (p *KafkaProducer) PublishPayEventBatch(ctx context.Context, events []*dto.PayEventDTO) error {
	msgs := make([]kafka.Message, len(events))
	for i, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		msgs[i] = kafka.Message{
			Key:   []byte(ev.ProjectID),
			Value: data,
			Time:  time.Now(),
		}
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer implements PayEventConsumer using Kafka with manual batch
// commits: offsets are committed once batchSize events have been
// acknowledged or batchTimeout has elapsed, whichever comes first.
type KafkaConsumer struct {
	reader        *kafka.Reader
	topic         string
	pendingMsgs   map[string]kafka.Message // event id -> message awaiting commit
	pendingMsgsMu sync.Mutex
	batchSize     int
	batchTimeout  time.Duration
}

func NewKafkaConsumer(config KafkaConfig) *KafkaConsumer {
	if len(config.Brokers) == 0 {
		return nil
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 0,    // manual commits
		StartOffset:    kafka.FirstOffset,
	})

	return &KafkaConsumer{
		reader:       reader,
		topic:        config.Topic,
		pendingMsgs:  make(map[string]kafka.Message),
		batchSize:    config.BatchSize,
		batchTimeout: time.Duration(config.BatchTimeout) * time.Millisecond,
	}
}

var _ PayEventConsumer = (*KafkaConsumer)(nil)

// Subscribe returns a channel of payment events from Kafka.
func (c *KafkaConsumer) Subscribe(ctx context.Context) (<-chan *dto.PayEventDTO, error) {
	eventCh := make(chan *dto.PayEventDTO, 1000) // buffer to absorb bursts

	go c.startBatchCommitter(ctx)

	go func() {
		defer close(eventCh)
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error fetching message: %v", err)
				continue
			}

			var ev dto.PayEventDTO
			if err := json.Unmarshal(msg.Value, &ev); err != nil {
				log.Printf("Error unmarshaling pay event: %v", err)
				// Nothing to retry; commit so the poison message is skipped.
				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					log.Printf("Error committing malformed message: %v", err)
				}
				continue
			}

			c.pendingMsgsMu.Lock()
			c.pendingMsgs[ev.ID] = msg
			c.pendingMsgsMu.Unlock()

			select {
			case eventCh <- &ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return eventCh, nil
}

// startBatchCommitter flushes pending offsets on a timer so slow periods
// still commit within batchTimeout.
func (c *KafkaConsumer) startBatchCommitter(ctx context.Context) {
	ticker := time.NewTicker(c.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.commitAllPending(context.Background())
			return
		case <-ticker.C:
			c.commitAllPending(ctx)
		}
	}
}

func (c *KafkaConsumer) commitAllPending(ctx context.Context) {
	c.pendingMsgsMu.Lock()
	defer c.pendingMsgsMu.Unlock()

	if len(c.pendingMsgs) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(c.pendingMsgs))
	for _, msg := range c.pendingMsgs {
		msgs = append(msgs, msg)
	}

	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		log.Printf("Error committing batch of %d messages: %v", len(msgs), err)
		return
	}
	c.pendingMsgs = make(map[string]kafka.Message)
}

// Commit acknowledges that an event has been processed.
func (c *KafkaConsumer) Commit(ctx context.Context, ev *dto.PayEventDTO) error {
	if ev == nil || ev.ID == "" {
		return fmt.Errorf("cannot commit nil event or event with empty ID")
	}

	c.pendingMsgsMu.Lock()
	msg, exists := c.pendingMsgs[ev.ID]
	if !exists {
		c.pendingMsgsMu.Unlock()
		return fmt.Errorf("message for event %s not found in pending messages", ev.ID)
	}

	if len(c.pendingMsgs) < c.batchSize {
		delete(c.pendingMsgs, ev.ID)
		c.pendingMsgsMu.Unlock()

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit message for event %s: %w", ev.ID, err)
		}
		return nil
	}
	c.pendingMsgsMu.Unlock()

	c.commitAllPending(ctx)
	return nil
}

// Close commits anything pending and closes the reader.
func (c *KafkaConsumer) Close() error {
	c.commitAllPending(context.Background())
	return c.reader.Close()
}
