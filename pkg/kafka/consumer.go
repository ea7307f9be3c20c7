package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"rentease/pkg/logger"
)

var ErrConsumerClosed = errors.New("consumer is closed")

type Consumer struct {
	reader  *kafka.Reader
	topic   string
	groupID string
	handler MessageHandler
	log     *logger.Logger
	closed  bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

func NewConsumer(brokers []string, topic string, groupID string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}

	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.FirstOffset,
		Logger:      kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error(fmt.Sprintf("kafka consumer: "+msg, args...))
		}),
	})

	return &Consumer{
		reader:  reader,
		topic:   topic,
		groupID: groupID,
		handler: handler,
		log:     log,
	}, nil
}

// Start begins consuming messages and blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.mu.RUnlock()

	c.wg.Add(1)
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			kafkaMsg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				c.log.Error("Failed to fetch message", "error", err, "topic", c.topic)
				time.Sleep(1 * time.Second)
				continue
			}

			msg := c.convertMessage(kafkaMsg)

			if err := c.handler(ctx, msg); err != nil {
				// Handler failures are logged and skipped; mail delivery
				// is best-effort and offsets still advance.
				c.log.Error("Failed to process message",
					"error", err,
					"topic", c.topic,
					"event_id", msg.GetEventID(),
					"event_type", msg.GetEventType(),
				)
			}

			if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil {
				c.log.Error("Failed to commit offset", "error", err, "topic", c.topic)
			}
		}
	}
}

func (c *Consumer) convertMessage(kafkaMsg kafka.Message) Message {
	msg := Message{
		Key:       string(kafkaMsg.Key),
		Value:     kafkaMsg.Value,
		Headers:   make(map[string]string),
		Topic:     kafkaMsg.Topic,
		Partition: kafkaMsg.Partition,
		Offset:    kafkaMsg.Offset,
		Timestamp: kafkaMsg.Time,
	}

	for _, header := range kafkaMsg.Headers {
		msg.Headers[header.Key] = string(header.Value)
	}

	return msg
}

// Close closes the consumer and releases resources
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.wg.Wait()

	return c.reader.Close()
}
