package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events to Kafka topics
type KafkaPublisher struct {
	broker string
}

// NewKafkaPublisher creates a publisher against the given broker address
func NewKafkaPublisher(broker string) *KafkaPublisher {
	return &KafkaPublisher{broker: broker}
}

// writer constructs a Kafka producer for one topic. kafka.Writer batches
// and retries internally; async mode keeps publishing off the caller's
// latency path.
func (p *KafkaPublisher) writer(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(p.broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
}

// Publish sends one event to a topic. The key controls partitioning so
// events for the same entity stay ordered.
func (p *KafkaPublisher) Publish(topic, key string, payload interface{}) error {
	w := p.writer(topic)
	defer w.Close()

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Value: data,
		Time:  time.Now(),
	}
	if key != "" {
		msg.Key = []byte(key)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.WriteMessages(ctx, msg)
}

// NopPublisher drops events; used when event publishing is disabled
type NopPublisher struct{}

func (NopPublisher) Publish(topic, key string, payload interface{}) error {
	return nil
}

// Emit publishes an event in the background. Failures are logged with
// their topic and never propagate to the caller.
func Emit(p Publisher, topic, key string, payload interface{}) {
	go func() {
		if err := p.Publish(topic, key, payload); err != nil {
			log.Printf("Events: failed to publish to %s: %v", topic, err)
		}
	}()
}
