package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
)

// KafkaEmitter publishes events to a single topic, keyed by task id so
// per-task ordering is preserved.
type KafkaEmitter struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaEmitter(brokers []string, topic string) (*KafkaEmitter, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &KafkaEmitter{producer: p, topic: topic}, nil
}

func (e *KafkaEmitter) Emit(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, _, err = e.producer.SendMessage(&sarama.ProducerMessage{
		Topic: e.topic,
		Key:   sarama.StringEncoder(event.TaskID),
		Value: sarama.ByteEncoder(data),
	})

	return err
}

func (e *KafkaEmitter) Close() error {
	return e.producer.Close()
}
