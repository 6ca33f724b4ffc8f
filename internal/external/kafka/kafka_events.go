package badges

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Чтение поведенческих событий из Kafka.
// Offset фиксируется только после обработки сообщения
type KafkaEvents struct {
	reader *kafka.Reader
}

func GetNewReader(brokers []string, topic, groupID string) (*KafkaEvents, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("env BADGES_KAFKA_BROKERS is not set")
	}
	if topic == "" {
		return nil, fmt.Errorf("env BADGES_KAFKA_TOPIC is not set")
	}

	kafkaconfig := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}
	return &KafkaEvents{kafka.NewReader(kafkaconfig)}, nil
}

func (k *KafkaEvents) GetNewMessage(ctx context.Context) (kafka.Message, error) {
	return k.reader.FetchMessage(ctx)
}

func (k *KafkaEvents) Commit(ctx context.Context, msgs ...kafka.Message) error {
	return k.reader.CommitMessages(ctx, msgs...)
}

func (k *KafkaEvents) CloseReader() {
	k.reader.Close()
}
