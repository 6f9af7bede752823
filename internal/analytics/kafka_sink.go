package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/hitoshi/mealtrack/internal/model"
)

// messageWriter はKafkaSinkが使用するkafka.Writerのメソッド。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink は操作イベントをJSONでKafkaトピックに送信する。
// パーティションキーはuser_idとし、同一ユーザーのイベント順序を保つ。
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaSink はKafkaSinkを生成する。
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("Kafkaのブローカーが指定されていません")
	}
	if topic == "" {
		return nil, errors.New("Kafkaのトピックが指定されていません")
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
	}, nil
}

// Write は操作イベントを1件送信する。
func (s *KafkaSink) Write(ctx context.Context, event *model.DiscoverInteraction) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("操作イベントのエンコードに失敗しました: %w", err)
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
		Time:  event.OccurredAt,
	}); err != nil {
		return fmt.Errorf("Kafkaへの送信に失敗しました: %w", err)
	}
	return nil
}

// Close はKafkaへの接続を閉じる。
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// compile-time interface check
var _ Sink = (*KafkaSink)(nil)
var _ messageWriter = (*kafka.Writer)(nil)
