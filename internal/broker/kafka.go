// Package broker публикует события заказов в Kafka.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter описывает часть kafka.Writer, нужную продюсеру.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer сериализует события в JSON и пишет их в топик Kafka.
type Producer struct {
	writer messageWriter
	logger *zap.Logger
}

// batchTimeout ограничивает ожидание накопления пачки. Публикация идёт
// синхронно в обработчике запроса.
const batchTimeout = 10 * time.Millisecond

// NewProducer создаёт продюсер для указанных брокеров и топика.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: batchTimeout,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &Producer{writer: writer, logger: logger}
}

// PublishEvent публикует событие с ключом key.
func (p *Producer) PublishEvent(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message to kafka: %w", err)
	}

	p.logger.Debug("event published", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", event)))
	return nil
}

// Close закрывает соединения с Kafka.
func (p *Producer) Close() error {
	return p.writer.Close()
}
