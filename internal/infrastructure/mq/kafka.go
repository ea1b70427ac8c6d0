package mq

import (
	"fmt"

	"finledger/internal/config"

	"github.com/IBM/sarama"
)

// Producer publishes ledger events to Kafka.
type Producer struct {
	producer sarama.SyncProducer
}

// NewKafkaProducer dials the configured brokers.
func NewKafkaProducer(cfg *config.KafkaConfig) (*Producer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewProducer(producer), nil
}

// NewProducer wraps an existing sarama producer.
func NewProducer(producer sarama.SyncProducer) *Producer {
	return &Producer{producer: producer}
}

// Send publishes one keyed message. Messages with the same key land on the
// same partition, so events for one account stay ordered.
func (p *Producer) Send(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
