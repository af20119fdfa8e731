package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Queue names
const (
	QueueCreativeReviews  = "creative_reviews"
	QueueCreativeSyncJobs = "creative_sync_jobs"
)

// Service wraps one AMQP connection and channel. Publishing is serialized
// because an amqp channel must not be used from several goroutines at once.
type Service struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	publishMu sync.Mutex
	stopChans []chan bool
	stopMu    sync.Mutex
}

// NewService connects to the broker and declares the given durable queues
func NewService(url string, queues ...string) (*Service, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	s := &Service{conn: conn, channel: channel}
	for _, q := range queues {
		if err := s.DeclareQueue(q); err != nil {
			s.Close()
			return nil, err
		}
	}

	logrus.Info("RabbitMQ service initialized successfully")
	return s, nil
}

// DeclareQueue declares a durable queue
func (s *Service) DeclareQueue(queueName string) error {
	_, err := s.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	return nil
}

// PublishJSON publishes message as a persistent JSON body to queueName
func (s *Service) PublishJSON(ctx context.Context, queueName string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	err = s.channel.PublishWithContext(ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logrus.WithField("queue", queueName).Debug("Message published")
	return nil
}

// Consume starts a goroutine delivering queueName's messages to handle.
// A handler error nacks the message without requeue.
func (s *Service) Consume(queueName string, handle func(body []byte) error) error {
	msgs, err := s.channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	stopChan := make(chan bool)
	s.stopMu.Lock()
	s.stopChans = append(s.stopChans, stopChan)
	s.stopMu.Unlock()

	logrus.Infof("RabbitMQ consumer started for %s queue", queueName)

	go func() {
		for {
			select {
			case <-stopChan:
				logrus.Infof("RabbitMQ consumer for %s stopped", queueName)
				return
			case msg, ok := <-msgs:
				if !ok {
					logrus.Warn("RabbitMQ channel closed")
					return
				}

				if err := handle(msg.Body); err != nil {
					logrus.Errorf("Failed to process %s message: %v", queueName, err)
					_ = msg.Nack(false, false)
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()

	return nil
}

// Close stops all consumers and closes the RabbitMQ connection
func (s *Service) Close() error {
	s.stopMu.Lock()
	for _, ch := range s.stopChans {
		close(ch)
	}
	s.stopChans = nil
	s.stopMu.Unlock()

	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			logrus.Warnf("Error closing channel: %v", err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			logrus.Warnf("Error closing connection: %v", err)
		}
	}
	return nil
}
