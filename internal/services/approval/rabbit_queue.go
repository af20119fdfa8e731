package approval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/numaras/salesagent-sub000/internal/services/rabbitmq"
)

// RabbitQueue is a TaskQueue on the creative_reviews RabbitMQ queue, for
// deployments running several sales agent replicas
type RabbitQueue struct {
	rabbitMQ *rabbitmq.Service
}

func NewRabbitQueue(rabbitMQ *rabbitmq.Service) *RabbitQueue {
	return &RabbitQueue{rabbitMQ: rabbitMQ}
}

func (q *RabbitQueue) Publish(ctx context.Context, msg ReviewTaskMessage) error {
	return q.rabbitMQ.PublishJSON(ctx, rabbitmq.QueueCreativeReviews, msg)
}

// StartConsumer feeds queued review tasks to handle
func (q *RabbitQueue) StartConsumer(handle func(ctx context.Context, msg ReviewTaskMessage) error) error {
	return q.rabbitMQ.Consume(rabbitmq.QueueCreativeReviews, func(body []byte) error {
		var msg ReviewTaskMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("invalid review task message: %w", err)
		}
		return handle(context.Background(), msg)
	})
}
