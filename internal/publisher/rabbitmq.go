package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"content_publisher/internal/domain"
)

const (
	EventCampaignCompleted = "campaign.completed"
	EventContentAdjusted   = "content.adjusted"
)

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With("component", "publisher"),
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	err := ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// EventMessage is the JSON body of every published event. Exactly one of
// Completion and Adjustment is set, matching Type.
type EventMessage struct {
	Type       string             `json:"type"`
	Completion *CompletionPayload `json:"completion,omitempty"`
	Adjustment *AdjustmentPayload `json:"adjustment,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

type CompletionPayload struct {
	CampaignID string   `json:"campaign_id"`
	Platforms  []string `json:"platforms"`
}

type AdjustmentPayload struct {
	ArtifactID  string   `json:"artifact_id"`
	ScoreBefore int      `json:"score_before"`
	ScoreAfter  int      `json:"score_after"`
	Title       string   `json:"title"`
	Adjustments []string `json:"adjustments"`
	Issues      []string `json:"issues,omitempty"`
}

func (r *RabbitMQ) PublishCampaignCompleted(ctx context.Context, report domain.CompletionReport) error {
	return r.publish(ctx, EventMessage{
		Type: EventCampaignCompleted,
		Completion: &CompletionPayload{
			CampaignID: report.CampaignID,
			Platforms:  report.Satisfied,
		},
	})
}

func (r *RabbitMQ) PublishContentAdjusted(ctx context.Context, result domain.AdjustmentResult) error {
	return r.publish(ctx, EventMessage{
		Type: EventContentAdjusted,
		Adjustment: &AdjustmentPayload{
			ArtifactID:  result.ArtifactID,
			ScoreBefore: result.QualityScore.Before,
			ScoreAfter:  result.QualityScore.After,
			Title:       result.AdjustedTitle,
			Adjustments: result.Adjustments,
			Issues:      result.Issues,
		},
	})
}

func (r *RabbitMQ) publish(ctx context.Context, msg EventMessage) error {
	now := time.Now().UTC()
	msg.Timestamp = now

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	messageID := uuid.NewString()
	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    messageID,
			Type:         msg.Type,
			Body:         body,
			Timestamp:    now,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published event",
		"type", msg.Type,
		"message_id", messageID,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
