//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"content_publisher/internal/domain"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) config(name string) Config {
	return Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-" + name,
		RoutingKey: "test-routing-key-" + name,
		QueueName:  "test-queue-" + name,
	}
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	pub, err := NewRabbitMQ(s.config("conn"), s.logger)
	s.NoError(err)
	s.NotNil(pub)

	s.NoError(pub.Close())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_CampaignCompleted() {
	cfg := s.config("completed")
	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	err = pub.PublishCampaignCompleted(s.ctx, domain.CompletionReport{
		CampaignID: "c-1",
		State:      domain.StateCompleted,
		Satisfied:  []string{"telegraph", "writeas"},
	})
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	s.Equal("application/json", msg.ContentType)
	s.Equal(EventCampaignCompleted, msg.Type)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)
	_, err = uuid.Parse(msg.MessageId)
	s.NoError(err)

	var received EventMessage
	s.Require().NoError(json.Unmarshal(msg.Body, &received))
	s.Equal(EventCampaignCompleted, received.Type)
	s.Require().NotNil(received.Completion)
	s.Nil(received.Adjustment)
	s.Equal("c-1", received.Completion.CampaignID)
	s.Equal([]string{"telegraph", "writeas"}, received.Completion.Platforms)
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_ContentAdjusted() {
	cfg := s.config("adjusted")
	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	err = pub.PublishContentAdjusted(s.ctx, domain.AdjustmentResult{
		ArtifactID:    "a-1",
		WasAdjusted:   true,
		AdjustedTitle: "Growing Herbs Indoors",
		QualityScore:  domain.ScoreDelta{Before: 45, After: 92},
		Adjustments:   []string{"repaired malformed markup"},
	})
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	var received EventMessage
	s.Require().NoError(json.Unmarshal(msg.Body, &received))
	s.Equal(EventContentAdjusted, received.Type)
	s.Require().NotNil(received.Adjustment)
	s.Equal("a-1", received.Adjustment.ArtifactID)
	s.Equal(45, received.Adjustment.ScoreBefore)
	s.Equal(92, received.Adjustment.ScoreAfter)
	s.Equal([]string{"repaired malformed markup"}, received.Adjustment.Adjustments)
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
