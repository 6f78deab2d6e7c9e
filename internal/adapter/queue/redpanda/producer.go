// Package redpanda provides Redpanda/Kafka queue integration.
//
// It carries analysis tasks from the API process to the worker process and
// supports horizontal scaling of workers via consumer groups.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/observability"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// TopicAnalyze is the Kafka topic for quiz analysis jobs.
const TopicAnalyze = "quiz-analysis"

// Producer wraps a Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer constructs a Producer and ensures the analysis topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	return NewProducerWithTopic(brokers, TopicAnalyze)
}

// NewProducerWithTopic constructs a Producer for a specific topic. Tests use
// this to isolate topics between runs.
func NewProducerWithTopic(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	slog.Info("creating redpanda producer", slog.Any("brokers", brokers), slog.String("topic", topic))

	kotelService := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
	)))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, topic, 1, 1); err != nil {
		// Topic creation races with other instances at startup; the produce
		// path fails loudly if the topic genuinely does not exist.
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", topic), slog.Any("error", err))
	}

	return &Producer{client: client, topic: topic}, nil
}

// EnqueueAnalyze publishes an analysis task keyed by quiz id. The request id
// from the originating HTTP context rides along in the payload so worker
// logs stay correlated.
func (p *Producer) EnqueueAnalyze(ctx domain.Context, payload domain.AnalyzeTaskPayload) (string, error) {
	if payload.RequestID == "" {
		payload.RequestID = observability.RequestIDFromContext(ctx)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(payload.QuizID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "quiz_id", Value: []byte(payload.QuizID)},
			{Key: "session_id", Value: []byte(payload.SessionID)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return "", fmt.Errorf("produce: %w", err)
	}

	observability.EnqueueJob("analyze")
	observability.LoggerFromContext(ctx).Info("analysis task enqueued",
		slog.String("topic", p.topic),
		slog.String("quiz_id", payload.QuizID),
		slog.String("session_id", payload.SessionID))
	return payload.QuizID, nil
}

// Ping verifies broker connectivity, for readiness probes.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close closes the producer.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
