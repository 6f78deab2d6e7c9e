package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/observability"
	"github.com/pathfinderhq/pathfinder-backend/internal/config"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// Consumer wraps a Kafka group consumer and dispatches analysis tasks to a
// bounded worker pool.
type Consumer struct {
	client  *kgo.Client
	subs    domain.SubmissionRepository
	ai      domain.AIClient
	cfg     config.Config
	groupID string
	topic   string
	// sem bounds the number of analyses in flight; each holds an AI request
	// open for up to analysisTimeout.
	sem chan struct{}
}

// NewConsumer constructs a Consumer for the analysis topic.
func NewConsumer(cfg config.Config, subs domain.SubmissionRepository, aicl domain.AIClient) (*Consumer, error) {
	return NewConsumerWithTopic(cfg, subs, aicl, TopicAnalyze)
}

// NewConsumerWithTopic constructs a Consumer for a specific topic. Tests use
// this to isolate topics between runs.
func NewConsumerWithTopic(cfg config.Config, subs domain.SubmissionRepository, aicl domain.AIClient, topic string) (*Consumer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if cfg.ConsumerGroup == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	slog.Info("creating redpanda consumer",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("group_id", cfg.ConsumerGroup),
		slog.String("topic", topic))

	kotelService := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
	)))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.KafkaBrokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(topic),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10*time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.FetchMaxWait(5*time.Second),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda consumer client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, topic, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", topic), slog.Any("error", err))
	}

	concurrency := cfg.ConsumerMaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		client:  client,
		subs:    subs,
		ai:      aicl,
		cfg:     cfg,
		groupID: cfg.ConsumerGroup,
		topic:   topic,
		sem:     make(chan struct{}, concurrency),
	}, nil
}

// Start consumes until the context is canceled. Each record is processed on
// its own goroutine, bounded by the concurrency semaphore, and marked for
// commit only after processing returns.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("redpanda consumer started",
		slog.String("group_id", c.groupID),
		slog.String("topic", c.topic),
		slog.Int("max_concurrency", cap(c.sem)))

	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			slog.Info("redpanda consumer shutting down")
			return ctx.Err()
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, e := range errs {
				slog.Error("fetch error",
					slog.String("topic", e.Topic),
					slog.Int("partition", int(e.Partition)),
					slog.Any("error", e.Err))
			}
			time.Sleep(2 * time.Second)
			continue
		}

		fetches.EachRecord(func(record *kgo.Record) {
			select {
			case c.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			go func(rec *kgo.Record) {
				defer func() { <-c.sem }()
				if err := c.processRecord(ctx, rec); err != nil {
					slog.Error("failed to process record",
						slog.Int64("offset", rec.Offset),
						slog.Int("partition", int(rec.Partition)),
						slog.Any("error", err))
				}
				c.client.MarkCommitRecords(rec)
			}(record)
		})
	}
}

// processRecord unmarshals one task and runs the analysis pipeline with a
// request-correlated logger on the context.
func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) error {
	tracer := otel.Tracer("queue.consumer")
	ctx, span := tracer.Start(ctx, "ProcessAnalyzeJob")
	defer span.End()

	var payload domain.AnalyzeTaskPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		// A poison message can never succeed; drop it instead of redelivering.
		slog.Error("failed to unmarshal payload, dropping record",
			slog.Int64("offset", record.Offset), slog.Any("error", err))
		return nil
	}

	lg := slog.Default().With(
		slog.String("quiz_id", payload.QuizID),
		slog.String("session_id", payload.SessionID),
	)
	if payload.RequestID != "" {
		lg = lg.With(slog.String("request_id", payload.RequestID))
		ctx = observability.ContextWithRequestID(ctx, payload.RequestID)
	}
	ctx = observability.ContextWithLogger(ctx, lg)

	lg.Info("processing analysis task", slog.Int64("offset", record.Offset))
	return HandleAnalyze(ctx, c.subs, c.ai, c.cfg, payload)
}

// Close closes the consumer client.
func (c *Consumer) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
