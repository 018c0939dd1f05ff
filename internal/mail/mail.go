// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mail hands account emails to a delivery system. Sending is
// outside this service: KafkaMailer publishes a job for a mail worker and
// NoopMailer drops the message after logging its envelope.
package mail

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/segmentio/kafka-go"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/observability"
)

// DefaultTopic is the Kafka topic mail jobs are published to.
const DefaultTopic = "holoauth.mail"

// batchTimeout caps how long the writer holds a partial batch.
const batchTimeout = 10 * time.Millisecond

// Job is the payload published for each email.
type Job struct {
	ID        string         `json:"id"`
	From      string         `json:"from"`
	Kind      auth.EmailKind `json:"kind"`
	To        string         `json:"to"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"createdAt"`
}

// messageWriter is the subset of *kafka.Writer KafkaMailer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMailer implements auth.Mailer by publishing Jobs to Kafka, keyed by
// recipient so one recipient's emails stay ordered.
//
// The writer NewKafkaMailer builds is asynchronous: Send returns once the
// job is queued, and delivery failures are logged when the batch completes.
type KafkaMailer struct {
	writer messageWriter
	from   string
	now    func() time.Time
	logger *slog.Logger
}

var _ auth.Mailer = (*KafkaMailer)(nil)

// KafkaConfig configures NewKafkaMailer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	From    string
	// Logger receives asynchronous delivery failures. Nil uses slog.Default.
	Logger *slog.Logger
}

// NewKafkaMailer creates a KafkaMailer writing to cfg.Brokers.
func NewKafkaMailer(cfg KafkaConfig) (*KafkaMailer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("at least one kafka broker is required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	m := newKafkaMailer(nil, cfg.From)
	if cfg.Logger != nil {
		m.logger = cfg.Logger
	}
	m.writer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchSize:              1,
		BatchTimeout:           batchTimeout,
		Async:                  true,
		Completion:             m.completed,
	}
	return m, nil
}

func newKafkaMailer(w messageWriter, from string) *KafkaMailer {
	return &KafkaMailer{writer: w, from: from, now: time.Now, logger: slog.Default()}
}

// completed reports the outcome of an asynchronous write.
func (m *KafkaMailer) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range msgs {
		kind := header(msg, "kind")
		observability.RecordMailFailure(kind)
		m.logger.Warn("failed to publish email",
			"event", "mail_publish_failed",
			"kind", kind,
			"job_id", header(msg, "job_id"),
			"error", err.Error(),
		)
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Send publishes email as a Job. With an asynchronous writer a nil error
// means the job was queued.
func (m *KafkaMailer) Send(ctx context.Context, email auth.Email) error {
	job := Job{
		ID:        ulid.Make().String(),
		From:      m.from,
		Kind:      email.Kind,
		To:        email.To,
		Subject:   email.Subject,
		Body:      email.Body,
		CreatedAt: m.now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		observability.RecordMailFailure(string(email.Kind))
		return oops.Code("MAIL_ENCODE_FAILED").With("kind", string(email.Kind)).Wrap(err)
	}

	err = m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strings.ToLower(email.To)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(email.Kind)},
			{Key: "job_id", Value: []byte(job.ID)},
		},
	})
	if err != nil {
		observability.RecordMailFailure(string(email.Kind))
		return oops.Code("MAIL_PUBLISH_FAILED").
			With("kind", string(email.Kind)).
			With("job_id", job.ID).
			Wrap(err)
	}
	return nil
}

// Close flushes pending writes and releases the Kafka connections.
func (m *KafkaMailer) Close() error {
	if err := m.writer.Close(); err != nil {
		return oops.Code("MAIL_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

// NoopMailer implements auth.Mailer without delivering anything. It logs
// the kind and recipient only.
type NoopMailer struct {
	logger *slog.Logger
}

var _ auth.Mailer = (*NoopMailer)(nil)

// NewNoopMailer creates a NoopMailer. A nil logger uses slog.Default.
func NewNoopMailer(logger *slog.Logger) *NoopMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopMailer{logger: logger}
}

// Send logs the email envelope and returns nil.
func (m *NoopMailer) Send(ctx context.Context, email auth.Email) error {
	m.logger.InfoContext(ctx, "email not delivered, mail driver is noop",
		"event", "mail_dropped",
		"kind", string(email.Kind),
		"to", email.To,
	)
	return nil
}

// Close is a no-op.
func (m *NoopMailer) Close() error { return nil }
