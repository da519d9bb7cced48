// ABOUTME: Best-effort notification sink mirroring utterances and responses to a broker
// ABOUTME: Selects the MQTT sink when a complete broker config is present, otherwise a no-op

package notify

import (
	"context"
	"log/slog"

	"github.com/tidwall/sjson"

	"github.com/2389/lex-gateway/internal/config"
)

// Topic suffixes under the configured prefix
const (
	TopicUtterance = "utterance"
	TopicResponse  = "response"
)

// Sink mirrors turn traffic to an observer. Publishing never fails from the
// caller's point of view: implementations log and swallow errors.
type Sink interface {
	PublishUtterance(ctx context.Context, senderID, text string)
	PublishResponse(ctx context.Context, senderID, text string)
	PublishExchange(ctx context.Context, senderID, utterance, response string)
	Close() error
}

// New returns an MQTT sink when host, username and password are all set,
// and a NopSink otherwise. No connection is attempted until the first publish.
func New(cfg config.MQTTConfig, logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "notify")

	if !cfg.Enabled() {
		logger.Info("mqtt side channel disabled (host, username and password required)")
		return NopSink{}
	}

	logger.Info("mqtt side channel enabled", "host", cfg.Host, "port", cfg.Port, "topic_prefix", cfg.TopicPrefix)
	return NewMQTTSink(newPahoPublisher(cfg, logger), cfg.TopicPrefix, logger)
}

// NopSink discards everything without doing any I/O
type NopSink struct{}

func (NopSink) PublishUtterance(context.Context, string, string) {}
func (NopSink) PublishResponse(context.Context, string, string) {}
func (NopSink) PublishExchange(context.Context, string, string, string) {}
func (NopSink) Close() error { return nil }

// Publisher delivers a payload to a broker topic
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close()
}

// MQTTSink publishes JSON payloads to {prefix}/utterance and {prefix}/response
type MQTTSink struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

// NewMQTTSink creates a sink over any Publisher
func NewMQTTSink(pub Publisher, prefix string, logger *slog.Logger) *MQTTSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTSink{pub: pub, prefix: prefix, logger: logger}
}

// PublishUtterance sends {"sender_id", "utterance"} to the utterance topic
func (s *MQTTSink) PublishUtterance(ctx context.Context, senderID, text string) {
	s.publish(ctx, TopicUtterance, senderID, "utterance", text)
}

// PublishResponse sends {"sender_id", "response"} to the response topic
func (s *MQTTSink) PublishResponse(ctx context.Context, senderID, text string) {
	s.publish(ctx, TopicResponse, senderID, "response", text)
}

// PublishExchange sends {"sender_id", "utterance", "response"} to the utterance topic
func (s *MQTTSink) PublishExchange(ctx context.Context, senderID, utterance, response string) {
	s.publish(ctx, TopicUtterance, senderID, "utterance", utterance, "response", response)
}

// Close disconnects from the broker
func (s *MQTTSink) Close() error {
	s.pub.Close()
	return nil
}

// publish builds the payload from alternating field/value pairs after sender_id
func (s *MQTTSink) publish(ctx context.Context, suffix, senderID string, fields ...string) {
	topic := s.prefix + "/" + suffix

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("mqtt publish panicked", "topic", topic, "panic", r)
		}
	}()

	payload, err := buildPayload(senderID, fields...)
	if err != nil {
		s.logger.Warn("mqtt payload build failed", "topic", topic, "error", err)
		return
	}

	if err := s.pub.Publish(ctx, topic, payload); err != nil {
		s.logger.Warn("mqtt publish failed", "topic", topic, "sender_id", senderID, "error", err)
		return
	}
	s.logger.Debug("mqtt published", "topic", topic, "sender_id", senderID)
}

func buildPayload(senderID string, fields ...string) ([]byte, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "sender_id", senderID)
	if err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(fields); i += 2 {
		payload, err = sjson.SetBytes(payload, fields[i], fields[i+1])
		if err != nil {
			return nil, err
		}
	}
	return payload, nil
}
