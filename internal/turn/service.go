// ABOUTME: Turn orchestrator: identity, session, webhook call, side channel, envelope
// ABOUTME: Every path ends in exactly one envelope; no error escapes to the front-end

package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/2389/lex-gateway/internal/dialog"
	"github.com/2389/lex-gateway/internal/notify"
	"github.com/2389/lex-gateway/internal/rasa"
)

// Caller-visible messages
const (
	MsgConfigMissing    = "Error: RASA_HOST or input_transcript not set"
	MsgBotNotResponding = "Error: Sorry, bot is not responding. Try again another time."
	MsgServiceDown      = "The scheduling service is currently down"
)

// State is a step in the per-turn state machine
type State string

const (
	StateStart            State = "start"
	StateIdentityResolved State = "identity_resolved"
	StateSessionEnsured   State = "session_ensured"
	StateConfigMissing    State = "config_missing"
	StateMessageSent      State = "message_sent"
	StateUpstreamError    State = "upstream_error"
	StateEmptyReply       State = "empty_reply"
	StateReplyReceived    State = "reply_received"
	StateEnvelopeBuilt    State = "envelope_built"
)

// SessionEnsurer records session existence; it must not fail
type SessionEnsurer interface {
	EnsureSession(ctx context.Context, conversationID, participantID string) bool
}

// ConversationClient forwards a message to the conversational webhook
type ConversationClient interface {
	SendMessage(ctx context.Context, endpoint, senderID, message string, metadata map[string]string) (*rasa.Reply, error)
}

// Config holds the orchestrator's settings
type Config struct {
	// Endpoint is the full webhook URL; empty means not configured
	Endpoint string
	Identity dialog.IdentityKeys
}

// Result is the outcome of one turn
type Result struct {
	Envelope   dialog.Envelope
	Outcome    State // the state that selected the envelope
	NewSession bool
}

// Service processes dialog turns
type Service struct {
	extractor dialog.Extractor
	endpoint  string
	sessions  SessionEnsurer
	client    ConversationClient
	sink      notify.Sink
	logger    *slog.Logger
}

// New creates a Service. A nil sink is replaced by notify.NopSink.
func New(cfg Config, sessions SessionEnsurer, client ConversationClient, sink notify.Sink, logger *slog.Logger) *Service {
	if sink == nil {
		sink = notify.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractor: dialog.NewExtractor(cfg.Identity),
		endpoint:  cfg.Endpoint,
		sessions:  sessions,
		client:    client,
		sink:      sink,
		logger:    logger.With("component", "turn"),
	}
}

// HandleTurn processes a raw inbound event and returns the envelope to send back
func (s *Service) HandleTurn(ctx context.Context, event []byte) dialog.Envelope {
	return s.Handle(ctx, s.extractor.ExtractTurn(event))
}

// Handle processes an already extracted turn
func (s *Service) Handle(ctx context.Context, t dialog.Turn) dialog.Envelope {
	return s.Process(ctx, t).Envelope
}

// Process runs the state machine for one extracted turn
func (s *Service) Process(ctx context.Context, t dialog.Turn) (res Result) {
	log := s.logger.With("turn_id", uuid.NewString(), "sender_id", t.SenderID)
	log.Debug("turn state", "state", StateStart)

	if t.InputTranscript == "" {
		t.InputTranscript = dialog.GreetCommand
	}
	log.Debug("turn state", "state", StateIdentityResolved,
		"conversation_id", t.ConversationID,
		"input_transcript", t.InputTranscript,
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("turn panicked", "state", res.Outcome, "panic", r)
			res.Envelope = dialog.Close(t.SessionAttributes, dialog.Fulfilled, MsgBotNotResponding)
			res.Outcome = StateUpstreamError
		}
		log.Debug("turn state", "state", StateEnvelopeBuilt,
			"outcome", res.Outcome,
			"dialog_action", res.Envelope.DialogAction.Type,
		)
	}()

	res.NewSession = s.sessions.EnsureSession(ctx, t.ConversationID, t.SenderID)
	log.Debug("turn state", "state", StateSessionEnsured, "new_session", res.NewSession)

	if s.endpoint == "" {
		res.Outcome = StateConfigMissing
		log.Warn("webhook endpoint not configured")
		s.sink.PublishExchange(ctx, t.SenderID, t.InputTranscript, MsgConfigMissing)
		res.Envelope = dialog.Close(t.SessionAttributes, dialog.Fulfilled, MsgConfigMissing)
		return res
	}

	res.Outcome = StateMessageSent
	log.Debug("turn state", "state", StateMessageSent, "endpoint", s.endpoint)
	reply, err := s.client.SendMessage(ctx, s.endpoint, t.SenderID, t.InputTranscript, t.SessionAttributes)

	switch {
	case err != nil:
		res.Outcome = StateUpstreamError
		log.Error("webhook unreachable", "error", err, "transport", isTransportError(err))
		s.sink.PublishExchange(ctx, t.SenderID, t.InputTranscript, fmt.Sprintf("Error: Bot not responding: %v", err))
		res.Envelope = dialog.Close(t.SessionAttributes, dialog.Fulfilled, MsgBotNotResponding)

	case !reply.OK():
		res.Outcome = StateUpstreamError
		log.Error("webhook returned non-success status", "status", reply.StatusCode)
		s.sink.PublishExchange(ctx, t.SenderID, t.InputTranscript, fmt.Sprintf("Error: Bot not responding %d", reply.StatusCode))
		res.Envelope = dialog.Close(t.SessionAttributes, dialog.Fulfilled, MsgBotNotResponding)

	case len(reply.Fragments) == 0:
		res.Outcome = StateEmptyReply
		log.Warn("webhook returned no messages")
		res.Envelope = dialog.Close(t.SessionAttributes, dialog.Fulfilled, MsgServiceDown)

	default:
		res.Outcome = StateReplyReceived
		s.sink.PublishUtterance(ctx, t.SenderID, t.InputTranscript)
		message := rasa.JoinFragments(reply.Fragments)
		log.Debug("turn state", "state", StateReplyReceived, "fragments", len(reply.Fragments))
		s.sink.PublishResponse(ctx, t.SenderID, message)
		res.Envelope = dialog.ElicitIntent(t.SessionAttributes, message)
	}

	return res
}

func isTransportError(err error) bool {
	var te *rasa.TransportError
	return errors.As(err, &te)
}
