// ABOUTME: HTTP handler that accepts Lex code hook events and returns dialog envelopes
// ABOUTME: Provides POST /lex/turn for running the gateway outside Lambda

package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/2389/lex-gateway/internal/config"
	"github.com/2389/lex-gateway/internal/dialog"
)

// maxEventBytes bounds the size of an inbound event
const maxEventBytes = 1 << 20

// handleTurn handles POST /lex/turn requests.
// Any body that fits is processed; a malformed event is treated as empty,
// so a processed turn always answers 200 with an envelope.
func (g *Gateway) handleTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "event too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	env := g.turns.HandleTurn(r.Context(), body)
	writeEnvelope(w, env)
}

func writeEnvelope(w http.ResponseWriter, env dialog.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// identityKeys maps the identity config onto the extractor's keys.
func identityKeys(cfg config.IdentityConfig) dialog.IdentityKeys {
	return dialog.IdentityKeys{
		Phone:          cfg.PhoneAttribute,
		Conversation:   cfg.ConversationAttribute,
		FallbackSender: cfg.FallbackSender,
	}
}
