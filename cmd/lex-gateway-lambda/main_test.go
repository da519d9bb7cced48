// ABOUTME: Tests for the Lambda handler
// ABOUTME: Invokes Handle directly with a memory-backed gateway

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/lex-gateway/internal/config"
	"github.com/2389/lex-gateway/internal/dialog"
	"github.com/2389/lex-gateway/internal/turn"
)

func testHandler(t *testing.T, webhookURL string) *turnHandler {
	t.Helper()
	cfg := config.Default()
	cfg.Sessions.Backend = config.BackendMemory
	cfg.Webhook.URL = webhookURL

	h, err := newHandler(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.gw.Shutdown(context.Background()) })
	return h
}

func TestHandle_Reply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"text":"Your appointment is Tuesday."}]`))
	}))
	defer srv.Close()

	h := testHandler(t, srv.URL)
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})

	env, err := h.Handle(ctx, json.RawMessage(`{"inputTranscript":"when?","sessionAttributes":{"PhoneNumber":"+1555"}}`))

	require.NoError(t, err)
	assert.Equal(t, dialog.ActionElicitIntent, env.DialogAction.Type)
	assert.Equal(t, "Your appointment is Tuesday.\n", env.Content())
	assert.Equal(t, "+1555", env.SessionAttributes["PhoneNumber"])
}

func TestHandle_WebhookNotConfigured(t *testing.T) {
	h := testHandler(t, "")

	env, err := h.Handle(context.Background(), json.RawMessage(`{}`))

	require.NoError(t, err)
	assert.Equal(t, dialog.ActionClose, env.DialogAction.Type)
	assert.Equal(t, turn.MsgConfigMissing, env.Content())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
