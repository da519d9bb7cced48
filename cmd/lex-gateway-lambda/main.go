// ABOUTME: AWS Lambda entry point for lex-gateway
// ABOUTME: Answers Lex v1 code hook invocations with dialog envelopes

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/2389/lex-gateway/internal/config"
	"github.com/2389/lex-gateway/internal/dialog"
	"github.com/2389/lex-gateway/internal/gateway"
)

// turnHandler serves invocations from one gateway built at cold start
type turnHandler struct {
	gw     *gateway.Gateway
	logger *slog.Logger
}

// Handle processes one invocation. It never returns an error: every failure
// is already mapped to an envelope by the turn service.
func (h *turnHandler) Handle(ctx context.Context, event json.RawMessage) (dialog.Envelope, error) {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		h.logger.Debug("invocation", "aws_request_id", lc.AwsRequestID)
	}
	return h.gw.Turns().HandleTurn(ctx, event), nil
}

func newHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*turnHandler, error) {
	gw, err := gateway.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating gateway: %w", err)
	}
	return &turnHandler{gw: gw, logger: logger.With("component", "lambda")}, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	// Configuration comes from the environment unless a file is provided
	cfg, err := config.LoadOrDefault(os.Getenv("LEX_GATEWAY_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	time.Local = loc

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Logging.Level)}))

	h, err := newHandler(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("cold start failed", "error", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
