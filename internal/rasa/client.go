// ABOUTME: HTTP client for the Rasa REST channel webhook
// ABOUTME: One JSON POST per message; non-2xx is a status, not an error; transport faults are TransportError

package rasa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// WebhookPath is the Rasa REST channel endpoint path
const WebhookPath = "/webhooks/rest/webhook"

// maxReplyBytes bounds how much of a reply body is read
const maxReplyBytes = 4 << 20

// Fragment is one bot utterance from the webhook reply
type Fragment struct {
	Text string
}

// Reply is the webhook's answer to one message
type Reply struct {
	StatusCode int
	Fragments  []Fragment
}

// OK reports whether the webhook answered with a 2xx status
func (r *Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// TransportError reports a failure to reach the webhook or to read its reply.
// It is distinct from a non-2xx response, which is returned as a Reply.
type TransportError struct {
	Op  string // "marshal", "request", "send", "read", "decode"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rasa %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// sendRequest is the JSON body posted to the webhook
type sendRequest struct {
	Sender   string            `json:"sender"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata"`
}

// Client posts messages to a Rasa webhook
type Client struct {
	HTTP   *http.Client
	logger *slog.Logger
}

// NewClient creates a client whose requests time out after timeout.
// A zero timeout leaves requests bounded only by the caller's context.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		HTTP:   &http.Client{Timeout: timeout},
		logger: logger.With("component", "rasa"),
	}
}

// EndpointURL builds the webhook URL from a host. A bare host ("rasa:5005")
// gets http:// and the REST channel path; a host that already has a scheme is
// treated as a base URL and gets the path appended. Empty host yields "".
func EndpointURL(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/") + WebhookPath
}

// SendMessage posts one message and returns the reply. No retry is attempted.
func (c *Client) SendMessage(ctx context.Context, endpoint, senderID, message string, metadata map[string]string) (*Reply, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	body, err := json.Marshal(sendRequest{Sender: senderID, Message: message, Metadata: metadata})
	if err != nil {
		return nil, &TransportError{Op: "marshal", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	start := time.Now()
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "send", Err: err}
	}
	defer res.Body.Close()

	c.logger.Debug("webhook responded",
		"endpoint", endpoint,
		"status", res.StatusCode,
		"duration", time.Since(start),
	)

	reply := &Reply{StatusCode: res.StatusCode}
	if !reply.OK() {
		// Drain so the connection can be reused; the body is not interpreted
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxReplyBytes))
		return reply, nil
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxReplyBytes))
	if err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}

	fragments, err := ParseFragments(data)
	if err != nil {
		return nil, &TransportError{Op: "decode", Err: err}
	}
	reply.Fragments = fragments
	return reply, nil
}

// ParseFragments reads a reply body: a JSON array of objects with a "text"
// field. Order is preserved. Elements without text (images, buttons) yield
// an empty fragment.
func ParseFragments(data []byte) ([]Fragment, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("reply is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("reply is %s, want array", root.Type)
	}

	items := root.Array()
	fragments := make([]Fragment, 0, len(items))
	for _, item := range items {
		fragments = append(fragments, Fragment{Text: item.Get("text").String()})
	}
	return fragments, nil
}

// JoinFragments concatenates fragment texts, each followed by a newline
func JoinFragments(fragments []Fragment) string {
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(f.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
