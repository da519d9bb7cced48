// ABOUTME: Publisher backed by the Eclipse Paho MQTT client
// ABOUTME: Connects lazily on first publish and reconnects on the next publish after a drop

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/2389/lex-gateway/internal/config"
)

var errPublishTimeout = errors.New("publish timed out")

// pahoPublisher publishes at QoS 0 over a single shared connection
type pahoPublisher struct {
	mu      sync.Mutex
	opts    *mqtt.ClientOptions
	client  mqtt.Client
	timeout time.Duration
	logger  *slog.Logger
}

func newPahoPublisher(cfg config.MQTTConfig, logger *slog.Logger) *pahoPublisher {
	// Unique suffix: brokers disconnect an existing session when a second
	// client connects with the same id.
	clientID := fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString()[:8])

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(cfg.PublishTimeout).
		SetAutoReconnect(false).
		SetCleanSession(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})

	return &pahoPublisher{
		opts:    opts,
		timeout: cfg.PublishTimeout,
		logger:  logger,
	}
}

// connect returns a connected client, dialing if needed
func (p *pahoPublisher) connect() (mqtt.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil && p.client.IsConnected() {
		return p.client, nil
	}

	client := mqtt.NewClient(p.opts)
	token := client.Connect()
	if !token.WaitTimeout(p.timeout) {
		return nil, fmt.Errorf("connecting: %w", errPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}

	p.client = client
	p.logger.Debug("mqtt connected")
	return client, nil
}

func (p *pahoPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	client, err := p.connect()
	if err != nil {
		return err
	}

	token := client.Publish(topic, 0, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errPublishTimeout
	}
}

func (p *pahoPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	p.client = nil
}
