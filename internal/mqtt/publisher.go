// Package mqtt publishes liveness state to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

const (
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // ms
	resultSuffix      = "result"
	usersLevel        = "users"
)

// topicEscaper percent-encodes the characters MQTT gives meaning to in a
// topic level, so a user id always maps to exactly one level.
var topicEscaper = strings.NewReplacer(
	"%", "%25",
	"/", "%2F",
	"+", "%2B",
	"#", "%23",
	"\x00", "%00",
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
}

// Client is the part of the paho client the publisher uses
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends every update to <topic>/users/<user_id> and retains terminal
// outcomes on <topic>/result.
type Publisher struct {
	config Config
	client Client
	logger *slog.Logger
}

// Connect dials the broker with auto-reconnect enabled
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, token.Error())
	}

	logger.Info("mqtt connected", "broker", cfg.Broker, "topic", cfg.Topic)
	return NewPublisher(client, cfg, logger), nil
}

func NewPublisher(client Client, cfg Config, logger *slog.Logger) *Publisher {
	cfg.Topic = strings.TrimRight(cfg.Topic, "/")
	return &Publisher{
		config: cfg,
		client: client,
		logger: logger.With("component", "mqtt"),
	}
}

// Publish sends one update
func (p *Publisher) Publish(update domain.Update) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	if err := p.send(p.UpdateTopic(update.UserID), 0, false, payload); err != nil {
		return err
	}
	if update.Status.Terminal() {
		return p.send(p.ResultTopic(), 1, true, payload)
	}
	return nil
}

// UpdateTopic is <topic>/users/<escaped user id>, or <topic> for updates
// without a user
func (p *Publisher) UpdateTopic(userID string) string {
	if userID == "" {
		return p.config.Topic
	}
	return p.config.Topic + "/" + usersLevel + "/" + topicEscaper.Replace(userID)
}

func (p *Publisher) ResultTopic() string {
	return p.config.Topic + "/" + resultSuffix
}

func (p *Publisher) send(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Run publishes updates until the channel closes or ctx is done
func (p *Publisher) Run(ctx context.Context, updates <-chan domain.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := p.Publish(update); err != nil {
				p.logger.Warn("mqtt publish failed", "status", update.Status, "error", err)
			}
		}
	}
}

func (p *Publisher) Close() {
	p.client.Disconnect(disconnectQuiesce)
}
