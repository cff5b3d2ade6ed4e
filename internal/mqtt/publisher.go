package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"stationdesk-server/internal/config"
)

const publishTimeout = 5 * time.Second

// Publisher sends sensor telemetry to the ingest topic. It is the sensor
// side of Subscriber, used by tooling and tests.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
	now    func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, clientID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mqtt-publisher")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(publishTimeout)
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Debug("mqtt publisher connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})

	return &Publisher{
		client: mqtt.NewClient(opts),
		topic:  cfg.MQTTTopic,
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

// Connect waits for the broker connection, honouring ctx and Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Publish validates t the same way the subscriber will, then sends it with
// QoS 1. A zero Timestamp is set to now.
func (p *Publisher) Publish(t Telemetry) error {
	if t.Timestamp.IsZero() {
		t.Timestamp = p.now().UTC()
	}
	if err := validateTelemetry(t); err != nil {
		return err
	}
	if !p.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}
	token := p.client.Publish(p.topic, 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish telemetry: %w", err)
	}

	p.logger.Debug("published telemetry", "topic", p.topic, "station_no", t.StationNo, "kind", t.Kind)
	return nil
}

// Disconnect is idempotent. Connect fails afterwards.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.client.Disconnect(250)
}
