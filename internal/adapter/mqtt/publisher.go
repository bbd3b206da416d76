package mqtt

import (
	"BiteBot/internal/app/engine"
	"BiteBot/internal/config"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// Publisher публикует события движка в MQTT как JSON, QoS 0, без retain.
// Топик: <root>/<pid>/<kind>; события без цели идут в <root>/engine/<kind>.
type Publisher struct {
	client paho.Client
	root   string
	logger *zap.SugaredLogger
}

// Connect подключается к брокеру. Дальше клиент переподключается сам.
func Connect(ctx context.Context, cfg config.MQTTConfig, logger *zap.SugaredLogger) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Infow("Connected to MQTT broker", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warnw("Connection to MQTT broker lost", "broker", cfg.Broker, "error", err)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return nil, fmt.Errorf("mqtt: connect: %w", context.Cause(ctx))
	case <-time.After(connectTimeout):
		return nil, errors.New("mqtt: connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, err)
	}
	return newPublisher(client, cfg.Topic, logger), nil
}

func newPublisher(client paho.Client, root string, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{client: client, root: strings.TrimSuffix(root, "/"), logger: logger}
}

// Observe реализует engine.Observer. Не ждёт подтверждения брокера.
func (p *Publisher) Observe(ev engine.Event) {
	if !p.client.IsConnected() {
		p.logger.Debugw("MQTT not connected, event dropped", "kind", ev.Kind, "pid", ev.TargetID)
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warnw("Failed to encode event", "kind", ev.Kind, "error", err)
		return
	}
	p.client.Publish(topicFor(p.root, ev), 0, false, payload)
}

// Close отключается от брокера, давая 250ms на отправку очереди.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

func topicFor(root string, ev engine.Event) string {
	target := "engine"
	if ev.TargetID != 0 {
		target = strconv.FormatUint(uint64(ev.TargetID), 10)
	}
	return root + "/" + target + "/" + string(ev.Kind)
}
