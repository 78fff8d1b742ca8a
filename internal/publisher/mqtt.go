package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jgoulah/solarbill/internal/config"
	"github.com/jgoulah/solarbill/internal/log"
	"github.com/jgoulah/solarbill/pkg/models"
)

const publishTimeout = 10 * time.Second

// Client is the part of mqtt.Client the publisher uses
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher sends monthly bills to an MQTT broker
type Publisher struct {
	client      Client
	topicPrefix string
}

// New connects to the broker in cfg
func New(cfg config.MQTTConfig, topicPrefix string) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	// Configure MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID("solarbill-" + uuid.NewString())
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return NewWithClient(client, topicPrefix), nil
}

// NewWithClient wraps an already connected client
func NewWithClient(client Client, topicPrefix string) *Publisher {
	return &Publisher{
		client:      client,
		topicPrefix: strings.TrimSuffix(topicPrefix, "/"),
	}
}

// CostPayload is one schedule's bill for the month
type CostPayload struct {
	NoSolar float64 `json:"no_solar"`
	Solar   float64 `json:"solar"`
}

// MonthPayload is the retained message body for one month
type MonthPayload struct {
	Month        string                 `json:"month"`
	DaysObserved int                    `json:"days_observed"`
	UsageWh      float64                `json:"usage_wh"`
	SolarSouthWh float64                `json:"solar_south_wh"`
	SolarWestWh  float64                `json:"solar_west_wh"`
	NetUsageWh   float64                `json:"net_usage_wh"`
	ActualCost   float64                `json:"actual_cost"`
	Costs        map[string]CostPayload `json:"costs"`
}

// Topic returns the topic a month is published to
func (p *Publisher) Topic(month time.Time) string {
	return fmt.Sprintf("%s/%s", p.topicPrefix, month.Format("2006-01"))
}

// PublishMonths sends one retained message per month and returns how many were sent
func (p *Publisher) PublishMonths(ctx context.Context, months []models.MonthlySummary) (int, error) {
	logger := log.Ctx(ctx)
	published := 0
	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		payload := MonthPayload{
			Month:        m.Month.Format("2006-01"),
			DaysObserved: m.DaysObserved,
			UsageWh:      m.UsageWh,
			SolarSouthWh: m.SolarSouthWh,
			SolarWestWh:  m.SolarWestWh,
			NetUsageWh:   m.SolarUsageWh,
			ActualCost:   m.ActualCost,
			Costs:        make(map[string]CostPayload, len(m.Costs)),
		}
		for name, c := range m.Costs {
			payload.Costs[name] = CostPayload{NoSolar: c.NoSolar, Solar: c.Solar}
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return published, fmt.Errorf("encoding payload: %w", err)
		}

		topic := p.Topic(m.Month)
		token := p.client.Publish(topic, 1, true, body)
		if !token.WaitTimeout(publishTimeout) {
			return published, fmt.Errorf("publishing %s: timed out after %s", topic, publishTimeout)
		}
		if err := token.Error(); err != nil {
			return published, fmt.Errorf("publishing %s: %w", topic, err)
		}

		logger.Debug("published month", "topic", topic, "bytes", len(body))
		published++
	}
	return published, nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
