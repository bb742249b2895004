package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"golang.org/x/sys/unix"
	yaml "gopkg.in/yaml.v2"

	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/logging"
)

const (
	DeviceRegistered   = "fleetmon.device.registered"
	DeviceUnregistered = "fleetmon.device.unregistered"
)

// LifecycleMessage is the payload delivered to subscribers when a
// device enters or leaves service.
type LifecycleMessage struct {
	DeviceNo    string    `json:"deviceNo"`
	CompanyName string    `json:"companyName"`
	Status      string    `json:"registrationStatus"`
	Timestamp   time.Time `json:"timestamp"`
}

//go:generate moq -rm -out events_mock.go . EventSender

type EventSender interface {
	Send(ctx context.Context, eventType string, message LifecycleMessage) error
}

type eventSender struct {
	subscribers map[string][]SubscriberConfig
}

// New creates a sender from the notification configuration. A nil
// config produces a sender with no subscribers, which sends nothing.
func New(cfg *Config) EventSender {
	e := &eventSender{
		subscribers: make(map[string][]SubscriberConfig),
	}

	if cfg != nil {
		for _, s := range cfg.Notifications {
			e.subscribers[s.Type] = s.Subscribers
		}
	}

	return e
}

func (e *eventSender) Send(ctx context.Context, eventType string, message LifecycleMessage) error {
	if s, ok := e.subscribers[eventType]; !ok || len(s) == 0 {
		return nil
	}

	c, err := cloudevents.NewClientHTTP()
	if err != nil {
		return err
	}

	event := cloudevents.NewEvent()
	event.SetID(fmt.Sprintf("%s:%d", message.DeviceNo, message.Timestamp.Unix()))
	event.SetTime(message.Timestamp)
	event.SetSource("github.com/fleetmon/hardware-monitor")
	event.SetType(eventType)

	err = event.SetData(cloudevents.ApplicationJSON, message)
	if err != nil {
		return err
	}

	logger := logging.GetLoggerFromContext(ctx)

	for _, s := range e.subscribers[eventType] {
		ctxWithTarget := cloudevents.ContextWithTarget(ctx, s.Endpoint)

		result := c.Send(ctxWithTarget, event)
		if cloudevents.IsUndelivered(result) || errors.Is(result, unix.ECONNREFUSED) {
			logger.Error().Err(result).Msgf("failed to send event to %s", s.Endpoint)
			err = fmt.Errorf("%w", result)
		}
	}

	return err
}

type SubscriberConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type Notification struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Subscribers []SubscriberConfig `yaml:"subscribers"`
}

type Config struct {
	Notifications []Notification `yaml:"notifications"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := yaml.Unmarshal(buf, &cfg); err == nil {
		return &cfg, nil
	} else {
		return nil, err
	}
}
