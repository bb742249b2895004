package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestConfig(t *testing.T) {
	is := setupTest(t)
	config := strings.NewReader(`
notifications:
  - id: lifecycle
    name: Device lifecycle
    type: fleetmon.device.registered
    subscribers:
    - endpoint: http://api-notification:8990
`)
	cfg, err := LoadConfiguration(config)

	is.NoErr(err)
	is.Equal(len(cfg.Notifications), 1)
	is.Equal(cfg.Notifications[0].ID, "lifecycle")
	is.Equal(cfg.Notifications[0].Subscribers[0].Endpoint, "http://api-notification:8990")
}

func TestSendWithoutSubscribersIsANoOp(t *testing.T) {
	is := setupTest(t)

	sender := New(nil)

	err := sender.Send(context.Background(), DeviceRegistered, LifecycleMessage{
		DeviceNo:    "dev-001",
		CompanyName: "acme",
		Status:      "registered",
		Timestamp:   time.Now().UTC(),
	})
	is.NoErr(err)
}

func setupTest(t *testing.T) *is.I {
	is := is.New(t)

	return is
}
