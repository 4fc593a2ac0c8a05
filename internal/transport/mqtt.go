package transport

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"airtracker/panel/internal/logging"
)

// NearestTopic returns the topic carrying the nearest-aircraft document.
func NearestTopic(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "/nearest"
}

// MQTTOptions configures the subscriber.
type MQTTOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	Prefix   string
	// ClientID defaults to "airtracker-" plus a random suffix.
	ClientID       string
	ConnectTimeout time.Duration
}

// Subscriber feeds the inbox from the broker. It resubscribes on every reconnect.
type Subscriber struct {
	opts   MQTTOptions
	topic  string
	inbox  *Inbox
	client mqtt.Client

	connected atomic.Bool
	messages  atomic.Uint64
}

func NewSubscriber(opts MQTTOptions, inbox *Inbox) *Subscriber {
	if opts.ClientID == "" {
		opts.ClientID = "airtracker-" + uuid.NewString()[:8]
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	return &Subscriber{opts: opts, topic: NearestTopic(opts.Prefix), inbox: inbox}
}

func (s *Subscriber) broker() string {
	return fmt.Sprintf("tcp://%s:%d", s.opts.Host, s.opts.Port)
}

// Run connects and delivers messages until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	o := mqtt.NewClientOptions()
	o.AddBroker(s.broker())
	o.SetClientID(s.opts.ClientID)
	if s.opts.Username != "" {
		o.SetUsername(s.opts.Username)
		o.SetPassword(s.opts.Password)
	}
	o.SetCleanSession(true)
	o.SetAutoReconnect(true)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(2 * time.Second)
	o.SetMaxReconnectInterval(30 * time.Second)

	o.OnConnect = func(c mqtt.Client) {
		s.connected.Store(true)
		logging.Info("MQTT connected", "broker", s.broker(), "client_id", s.opts.ClientID)
		token := c.Subscribe(s.topic, 0, s.handle)
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			logging.Error("MQTT subscribe failed", "topic", s.topic, "error", token.Error())
			return
		}
		logging.Info("MQTT subscribed", "topic", s.topic)
	}
	o.OnConnectionLost = func(c mqtt.Client, err error) {
		s.connected.Store(false)
		logging.Warn("MQTT connection lost, will auto-reconnect", "broker", s.broker(), "error", err)
	}

	s.client = mqtt.NewClient(o)
	logging.Info("Connecting to MQTT broker", "broker", s.broker())

	// With ConnectRetry the token only completes once connected, so a broker that is
	// down at start-up is not fatal.
	token := s.client.Connect()
	if token.WaitTimeout(s.opts.ConnectTimeout) {
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect %s: %w", s.broker(), err)
		}
	} else {
		logging.Warn("MQTT broker not reachable yet, retrying in background", "broker", s.broker())
	}

	<-ctx.Done()
	s.client.Disconnect(250)
	s.connected.Store(false)
	logging.Info("MQTT disconnected")
	return nil
}

func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())
	s.messages.Add(1)
	s.inbox.Put(Message{
		Source:   "mqtt",
		Topic:    msg.Topic(),
		Payload:  payload,
		Received: time.Now(),
	})
}

func (s *Subscriber) Connected() bool { return s.connected.Load() }

func (s *Subscriber) Messages() uint64 { return s.messages.Load() }

func (s *Subscriber) Topic() string { return s.topic }
