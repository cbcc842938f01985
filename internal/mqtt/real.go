package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/sweeney/weather-station/internal/errors"
)

// DefaultBufferSize is the number of messages kept while disconnected.
const DefaultBufferSize = 256

const deliveryTimeout = 10 * time.Second

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker. Publishing never waits
// for the broker: delivery results are logged from a separate goroutine and
// messages are buffered while the connection is down.
type RealPublisher struct {
	client paho.Client
	log    zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // set on first successful connect
}

// NewRealPublisher creates a publisher for the given broker and starts
// connecting in the background. The broker receives an OFFLINE system event
// as last will.
func NewRealPublisher(o Options, log zerolog.Logger) *RealPublisher {
	p := newPublisher(o, log)

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: p.now(),
		Event:     SystemOffline,
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onConnectionLost(err) })

	p.client = paho.NewClient(opts)
	p.client.Connect()
	log.Info().Str("broker", o.Broker).Str("client_id", o.ClientID).Msg("connecting")
	return p
}

func newPublisher(o Options, log zerolog.Logger) *RealPublisher {
	size := o.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &RealPublisher{
		log: log,
		now: time.Now,
		buf: newRingBuffer(size, log),
	}
}

// Publish sends a readings event at QoS 0, not retained.
func (p *RealPublisher) Publish(event ReadingEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return errors.Wrapf(errors.ErrPublish, err, "format payload")
	}
	p.send(TopicReadings, 0, false, payload)
	return nil
}

// PublishSystem sends a system lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return errors.Wrapf(errors.ErrPublish, err, "format system payload")
	}
	p.send(TopicSystem, 1, event.Retained, payload)
	return nil
}

// IsConnected reports whether the connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker, allowing a second for in-flight messages.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	go p.watch(token, topic)
}

func (p *RealPublisher) watch(token paho.Token, topic string) {
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			p.log.Warn().Err(err).Str("topic", topic).Msg("publish failed")
		}
	case <-time.After(deliveryTimeout):
		p.log.Warn().Str("topic", topic).Msg("publish timed out")
	}
}

func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	pending := p.buf.drainAll()
	p.mu.Unlock()

	p.log.Info().Bool("reconnect", reconnect).Int("replay", len(pending)).Msg("connected")

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: SystemReconnected})
		go p.watch(p.client.Publish(TopicSystem, 1, false, payload), TopicSystem)
	}
	for _, m := range pending {
		go p.watch(p.client.Publish(m.topic, m.qos, m.retained, m.payload), m.topic)
	}
}

func (p *RealPublisher) onConnectionLost(err error) {
	p.log.Warn().Err(err).Msg("connection lost")
}
