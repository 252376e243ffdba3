// Package mqtt connects the bridge to a message broker: commands arrive on
// visca/command/<name>, reply frames leave on visca/data and status lines
// on visca/status.
package mqtt

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"visca-bridge/internal/protocol"
	"visca-bridge/internal/ptz"
	"visca-bridge/internal/pubsub"
	"visca-bridge/internal/visca"
)

const (
	qos            = 0
	statusReady    = "ready"
	connectTimeout = 10 * time.Second
	commandTimeout = 5 * time.Second
	forwardBuffer  = 64
	disconnectWait = 250 // ms
)

// Config for the broker connection
type Config struct {
	Server       string
	Port         string
	ClientPrefix string
}

// BrokerURL returns the tcp:// URL of the broker.
func (c Config) BrokerURL() string {
	return "tcp://" + net.JoinHostPort(c.Server, c.Port)
}

// ClientID returns the prefix followed by a random hex suffix.
func ClientID(prefix string) string {
	return fmt.Sprintf("%s%x", prefix, rand.Intn(0xffff))
}

// Client relays between the broker and the camera controller.
type Client struct {
	cfg       Config
	ctrl      ptz.Controller
	bus       *pubsub.PubSub
	conn      paho.Client
	connected atomic.Bool

	// publish is swapped out in tests
	publish func(topic string, payload []byte)
}

// New creates a client. Nothing is connected until Run.
func New(cfg Config, ctrl ptz.Controller, bus *pubsub.PubSub) *Client {
	c := &Client{cfg: cfg, ctrl: ctrl, bus: bus}
	c.publish = c.brokerPublish
	return c
}

// Connected reports whether the broker session is up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Run connects to the broker, keeps reconnecting while ctx is live and
// forwards bridge output until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(c.cfg.BrokerURL()).
		SetClientID(ClientID(c.cfg.ClientPrefix)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.connected.Store(false)
			log.Printf("MQTT: connection lost: %v", err)
		})

	c.conn = paho.NewClient(opts)
	log.Printf("MQTT: connecting to %s", c.cfg.BrokerURL())

	// With ConnectRetry the token only fails on bad options; the library
	// keeps dialling in the background.
	if token := c.conn.Connect(); token.WaitTimeout(connectTimeout) && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	data := c.bus.Subscribe(pubsub.TopicData, forwardBuffer)
	status := c.bus.Subscribe(pubsub.TopicStatus, forwardBuffer)
	defer c.bus.Unsubscribe(data)
	defer c.bus.Unsubscribe(status)

	for {
		select {
		case <-ctx.Done():
			c.conn.Disconnect(disconnectWait)
			c.connected.Store(false)
			log.Println("MQTT: disconnected")
			return ctx.Err()
		case msg := <-data.Channel:
			c.forward(pubsub.TopicData, msg)
		case msg := <-status.Channel:
			c.forward(pubsub.TopicStatus, msg)
		}
	}
}

func (c *Client) onConnect(conn paho.Client) {
	c.connected.Store(true)
	log.Printf("MQTT: connected to %s", c.cfg.BrokerURL())

	token := conn.Subscribe(protocol.TopicCommands, qos, func(_ paho.Client, m paho.Message) {
		c.handleCommand(m.Topic(), m.Payload())
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("MQTT: subscribe %s failed: %v", protocol.TopicCommands, token.Error())
		return
	}
	c.publish(protocol.TopicStatus, []byte(statusReady))
}

// handleCommand runs on the paho callback goroutine.
func (c *Client) handleCommand(topic string, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if _, err := ptz.Dispatch(ctx, c.ctrl, topic, payload); err != nil {
		log.Printf("MQTT: %s: %v", topic, err)
		c.publish(protocol.TopicStatus, []byte(err.Error()))
	}
}

// forward maps a bus message onto the broker: reply frames as their raw
// bytes, status lines as text.
func (c *Client) forward(topic pubsub.Topic, msg interface{}) {
	switch m := msg.(type) {
	case visca.Reply:
		c.publish(protocol.TopicData, m.Raw)
	case visca.Frame:
		c.publish(protocol.TopicData, m)
	case string:
		c.publish(string(topic), []byte(m))
	}
}

func (c *Client) brokerPublish(topic string, payload []byte) {
	if c.conn == nil || !c.conn.IsConnectionOpen() {
		return
	}
	c.conn.Publish(topic, qos, false, payload)
}
