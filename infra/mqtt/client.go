package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/dispatchopt/core/monitoring"
	coremqtt "github.com/kilianp07/dispatchopt/core/mqtt"
	"github.com/kilianp07/dispatchopt/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT publisher.
type Config struct {
	Broker       string          `json:"broker"`
	ClientID     string          `json:"client_id"`
	Username     string          `json:"username"`
	Password     string          `json:"password"`
	TopicPrefix  string          `json:"topic_prefix"`
	Retain       bool            `json:"retain"`
	AckTopic     string          `json:"ack_topic"`
	AckTimeoutMS int             `json:"ack_timeout_ms"`
	UseTLS       bool            `json:"use_tls"`
	ClientCert   string          `json:"client_cert"`
	ClientKey    string          `json:"client_key"`
	CABundle     string          `json:"ca_bundle"`
	QoS          map[string]byte `json:"qos"`
	LWTTopic     string          `json:"lwt_topic"`
	LWTPayload   string          `json:"lwt_payload"`
	LWTQoS       byte            `json:"lwt_qos"`
	LWTRetain    bool            `json:"lwt_retain"`
	MaxRetries   int             `json:"max_retries"`
	BackoffMS    int             `json:"backoff_ms"`
	TLSConfig    *tls.Config     `json:"-"`
}

// SetDefaults fills the client id, topic prefix, retry count and backoff.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatchopt-" + uuid.NewString()[:8]
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "dispatch"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the broker address and the acknowledgment settings.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.AckTimeoutMS < 0 {
		return fmt.Errorf("mqtt.ack_timeout_ms must be non-negative")
	}
	if c.AckTimeoutMS > 0 && c.AckTopic == "" {
		return fmt.Errorf("mqtt.ack_topic is required when ack_timeout_ms is set")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoPublisher implements coremqtt.SchedulePublisher using Eclipse Paho.
// When an ack topic and timeout are configured, PublishSchedule waits for the
// downstream controller to confirm the run id.
type PahoPublisher struct {
	cli         pahoClient
	topicPrefix string
	retain      bool
	ackTopic    string
	ackTimeout  time.Duration
	qos         map[string]byte
	maxRetries  int
	backoff     time.Duration

	mu       sync.Mutex
	ackChans map[string]chan struct{}
	logger   logger.Logger
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the MQTT broker and, if configured, subscribes
// to the ack topic.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_publisher")
	pp := &PahoPublisher{
		topicPrefix: cfg.TopicPrefix,
		retain:      cfg.Retain,
		ackTopic:    cfg.AckTopic,
		ackTimeout:  time.Duration(cfg.AckTimeoutMS) * time.Millisecond,
		qos:         cfg.QoS,
		maxRetries:  cfg.MaxRetries,
		backoff:     time.Duration(cfg.BackoffMS) * time.Millisecond,
		ackChans:    make(map[string]chan struct{}),
		logger:      log,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if pp.ackTopic == "" {
			return
		}
		if token := c.Subscribe(pp.ackTopic, pp.qosFor("ack"), pp.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pp.cli = c
	return pp, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s holds no certificate", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (p *PahoPublisher) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

// Topic returns the topic a message is published on.
func (p *PahoPublisher) Topic(msg coremqtt.ScheduleMessage) string {
	if msg.Storage != nil {
		return fmt.Sprintf("%s/storage/%s/schedule", p.topicPrefix, msg.Storage.AssetID)
	}
	return fmt.Sprintf("%s/%s/schedule", p.topicPrefix, msg.Kind)
}

func (p *PahoPublisher) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	p.mu.Lock()
	ch, ok := p.ackChans[m.RunID]
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		p.logger.Infof("received ack %s", m.RunID)
	}
	p.mu.Unlock()
}

// PublishSchedule publishes msg with retries and exponential backoff. The
// backoff sleep honours ctx cancellation.
func (p *PahoPublisher) PublishSchedule(ctx context.Context, msg coremqtt.ScheduleMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	topic := p.Topic(msg)

	waitAck := p.ackTopic != "" && p.ackTimeout > 0
	var ack chan struct{}
	if waitAck {
		ack = make(chan struct{}, 1)
		p.mu.Lock()
		p.ackChans[msg.RunID] = ack
		p.mu.Unlock()
		defer func() {
			p.mu.Lock()
			delete(p.ackChans, msg.RunID)
			p.mu.Unlock()
		}()
	}

	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qosFor("schedule"), p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("published run %s to %s", msg.RunID, topic)
			break
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	if publishErr != nil {
		monitoring.CaptureException(publishErr, map[string]string{"run_id": msg.RunID, "module": "mqtt", "topic": topic})
		return publishErr
	}
	if !waitAck {
		return nil
	}

	timer := time.NewTimer(p.ackTimeout)
	defer timer.Stop()
	select {
	case <-ack:
		return nil
	case <-timer.C:
		return fmt.Errorf("run %s: %w", msg.RunID, coremqtt.ErrAckTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoPublisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
