package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/kilianp07/skydispatch/core/monitoring"
	coremqtt "github.com/kilianp07/skydispatch/core/mqtt"
	"github.com/kilianp07/skydispatch/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	UseTLS      bool   `json:"use_tls"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
	CABundle    string `json:"ca_bundle"`
	AuthMethod  string `json:"auth_method"`
	// QoS per topic kind: "orders", "receipts", "status".
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	TLSConfig  *tls.Config     `json:"-"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "skydispatch"
	}
	if c.ClientID == "" {
		c.ClientID = "skydispatch-" + uuid.NewString()[:8]
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the settings needed to connect.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt: broker required")
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("mqtt: unknown auth_method %q", c.AuthMethod)
	}
	for kind, q := range c.QoS {
		if q > 2 {
			return fmt.Errorf("mqtt: qos for %s must be 0, 1 or 2", kind)
		}
	}
	return nil
}

// Topics returns the topics derived from TopicPrefix.
func (c Config) Topics() coremqtt.Topics { return coremqtt.NewTopics(c.TopicPrefix) }

// pahoClient is the subset of paho.Client used by PahoClient.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

type subscription struct {
	qos     byte
	handler func(payload []byte)
}

// PahoClient publishes and subscribes through Eclipse Paho. Subscriptions
// are restored on every reconnect.
type PahoClient struct {
	cli        pahoClient
	qos        map[string]byte
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration

	mu   sync.Mutex
	subs map[string]subscription
}

// NewPahoClient connects to the MQTT broker.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		qos:        cfg.QoS,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		subs:       make(map[string]subscription),
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		pc.resubscribe(c)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	pc.cli = c
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.SetConnectTimeout(10 * time.Second)
	if cfg.AuthMethod != "certificate" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS || cfg.AuthMethod == "certificate" || cfg.AuthMethod == "both" {
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

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

// Subscribe registers handler for topic using the QoS configured for kind.
func (p *PahoClient) Subscribe(topic, kind string, handler func(payload []byte)) error {
	sub := subscription{qos: p.qosFor(kind), handler: handler}
	p.mu.Lock()
	p.subs[topic] = sub
	p.mu.Unlock()
	token := p.cli.Subscribe(topic, sub.qos, func(_ paho.Client, m paho.Message) { handler(m.Payload()) })
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

func (p *PahoClient) resubscribe(c paho.Client) {
	p.mu.Lock()
	subs := make(map[string]subscription, len(p.subs))
	for t, s := range p.subs {
		subs[t] = s
	}
	p.mu.Unlock()
	for topic, s := range subs {
		h := s.handler
		if token := c.Subscribe(topic, s.qos, func(_ paho.Client, m paho.Message) { h(m.Payload()) }); token.Wait() && token.Error() != nil {
			p.logger.Errorf("subscribe %s: %v", topic, token.Error())
		}
	}
}

// Publish sends payload to topic with exponential backoff between attempts.
// The final failure is reported to the error monitor.
func (p *PahoClient) Publish(topic, kind string, payload []byte) error {
	if !p.cli.IsConnected() {
		return coremqtt.ErrNotConnected
	}
	qos := p.qosFor(kind)
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	coremon.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
