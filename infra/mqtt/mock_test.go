package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type subscribed struct {
	topic   string
	qos     byte
	handler paho.MessageHandler
}

// mockClient implements pahoClient for tests
type mockClient struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	subscribed  []subscribed
	published   []published
	publishErrs []error
	offline     bool
}

func installMock(mc *mockClient) func() {
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	return func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }
}

func (m *mockClient) IsConnected() bool { return !m.offline }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic, qos, b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, h paho.MessageHandler) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed = append(m.subscribed, subscribed{topic, qos, h})
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return !m.offline }

func (m *mockClient) publishedTo(topic string) []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []published
	for _, p := range m.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct {
	topic string
	p     []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}
