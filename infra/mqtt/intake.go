package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/skydispatch/core/logger"
	"github.com/kilianp07/skydispatch/core/model"
	coremqtt "github.com/kilianp07/skydispatch/core/mqtt"
)

// Transport publishes and subscribes raw payloads. *PahoClient implements it.
type Transport interface {
	Publish(topic, kind string, payload []byte) error
	Subscribe(topic, kind string, handler func(payload []byte)) error
}

// OrderSubmitter accepts orders, typically *runner.Runner.
type OrderSubmitter interface {
	Submit(o model.Order) (uint64, error)
}

// OrderIntake feeds orders read from the orders topic into the runner and
// answers each message with a receipt.
type OrderIntake struct {
	transport Transport
	submitter OrderSubmitter
	topics    coremqtt.Topics
	log       logger.Logger
}

// NewOrderIntake creates an intake. Call Start to subscribe.
func NewOrderIntake(t Transport, s OrderSubmitter, topics coremqtt.Topics, log logger.Logger) *OrderIntake {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &OrderIntake{transport: t, submitter: s, topics: topics, log: log}
}

// Start subscribes to the orders topic.
func (i *OrderIntake) Start() error {
	return i.transport.Subscribe(i.topics.Orders, "orders", i.handle)
}

func (i *OrderIntake) handle(payload []byte) {
	receipt := i.accept(payload)
	b, err := json.Marshal(receipt)
	if err != nil {
		i.log.Errorf("encode receipt: %v", err)
		return
	}
	if err := i.transport.Publish(i.topics.Receipts, "receipts", b); err != nil {
		i.log.Warnf("publish receipt %s: %v", receipt.ID, err)
	}
}

func (i *OrderIntake) accept(payload []byte) coremqtt.Receipt {
	var msg coremqtt.OrderMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		i.log.Warnf("dropping malformed order message: %v", err)
		return coremqtt.Receipt{ID: uuid.NewString(), Error: fmt.Sprintf("malformed payload: %v", err)}
	}
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}
	prio, err := model.ParsePriority(msg.Priority)
	if err != nil {
		i.log.Warnf("order %s rejected: %v", id, err)
		return coremqtt.Receipt{ID: id, Error: err.Error()}
	}
	seq, err := i.submitter.Submit(model.Order{PlacedAt: msg.Time, Destination: msg.Destination, Priority: prio})
	if err != nil {
		i.log.Warnf("order %s rejected: %v", id, err)
		return coremqtt.Receipt{ID: id, Error: err.Error()}
	}
	i.log.Debugw("order accepted", map[string]any{"id": id, "seq": seq, "destination": msg.Destination})
	return coremqtt.Receipt{ID: id, Accepted: true, Seq: seq}
}
