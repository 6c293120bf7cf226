// Package wire encodes status updates in the protobuf wire format of the
// fleet monitor service:
//
//	message StatusUpdate { int64 time = 1; repeated Flight flights = 2; int32 speed = 3; }
//	message Flight       { int64 launch_time = 1; repeated Order orders = 2; }
//	message Order        { int64 time = 1; string destination = 2; Priority priority = 3; }
//	enum Priority        { Emergency = 0; Resupply = 1; }
//
// Encoding follows proto3 rules: zero scalars are omitted and fields are
// written in field-number order, so equal updates produce equal bytes.
// Flight IDs and order sequence numbers are runner-internal and not encoded.
package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kilianp07/skydispatch/core/model"
)

// ErrMalformed is returned for undecodable input.
var ErrMalformed = errors.New("wire: malformed message")

const (
	updateTime    protowire.Number = 1
	updateFlights protowire.Number = 2
	updateSpeed   protowire.Number = 3

	flightLaunchTime protowire.Number = 1
	flightOrders     protowire.Number = 2

	orderTime        protowire.Number = 1
	orderDestination protowire.Number = 2
	orderPriority    protowire.Number = 3
)

// MarshalStatusUpdate encodes u.
func MarshalStatusUpdate(u model.StatusUpdate) []byte {
	return AppendStatusUpdate(nil, u)
}

// AppendStatusUpdate appends the encoding of u to b.
func AppendStatusUpdate(b []byte, u model.StatusUpdate) []byte {
	if u.Time != 0 {
		b = protowire.AppendTag(b, updateTime, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(u.Time))
	}
	for _, f := range u.Flights {
		b = protowire.AppendTag(b, updateFlights, protowire.BytesType)
		b = protowire.AppendBytes(b, appendFlight(nil, f))
	}
	if u.Speed != 0 {
		b = protowire.AppendTag(b, updateSpeed, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(u.Speed)))
	}
	return b
}

func appendFlight(b []byte, f model.Flight) []byte {
	if f.LaunchTime != 0 {
		b = protowire.AppendTag(b, flightLaunchTime, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(f.LaunchTime))
	}
	for _, o := range f.Orders {
		b = protowire.AppendTag(b, flightOrders, protowire.BytesType)
		b = protowire.AppendBytes(b, appendOrder(nil, o))
	}
	return b
}

func appendOrder(b []byte, o model.Order) []byte {
	if o.PlacedAt != 0 {
		b = protowire.AppendTag(b, orderTime, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(o.PlacedAt))
	}
	if o.Destination != "" {
		b = protowire.AppendTag(b, orderDestination, protowire.BytesType)
		b = protowire.AppendString(b, o.Destination)
	}
	if o.Priority != 0 {
		b = protowire.AppendTag(b, orderPriority, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(o.Priority)))
	}
	return b
}

// UnmarshalStatusUpdate decodes b. Unknown fields are skipped.
func UnmarshalStatusUpdate(b []byte) (model.StatusUpdate, error) {
	var u model.StatusUpdate
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch {
		case num == updateTime && typ == protowire.VarintType:
			u.Time = int64(v)
		case num == updateSpeed && typ == protowire.VarintType:
			u.Speed = int32(v)
		case num == updateFlights && typ == protowire.BytesType:
			f, err := unmarshalFlight(raw)
			if err != nil {
				return err
			}
			u.Flights = append(u.Flights, f)
		}
		return nil
	})
	return u, err
}

func unmarshalFlight(b []byte) (model.Flight, error) {
	var f model.Flight
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch {
		case num == flightLaunchTime && typ == protowire.VarintType:
			f.LaunchTime = int64(v)
		case num == flightOrders && typ == protowire.BytesType:
			o, err := unmarshalOrder(raw)
			if err != nil {
				return err
			}
			f.Orders = append(f.Orders, o)
		}
		return nil
	})
	return f, err
}

func unmarshalOrder(b []byte) (model.Order, error) {
	var o model.Order
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch {
		case num == orderTime && typ == protowire.VarintType:
			o.PlacedAt = int64(v)
		case num == orderDestination && typ == protowire.BytesType:
			o.Destination = string(raw)
		case num == orderPriority && typ == protowire.VarintType:
			o.Priority = model.Priority(int32(v))
		}
		return nil
	})
	return o, err
}

// walk calls fn for every field of a message. v carries varint values and
// raw the payload of length-delimited fields.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		var (
			v   uint64
			raw []byte
		)
		switch typ {
		case protowire.VarintType:
			v, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			raw, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := fn(num, typ, v, raw); err != nil {
			return err
		}
	}
	return nil
}
