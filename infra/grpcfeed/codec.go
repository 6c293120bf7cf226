package grpcfeed

import (
	"fmt"

	"github.com/kilianp07/skydispatch/core/model"
	"github.com/kilianp07/skydispatch/pkg/wire"
)

// empty mirrors google.protobuf.Empty, whose encoding has no bytes.
type empty struct{}

// codec speaks the protobuf wire format for the monitor messages without
// generated types. It registers under the "proto" name so standard clients
// negotiate application/grpc+proto.
type codec struct{}

func (codec) Name() string { return "proto" }

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *model.StatusUpdate:
		return wire.MarshalStatusUpdate(*m), nil
	case *empty:
		return nil, nil
	}
	return nil, fmt.Errorf("grpcfeed: cannot marshal %T", v)
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *model.StatusUpdate:
		u, err := wire.UnmarshalStatusUpdate(data)
		if err != nil {
			return err
		}
		*m = u
		return nil
	case *empty:
		return nil
	}
	return fmt.Errorf("grpcfeed: cannot unmarshal into %T", v)
}
