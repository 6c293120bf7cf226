package grpcfeed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kilianp07/skydispatch/core/model"
)

// Client consumes the status feed of a remote server.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for addr. Extra options are appended after the
// insecure transport credentials.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Monitor calls fn for every update until the stream ends, ctx is canceled
// or fn returns an error. A stream closed cleanly by the server returns nil.
func (c *Client) Monitor(ctx context.Context, fn func(model.StatusUpdate) error) error {
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], monitorMethod, grpc.ForceCodec(codec{}))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		var u model.StatusUpdate
		if err := stream.RecvMsg(&u); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
	}
}

// Close releases the connection.
func (c *Client) Close() error { return c.conn.Close() }
