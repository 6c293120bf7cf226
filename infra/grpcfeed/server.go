package grpcfeed

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kilianp07/skydispatch/core/logger"
	"github.com/kilianp07/skydispatch/core/model"
	"github.com/kilianp07/skydispatch/internal/eventbus"
)

const (
	serviceName   = "server.Server"
	monitorMethod = "/" + serviceName + "/Monitor"
)

// MonitorServer streams status updates to one client.
type MonitorServer interface {
	Monitor(stream grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MonitorServer)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    "Monitor",
		Handler:       monitorHandler,
		ServerStreams: true,
	}},
	Metadata: "server.proto",
}

func monitorHandler(srv any, stream grpc.ServerStream) error {
	var req empty
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	return srv.(MonitorServer).Monitor(stream)
}

// Options configures per-client subscriptions.
type Options struct {
	// Buffer is the number of snapshots queued per client.
	Buffer int
	// Policy decides which snapshot is lost when a client lags.
	Policy eventbus.Policy
}

// Server exposes the runner feed over gRPC.
type Server struct {
	feed *eventbus.TypedBus[model.StatusUpdate]
	opts Options
	log  logger.Logger
	grpc *grpc.Server

	done     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a server streaming snapshots published on feed.
func NewServer(feed *eventbus.TypedBus[model.StatusUpdate], opts Options, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	s := &Server{
		feed: feed,
		opts: opts,
		log:  log,
		grpc: grpc.NewServer(grpc.ForceServerCodec(codec{})),
		done: make(chan struct{}),
	}
	s.grpc.RegisterService(&serviceDesc, s)
	return s
}

// Monitor implements MonitorServer. The stream ends when the client goes
// away, the server stops or the feed closes.
func (s *Server) Monitor(stream grpc.ServerStream) error {
	id := uuid.NewString()
	sub := s.feed.Subscribe(eventbus.WithBuffer(s.opts.Buffer), eventbus.WithPolicy(s.opts.Policy))
	defer s.feed.Unsubscribe(sub)
	s.log.Infof("monitor %s subscribed (%d active)", id, s.feed.Subscribers())

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			s.log.Infof("monitor %s disconnected", id)
			return nil
		case <-s.done:
			return status.Error(codes.Unavailable, "server shutting down")
		case u, ok := <-sub:
			if !ok {
				s.log.Warnf("monitor %s: feed closed", id)
				return status.Error(codes.Unavailable, "status feed closed")
			}
			if err := stream.SendMsg(&u); err != nil {
				s.log.Debugf("monitor %s send: %v", id, err)
				return err
			}
		}
	}
}

// Serve accepts connections on lis until ctx is canceled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	s.log.Infof("gRPC status feed listening on %s", lis.Addr())
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Stop ends every stream and waits for handlers to return.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.grpc.GracefulStop()
	})
}
