package messaging

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/khanhkom/engz/internal/logging"
	"github.com/segmentio/encoding/json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName    = "engz.background.Background"
	dispatchMethod = "/" + ServiceName + "/Dispatch"
)

// BackgroundServer is the gRPC service carrying messages as
// google.protobuf.Struct values.
type BackgroundServer interface {
	Dispatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var backgroundServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BackgroundServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Dispatch", Handler: dispatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "engz/background.proto",
}

func dispatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BackgroundServer).Dispatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: dispatchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BackgroundServer).Dispatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterBackgroundServer registers srv on s.
func RegisterBackgroundServer(s grpc.ServiceRegistrar, srv BackgroundServer) {
	s.RegisterService(&backgroundServiceDesc, srv)
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Server exposes a Router over gRPC.
type Server struct {
	address string
	router  *Router
	logger  logging.Logger
}

func NewServer(address string, router *Router, l logging.Logger) *Server {
	if l == nil {
		l = logging.NewNop()
	}
	return &Server{address: address, router: router, logger: l.With("module", "grpc_server")}
}

func (s *Server) Dispatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var msg Message
	if err := fromStruct(in, &msg); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode message: %v", err)
	}
	if msg.Type == "" {
		return nil, status.Error(codes.InvalidArgument, "message type is required")
	}

	out, err := toStruct(s.router.Handle(ctx, msg))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	started := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "handled", "method", info.FullMethod, "duration", time.Since(started), "code", status.Code(err).String())
	return resp, err
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	RegisterBackgroundServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())
	return srv.Serve(lis)
}

// Client sends messages to a daemon.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for target. Without options the connection is
// insecure.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Send delivers msg and returns the daemon's response.
func (c *Client) Send(ctx context.Context, msg Message) (Response, error) {
	in, err := toStruct(msg)
	if err != nil {
		return Response{}, fmt.Errorf("encode message: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, dispatchMethod, in, out); err != nil {
		return Response{}, err
	}

	var resp Response
	if err := fromStruct(out, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
