package interceptors

import (
	"context"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const pingMethod = "/webstore.test.v1.PingService/Ping"

type pingServer interface {
	Ping(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error)
}

var pingServiceDesc = grpc.ServiceDesc{
	ServiceName: "webstore.test.v1.PingService",
	HandlerType: (*pingServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ping",
			Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := new(emptypb.Empty)
				if err := dec(in); err != nil {
					return nil, err
				}
				return srv.(pingServer).Ping(ctx, in)
			},
		},
	},
	Metadata: "ping_test.go",
}

// scriptedPing answers with a queue of status codes, OK once the queue is drained.
// Not thread-safe, should be used in sequential tests only.
type scriptedPing struct {
	callCount atomic.Int32
	responses []codes.Code
	delay     time.Duration
}

func (s *scriptedPing) Ping(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.callCount.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}
	if len(s.responses) > 0 {
		code := s.responses[0]
		s.responses = s.responses[1:]
		if code != codes.OK {
			return nil, status.Error(code, "mock error")
		}
	}
	return &emptypb.Empty{}, nil
}

func (s *scriptedPing) setResponses(responses ...codes.Code) {
	s.responses = responses
	s.callCount.Store(0)
}

func (s *scriptedPing) getCallCount() int32 {
	return s.callCount.Load()
}

func ping(ctx context.Context, conn *grpc.ClientConn) error {
	return conn.Invoke(ctx, pingMethod, &emptypb.Empty{}, &emptypb.Empty{})
}
