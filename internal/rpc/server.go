package rpc

import (
	"context"
	"errors"

	"github.com/danielpatrickdp/semdrift/internal/state"
	"github.com/danielpatrickdp/semdrift/internal/tracker"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
const (
	serviceName       = "semdrift.v1.DriftService"
	updateMethod      = "/" + serviceName + "/Update"
	getSnapshotMethod = "/" + serviceName + "/GetSnapshot"
	normalizeMethod   = "/" + serviceName + "/Normalize"
)

// DriftServiceServer is the server API of semdrift.v1.DriftService.
type DriftServiceServer interface {
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Normalize(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes semdrift.v1.DriftService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DriftServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Update", Handler: unaryHandler(updateMethod, DriftServiceServer.Update)},
		{MethodName: "GetSnapshot", Handler: unaryHandler(getSnapshotMethod, DriftServiceServer.GetSnapshot)},
		{MethodName: "Normalize", Handler: unaryHandler(normalizeMethod, DriftServiceServer.Normalize)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "semdrift/v1/drift.proto",
}

type unaryMethod func(DriftServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DriftServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DriftServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv DriftServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// #endregion service-desc

// #region server
// Server implements DriftServiceServer on top of a tracker.
type Server struct {
	tracker *tracker.Tracker
	logger  *zap.Logger
}

// NewServer creates a Server. A nil logger is replaced with a no-op logger.
func NewServer(t *tracker.Tracker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{tracker: t, logger: logger}
}

// Update feeds one embedding into the tracker.
func (s *Server) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	emb, err := vectorField(req, fieldEmbedding)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	nowMs, err := s.nowMs(req)
	if err != nil {
		return nil, err
	}
	res, err := s.tracker.Update(ctx, emb, nowMs)
	if err != nil {
		return nil, s.statusError("update", err)
	}
	return updateResponse(res), nil
}

// GetSnapshot returns the tracker snapshot. now_ms defaults to the tracker clock.
func (s *Server) GetSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	nowMs, err := s.nowMs(req)
	if err != nil {
		return nil, err
	}
	return snapshotResponse(s.tracker.Snapshot(ctx, nowMs)), nil
}

// Normalize returns the unit-length form of vector.
func (s *Server) Normalize(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, err := vectorField(req, fieldVector)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldVector: vectorValue(state.Normalize(v)),
	}}, nil
}

func (s *Server) nowMs(req *structpb.Struct) (float64, error) {
	v, ok, err := numberField(req, fieldNowMs)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, err.Error())
	}
	if !ok {
		return s.tracker.Now(), nil
	}
	return v, nil
}

// statusError converts err for the wire. Failures that are not the caller's
// fault are logged.
func (s *Server) statusError(op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(op+" failed", zap.Error(err))
	}
	return st
}

// #endregion server

// #region errors
// toStatus maps engine errors to InvalidArgument with the engine's message.
func toStatus(err error) error {
	var dimErr *state.DimensionMismatchError
	if errors.Is(err, state.ErrEmptyEmbedding) || errors.As(err, &dimErr) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// #endregion errors
