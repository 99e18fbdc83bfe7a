package server

import (
	"context"
	"encoding/base64"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/utils"
)

const (
	offerServiceName = "offers.v1.OfferService"
	requestIDHeader  = "x-request-id"
)

// OfferServiceServer is the gRPC surface. Messages are google.protobuf.Struct
// documents with the same field names as the JSON API.
type OfferServiceServer interface {
	GenerateOffer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RebuildOffer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListVehicles(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListUnits(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOffer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOffers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportOffers(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(OfferServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OfferServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + offerServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OfferServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// OfferServiceDesc is registered by hand since the messages are well-known
// Struct types and need no generated code.
var OfferServiceDesc = grpc.ServiceDesc{
	ServiceName: offerServiceName,
	HandlerType: (*OfferServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GenerateOffer", Handler: unaryHandler("GenerateOffer", OfferServiceServer.GenerateOffer)},
		{MethodName: "RebuildOffer", Handler: unaryHandler("RebuildOffer", OfferServiceServer.RebuildOffer)},
		{MethodName: "ListVehicles", Handler: unaryHandler("ListVehicles", OfferServiceServer.ListVehicles)},
		{MethodName: "ListUnits", Handler: unaryHandler("ListUnits", OfferServiceServer.ListUnits)},
		{MethodName: "GetOffer", Handler: unaryHandler("GetOffer", OfferServiceServer.GetOffer)},
		{MethodName: "ListOffers", Handler: unaryHandler("ListOffers", OfferServiceServer.ListOffers)},
		{MethodName: "ExportOffers", Handler: unaryHandler("ExportOffers", OfferServiceServer.ExportOffers)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: offerProtoFile,
}

// GRPCService adapts OfferService to the Struct messages.
type GRPCService struct {
	svc    *OfferService
	logger *zap.Logger
}

func NewGRPCService(svc *OfferService, logger *zap.Logger) *GRPCService {
	return &GRPCService{svc: svc, logger: logger}
}

// NewGRPCServer builds a server with the offer service, health and
// reflection registered.
func NewGRPCServer(svc *OfferService, logger *zap.Logger) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryInterceptor(logger)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(offerServiceName, healthpb.HealthCheckResponse_SERVING)
	if err := registerOfferDescriptor(); err != nil {
		logger.Warn("grpc.reflection.descriptor.failed", zap.Error(err))
	}
	reflection.Register(gs)
	gs.RegisterService(&OfferServiceDesc, NewGRPCService(svc, logger))
	return gs, hs
}

// UnaryInterceptor attaches a request id and logger to the context, logs
// each call and converts application errors to status errors.
func UnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(requestIDHeader); len(ids) > 0 && ids[0] != "" {
				ctx = common.WithRequestID(ctx, ids[0])
			}
		}
		ctx, reqID := common.EnsureRequestID(ctx)
		l := logger.With(zap.String("req_id", reqID), zap.String("method", info.FullMethod))
		ctx = common.WithLogger(ctx, l)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, reqID))

		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			err = common.ToGRPCStatus(err)
			l.Warn("grpc.call.failed",
				zap.String("code", status.Code(err).String()),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return nil, err
		}
		l.Info("grpc.call.ok", zap.Duration("elapsed", time.Since(start)))
		return resp, nil
	}
}

func (g *GRPCService) GenerateOffer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in GenerateInput
	if err := utils.FromStruct(req, &in); err != nil {
		return nil, common.InvalidArgumentErrorf("generate request: %v", err)
	}
	out, err := g.svc.Generate(ctx, in)
	if err != nil {
		return nil, err
	}
	return toStruct(out)
}

func (g *GRPCService) RebuildOffer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in RebuildInput
	if err := utils.FromStruct(req, &in); err != nil {
		return nil, common.InvalidArgumentErrorf("rebuild request: %v", err)
	}
	out, err := g.svc.Rebuild(ctx, in)
	if err != nil {
		return nil, err
	}
	return toStruct(out)
}

func (g *GRPCService) ListVehicles(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	vs, err := g.svc.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"vehicles": vs})
}

func (g *GRPCService) ListUnits(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	us, err := g.svc.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"units": us})
}

func (g *GRPCService) GetOffer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, common.InvalidArgumentError("id is required")
	}
	rec, err := g.svc.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStruct(rec)
}

func (g *GRPCService) ListOffers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := int(req.GetFields()["limit"].GetNumberValue())
	recs, err := g.svc.ListOffers(ctx, limit)
	if err != nil {
		return nil, err
	}
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(recs))}
	for _, r := range recs {
		s, err := utils.ToPBOfferRecord(r)
		if err != nil {
			return nil, common.InternalError("encode offer record")
		}
		list.Values = append(list.Values, structpb.NewStructValue(s))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"offers": structpb.NewListValue(list)}}, nil
}

func (g *GRPCService) ExportOffers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := req.GetFields()
	b, err := g.svc.Export(ctx, f["from"].GetStringValue(), f["to"].GetStringValue())
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"xlsx_base64": base64.StdEncoding.EncodeToString(b),
		"bytes":       float64(len(b)),
	})
}

func toStruct(v any) (*structpb.Struct, error) {
	s, err := utils.ToStruct(v)
	if err != nil {
		return nil, common.InternalError("encode response")
	}
	return s, nil
}

// OfferClient calls OfferService over an established connection.
type OfferClient struct {
	cc grpc.ClientConnInterface
}

func NewOfferClient(cc grpc.ClientConnInterface) *OfferClient {
	return &OfferClient{cc: cc}
}

// Call invokes method with a Struct request and returns the Struct reply.
func (c *OfferClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+offerServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
