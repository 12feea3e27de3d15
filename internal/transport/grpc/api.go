package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "webstore.catalog.v1.CatalogService"

	QueryProductsMethod  = "/" + ServiceName + "/QueryProducts"
	GetProductMethod     = "/" + ServiceName + "/GetProduct"
	ToggleFavoriteMethod = "/" + ServiceName + "/ToggleFavorite"

	// UserIDMetadataKey carries the caller identity, the gRPC counterpart of the X-User-Id header.
	UserIDMetadataKey = "x-user-id"
)

// CatalogServiceServer is the server API of the catalog service.
// Requests and responses are JSON-shaped google.protobuf.Struct messages.
type CatalogServiceServer interface {
	QueryProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ToggleFavorite(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(call func(srv CatalogServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error), fullMethod string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CatalogServiceDesc describes the catalog service for grpc.Server registration.
var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "QueryProducts",
			Handler:    unaryHandler(CatalogServiceServer.QueryProducts, QueryProductsMethod),
		},
		{
			MethodName: "GetProduct",
			Handler:    unaryHandler(CatalogServiceServer.GetProduct, GetProductMethod),
		},
		{
			MethodName: "ToggleFavorite",
			Handler:    unaryHandler(CatalogServiceServer.ToggleFavorite, ToggleFavoriteMethod),
		},
	},
	Metadata: "webstore/catalog/v1/catalog.proto",
}

func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}

// CatalogServiceClient is the client API of the catalog service.
type CatalogServiceClient interface {
	QueryProducts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ToggleFavorite(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type catalogServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogServiceClient(cc grpc.ClientConnInterface) CatalogServiceClient {
	return &catalogServiceClient{cc: cc}
}

func (c *catalogServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogServiceClient) QueryProducts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, QueryProductsMethod, in, opts...)
}

func (c *catalogServiceClient) GetProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetProductMethod, in, opts...)
}

func (c *catalogServiceClient) ToggleFavorite(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ToggleFavoriteMethod, in, opts...)
}
