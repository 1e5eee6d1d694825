package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CartServiceName задаёт полное имя gRPC-сервиса.
const CartServiceName = "storefront.v1.CartService"

const (
	CartService_ListProducts_FullMethodName = "/" + CartServiceName + "/ListProducts"
	CartService_GetCart_FullMethodName      = "/" + CartServiceName + "/GetCart"
	CartService_AddItem_FullMethodName      = "/" + CartServiceName + "/AddItem"
	CartService_DecreaseItem_FullMethodName = "/" + CartServiceName + "/DecreaseItem"
	CartService_RemoveItem_FullMethodName   = "/" + CartServiceName + "/RemoveItem"
	CartService_ClearCart_FullMethodName    = "/" + CartServiceName + "/ClearCart"
	CartService_Checkout_FullMethodName     = "/" + CartServiceName + "/Checkout"
)

// CartServiceServer описывает серверную сторону storefront.v1.CartService.
// Сообщения используют well-known types: имя товара передаётся StringValue, ответы в Struct.
type CartServiceServer interface {
	ListProducts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetCart(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	AddItem(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	DecreaseItem(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	RemoveItem(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ClearCart(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Checkout(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterCartServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&CartService_ServiceDesc, srv)
}

// unaryHandler повторяет то, что генерирует protoc-gen-go-grpc для унарного метода.
func unaryHandler[Req proto.Message](
	fullMethod string,
	newReq func() Req,
	call func(CartServiceServer, context.Context, Req) (*structpb.Struct, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CartServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CartServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }

func newStringValue() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

// CartService_ServiceDesc описывает сервис для grpc.Server.
var CartService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: CartServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListProducts",
			Handler:    unaryHandler(CartService_ListProducts_FullMethodName, newEmpty, CartServiceServer.ListProducts),
		},
		{
			MethodName: "GetCart",
			Handler:    unaryHandler(CartService_GetCart_FullMethodName, newEmpty, CartServiceServer.GetCart),
		},
		{
			MethodName: "AddItem",
			Handler:    unaryHandler(CartService_AddItem_FullMethodName, newStringValue, CartServiceServer.AddItem),
		},
		{
			MethodName: "DecreaseItem",
			Handler:    unaryHandler(CartService_DecreaseItem_FullMethodName, newStringValue, CartServiceServer.DecreaseItem),
		},
		{
			MethodName: "RemoveItem",
			Handler:    unaryHandler(CartService_RemoveItem_FullMethodName, newStringValue, CartServiceServer.RemoveItem),
		},
		{
			MethodName: "ClearCart",
			Handler:    unaryHandler(CartService_ClearCart_FullMethodName, newEmpty, CartServiceServer.ClearCart),
		},
		{
			MethodName: "Checkout",
			Handler:    unaryHandler(CartService_Checkout_FullMethodName, newEmpty, CartServiceServer.Checkout),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/cart.proto",
}

// CartServiceClient описывает клиентскую сторону storefront.v1.CartService.
type CartServiceClient interface {
	ListProducts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetCart(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	AddItem(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	DecreaseItem(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	RemoveItem(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	ClearCart(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Checkout(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type cartServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCartServiceClient создаёт клиента поверх соединения.
func NewCartServiceClient(cc grpc.ClientConnInterface) CartServiceClient {
	return &cartServiceClient{cc: cc}
}

func (c *cartServiceClient) invoke(ctx context.Context, method string, in proto.Message, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cartServiceClient) ListProducts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CartService_ListProducts_FullMethodName, in, opts)
}

func (c *cartServiceClient) GetCart(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CartService_GetCart_FullMethodName, in, opts)
}

func (c *cartServiceClient) AddItem(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CartService_AddItem_FullMethodName, in, opts)
}

func (c *cartServiceClient) DecreaseItem(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CartService_DecreaseItem_FullMethodName, in, opts)
}

func (c *cartServiceClient) RemoveItem(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CartService_RemoveItem_FullMethodName, in, opts)
}

func (c *cartServiceClient) ClearCart(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CartService_ClearCart_FullMethodName, in, opts)
}

func (c *cartServiceClient) Checkout(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CartService_Checkout_FullMethodName, in, opts)
}
