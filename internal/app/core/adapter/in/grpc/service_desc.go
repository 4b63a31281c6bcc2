package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName gRPC 服務全名
const ServiceName = "wallet.v1.WalletService"

// RPC 方法完整路徑
const (
	MethodOpenWallet        = "/" + ServiceName + "/OpenWallet"
	MethodDeposit           = "/" + ServiceName + "/Deposit"
	MethodWithdraw          = "/" + ServiceName + "/Withdraw"
	MethodGetBalance        = "/" + ServiceName + "/GetBalance"
	MethodListMovements     = "/" + ServiceName + "/ListMovements"
	MethodGetWithdrawnTotal = "/" + ServiceName + "/GetWithdrawnTotal"
)

// WalletServiceServer 錢包服務
// 請求與回應都使用 google.protobuf.Struct，欄位定義見 messages.go
type WalletServiceServer interface {
	OpenWallet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Deposit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Withdraw(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMovements(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetWithdrawnTotal(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(WalletServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler 把 WalletServiceServer 的方法包成 grpc.MethodDesc
func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(WalletServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(WalletServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// WalletService_ServiceDesc 手寫的 ServiceDesc，對應 protoc 產生的版本
var WalletService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WalletServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("OpenWallet", WalletServiceServer.OpenWallet),
		unaryHandler("Deposit", WalletServiceServer.Deposit),
		unaryHandler("Withdraw", WalletServiceServer.Withdraw),
		unaryHandler("GetBalance", WalletServiceServer.GetBalance),
		unaryHandler("ListMovements", WalletServiceServer.ListMovements),
		unaryHandler("GetWithdrawnTotal", WalletServiceServer.GetWithdrawnTotal),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterWalletServiceServer 註冊服務
func RegisterWalletServiceServer(s grpc.ServiceRegistrar, srv WalletServiceServer) {
	s.RegisterService(&WalletService_ServiceDesc, srv)
}
