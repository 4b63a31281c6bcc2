package grpc

import (
	"context"
	"path"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RPCObserver 記錄 RPC 指標，由 observability.Metrics 實作
type RPCObserver interface {
	ObserveRPC(method, code string, d time.Duration)
	RateLimited(method string)
}

// LoggingInterceptor 每個 RPC 記錄 Start / Complete / Error 以及耗時 (ms)
func LoggingInterceptor(log *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		name := path.Base(info.FullMethod)
		log.Debugf("RPC.%v.Start", name)

		start := time.Now()
		resp, err := handler(ctx, req)
		entry := log.WithField("duration", time.Since(start).Milliseconds())
		if err != nil {
			code := status.Code(err)
			entry = entry.WithField("code", code.String()).WithError(err)
			switch code {
			case codes.Internal, codes.Unknown, codes.Unavailable, codes.DataLoss:
				entry.Errorf("RPC.%v.Error", name)
			default:
				entry.Infof("RPC.%v.Rejected", name)
			}
			return resp, err
		}

		entry.Infof("RPC.%v.Complete", name)
		return resp, nil
	}
}

// MetricsInterceptor 依 method 與 status code 記錄耗時
func MetricsInterceptor(observer RPCObserver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		observer.ObserveRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// RateLimitInterceptor 超過速率時直接回傳 Unavailable，不排隊等待
//
// 參數:
//
//	limiter: 全域 token bucket
//	observer: 可為 nil
func RateLimitInterceptor(limiter *rate.Limiter, observer RPCObserver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !limiter.Allow() {
			if observer != nil {
				observer.RateLimited(info.FullMethod)
			}
			return nil, status.Errorf(codes.Unavailable, "rate limit exceeded for %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
}
