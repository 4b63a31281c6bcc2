package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-mem-wallet/internal/app/core/adapter/in/grpc"
	memory_adapter "github.com/JoeShih716/go-mem-wallet/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-wallet/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-wallet/internal/config"
	"github.com/JoeShih716/go-mem-wallet/internal/logging"
	"github.com/JoeShih716/go-mem-wallet/internal/observability"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config.Load")
	}

	logger, err := logging.SetupLogging(cfg.Log.Level)
	if err != nil {
		logrus.WithError(err).Fatal("logging.SetupLogging")
	}
	logger.WithFields(logrus.Fields{
		"engine":    cfg.Ledger.Engine,
		"grpc_addr": cfg.Server.GRPCAddr,
		"timezone":  cfg.Wallet.TimeZone,
	}).Info("mem-wallet starting")

	limits, err := cfg.Limits()
	if err != nil {
		logger.WithError(err).Fatal("cfg.Limits")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.WithError(err).Fatal("cfg.Location")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 初始化 Ledger，與 signal 分開，等 gRPC 處理完剩下的請求才停止
	ledgerCtx, stopLedger := context.WithCancel(context.Background())
	ledger, waitLedger := newLedger(ledgerCtx, cfg.Ledger)

	// 3. 初始化 UseCase
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	coreUseCase := usecase.NewCoreUseCase(ledger,
		usecase.WithClock(domain.NewSystemClock(loc)),
		usecase.WithDefaultLimits(limits),
		usecase.WithLogger(logger),
		usecase.WithRecorder(metrics),
	)

	// 4. 初始化 gRPC Adapter (Driving Adapter)
	interceptors := []grpc.UnaryServerInterceptor{
		grpc_adapter.LoggingInterceptor(logger),
		grpc_adapter.MetricsInterceptor(metrics),
	}
	if cfg.RateLimit.RPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
		interceptors = append(interceptors, grpc_adapter.RateLimitInterceptor(limiter, metrics))
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	grpc_adapter.RegisterWalletServiceServer(s, grpc_adapter.NewWalletServer(coreUseCase))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(grpc_adapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s)

	// 5. 啟動 /metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("Starting metrics server on %s", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics.ListenAndServe")
		}
	}()

	// 6. 啟動 gRPC Server
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.WithError(err).Fatal("net.Listen")
	}
	go func() {
		logger.Infof("Starting gRPC server on %s", cfg.Server.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			logger.WithError(err).Fatal("grpc.Serve")
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Info("Shutting down server...")

	healthServer.Shutdown()
	s.GracefulStop()

	stopLedger()
	waitLedger()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("metrics.Shutdown")
	}
	logger.Info("Server exited")
}

// newLedger 依設定選擇引擎，回傳的 wait 會等到引擎完全停止
func newLedger(ctx context.Context, cfg config.LedgerConfig) (usecase.Ledger, func()) {
	switch cfg.Engine {
	case config.EngineActor:
		actor := memory_adapter.NewActorLedger(cfg.QueueSize)
		actor.Start(ctx)
		return actor, func() { <-actor.Done() }
	default:
		return memory_adapter.NewMutexLedger(), func() {}
	}
}
