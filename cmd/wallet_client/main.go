package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	grpc_adapter "github.com/JoeShih716/go-mem-wallet/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-wallet/internal/logging"
	grpcpool "github.com/JoeShih716/go-mem-wallet/pkg/grpc"
)

var (
	addr          = flag.String("addr", "localhost:50051", "wallet gRPC server address")
	walletCount   = flag.Int("wallets", 10, "number of wallets to open")
	totalCount    = flag.Int("n", 1000, "total deposit/withdraw requests")
	concurrency   = flag.Int("concurrency", 50, "max in-flight requests")
	rps           = flag.Float64("rps", 0, "requests per second (0 => unlimited)")
	maxAmount     = flag.Int64("maxAmount", 500, "max amount per movement")
	withdrawRatio = flag.Float64("withdrawRatio", 0.5, "share of requests that are withdrawals")
	replayRatio   = flag.Float64("replayRatio", 0.05, "share of requests resent with the same ref id")
	timeout       = flag.Duration("timeout", 2*time.Minute, "overall timeout")
)

type request struct {
	walletID uuid.UUID
	refID    uuid.UUID
	amount   decimal.Decimal
	withdraw bool
}

type tally struct {
	mu       sync.Mutex
	accepted int
	replayed int
	reasons  map[string]int
}

func (t *tally) record(receipt domain.Receipt, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case err != nil:
		t.reasons[domain.ReasonOf(err)]++
	case receipt.Replayed:
		t.replayed++
	default:
		t.accepted++
	}
}

func main() {
	flag.Parse()
	logger, err := logging.SetupLogging("info")
	if err != nil {
		logrus.WithError(err).Fatal("logging.SetupLogging")
	}

	pool := grpcpool.NewPool()
	defer pool.Close()
	conn, err := pool.GetConnection(*addr)
	if err != nil {
		logger.WithError(err).Fatal("pool.GetConnection")
	}
	client := grpc_adapter.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// 1. 開錢包
	wallets := make([]uuid.UUID, 0, *walletCount)
	for i := 0; i < *walletCount; i++ {
		id, err := client.OpenWallet(ctx, domain.Limits{})
		if err != nil {
			logger.WithError(err).Fatal("client.OpenWallet")
		}
		wallets = append(wallets, id)
	}
	logger.WithField("wallets", len(wallets)).Info("WalletClient.Open.Complete")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if *rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rps), max(1, int(*rps)))
	}

	// 2. 併發送出存提款
	result := &tally{reasons: make(map[string]int)}
	var wg sync.WaitGroup
	sem := make(chan struct{}, *concurrency)
	startTime := time.Now()

	var last *request
	for i := 0; i < *totalCount; i++ {
		if err := limiter.Wait(ctx); err != nil {
			logger.WithError(err).Warn("WalletClient.Limiter.Stopped")
			break
		}

		// 偶爾用相同 ref_id 重送上一筆，模擬客戶端重試
		req := last
		if req == nil || rand.Float64() >= *replayRatio {
			req = &request{
				walletID: wallets[rand.Intn(len(wallets))],
				refID:    uuid.New(),
				amount:   decimal.NewFromInt(rand.Int63n(*maxAmount) + 1),
				withdraw: rand.Float64() < *withdrawRatio,
			}
		}
		last = req

		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var (
				receipt domain.Receipt
				err     error
			)
			if req.withdraw {
				receipt, err = client.Withdraw(ctx, req.walletID, req.refID, req.amount)
			} else {
				receipt, err = client.Deposit(ctx, req.walletID, req.refID, req.amount)
			}
			result.record(receipt, err)
		}()
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	// 3. 結果
	sent := result.accepted + result.replayed
	reasons := make([]string, 0, len(result.reasons))
	for reason, n := range result.reasons {
		sent += n
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	fmt.Printf("Completed %d requests in %v\n", sent, elapsed)
	fmt.Printf("TPS: %.2f\n", float64(sent)/elapsed.Seconds())
	fmt.Printf("accepted=%d replayed=%d\n", result.accepted, result.replayed)
	for _, reason := range reasons {
		fmt.Printf("rejected %-32s %d\n", reason, result.reasons[reason])
	}

	for _, id := range wallets {
		balance, err := client.Balance(ctx, id)
		if err != nil {
			logger.WithError(err).WithField("wallet_id", id).Error("client.Balance")
			continue
		}
		withdrawn, err := client.TotalWithdrawnOn(ctx, id, civil.Date{})
		if err != nil {
			logger.WithError(err).WithField("wallet_id", id).Error("client.TotalWithdrawnOn")
			continue
		}
		fmt.Printf("%s balance=%s withdrawn_today=%s\n", id, balance, withdrawn)
	}
}
