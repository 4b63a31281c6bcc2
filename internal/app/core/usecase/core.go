package usecase

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
)

// Recorder 記錄業務指標
type Recorder interface {
	WalletOpened()
	MovementAccepted(kind domain.MovementKind, amount decimal.Decimal)
	MovementRejected(kind domain.MovementKind, reason string)
}

type nopRecorder struct{}

func (nopRecorder) WalletOpened()                                         {}
func (nopRecorder) MovementAccepted(domain.MovementKind, decimal.Decimal) {}
func (nopRecorder) MovementRejected(domain.MovementKind, string)          {}

// CoreUseCase 是核心業務邏輯層
// 負責補上交易日期 (Clock)、預設限制、日誌與指標，實際狀態由 Ledger 持有
type CoreUseCase struct {
	ledger        Ledger
	clock         domain.Clock
	defaultLimits domain.Limits
	log           *logrus.Logger
	recorder      Recorder
}

// Option 定義了 CoreUseCase 的配置選項函數
type Option func(*CoreUseCase)

// WithClock 設定日期來源，預設為 UTC 系統時間
func WithClock(clock domain.Clock) Option {
	return func(c *CoreUseCase) {
		c.clock = clock
	}
}

// WithDefaultLimits 設定新錢包的預設限制
func WithDefaultLimits(limits domain.Limits) Option {
	return func(c *CoreUseCase) {
		c.defaultLimits = limits
	}
}

// WithLogger 設定 logger
func WithLogger(log *logrus.Logger) Option {
	return func(c *CoreUseCase) {
		c.log = log
	}
}

// WithRecorder 設定指標記錄器
func WithRecorder(recorder Recorder) Option {
	return func(c *CoreUseCase) {
		c.recorder = recorder
	}
}

func NewCoreUseCase(ledger Ledger, opts ...Option) *CoreUseCase {
	c := &CoreUseCase{
		ledger:        ledger,
		clock:         domain.NewSystemClock(nil),
		defaultLimits: domain.DefaultLimits(),
		log:           logrus.StandardLogger(),
		recorder:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Today 目前使用的交易日期
func (c *CoreUseCase) Today() civil.Date {
	return c.clock.Today()
}

// OpenWallet 建立錢包
//
// 參數:
//
//	ctx: 上下文
//	limits: 每日限制，零值欄位各自使用預設限制
//
// 回傳:
//
//	uuid.UUID: 新錢包 ID
//	error: 限制不合法
func (c *CoreUseCase) OpenWallet(ctx context.Context, limits domain.Limits) (uuid.UUID, error) {
	if limits.DailyWithdrawal.IsZero() {
		limits.DailyWithdrawal = c.defaultLimits.DailyWithdrawal
	}
	if limits.DailyDepositCount == 0 {
		limits.DailyDepositCount = c.defaultLimits.DailyDepositCount
	}
	if err := limits.Validate(); err != nil {
		return uuid.Nil, err
	}

	walletID := uuid.New()
	if err := c.ledger.OpenWallet(ctx, walletID, limits); err != nil {
		c.log.WithError(err).Error("Wallet.Open.Error")
		return uuid.Nil, fmt.Errorf("open wallet: %w", err)
	}

	c.recorder.WalletOpened()
	c.log.WithFields(logrus.Fields{
		"wallet_id":              walletID,
		"daily_withdrawal_limit": limits.DailyWithdrawal.String(),
		"daily_deposit_count":    limits.DailyDepositCount,
	}).Info("Wallet.Open.Complete")
	return walletID, nil
}

// Deposit 存款，日期取自 Clock
func (c *CoreUseCase) Deposit(ctx context.Context, walletID, refID uuid.UUID, amount decimal.Decimal) (domain.Receipt, error) {
	return c.post(ctx, &domain.Command{
		RefID:    refID,
		WalletID: walletID,
		Amount:   amount,
		Date:     c.clock.Today(),
		Kind:     domain.MovementKindDeposit,
	})
}

// Withdraw 提款，日期取自 Clock
func (c *CoreUseCase) Withdraw(ctx context.Context, walletID, refID uuid.UUID, amount decimal.Decimal) (domain.Receipt, error) {
	return c.post(ctx, &domain.Command{
		RefID:    refID,
		WalletID: walletID,
		Amount:   amount,
		Date:     c.clock.Today(),
		Kind:     domain.MovementKindWithdrawal,
	})
}

func (c *CoreUseCase) post(ctx context.Context, cmd *domain.Command) (domain.Receipt, error) {
	entry := c.log.WithFields(logrus.Fields{
		"wallet_id": cmd.WalletID,
		"ref_id":    cmd.RefID,
		"kind":      cmd.Kind.String(),
		"amount":    cmd.Amount.String(),
		"date":      cmd.Date.String(),
	})

	receipt, err := c.ledger.PostMovement(ctx, cmd)
	if err != nil {
		reason := domain.ReasonOf(err)
		c.recorder.MovementRejected(cmd.Kind, reason)
		if domain.IsRejection(err) {
			entry.WithField("reason", reason).WithError(err).Info("Wallet.Movement.Rejected")
		} else {
			entry.WithError(err).Error("Wallet.Movement.Error")
		}
		return domain.Receipt{}, err
	}

	if receipt.Replayed {
		entry.Info("Wallet.Movement.Replayed")
		return receipt, nil
	}
	c.recorder.MovementAccepted(cmd.Kind, cmd.Amount)
	entry.WithField("balance", receipt.Balance.String()).Info("Wallet.Movement.Accepted")
	return receipt, nil
}

// Statement 取得錢包快照
func (c *CoreUseCase) Statement(ctx context.Context, walletID uuid.UUID) (domain.Statement, error) {
	return c.ledger.GetStatement(ctx, walletID)
}

// Balance 取得錢包餘額
func (c *CoreUseCase) Balance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	statement, err := c.ledger.GetStatement(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	return statement.Balance, nil
}

// TotalWithdrawnOn 指定日期的提款總額
func (c *CoreUseCase) TotalWithdrawnOn(ctx context.Context, walletID uuid.UUID, date civil.Date) (decimal.Decimal, error) {
	if !date.IsValid() {
		return decimal.Zero, domain.ErrInvalidDate
	}
	statement, err := c.ledger.GetStatement(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	return statement.TotalWithdrawnOn(date), nil
}
