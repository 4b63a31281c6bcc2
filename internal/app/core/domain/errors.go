package domain

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

var (
	// ErrNonPositiveAmount 金額必須為正數
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds 餘額不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDailyWithdrawalLimitExceeded 超過單日提款總額上限
	ErrDailyWithdrawalLimitExceeded = errors.New("daily withdrawal limit exceeded")

	// ErrDailyDepositCountExceeded 超過單日存款次數上限
	ErrDailyDepositCountExceeded = errors.New("daily deposit count exceeded")

	// ErrInvalidDate 日期不合法
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidLimits 每日限額必須為正數
	ErrInvalidLimits = errors.New("daily limits must be positive")

	// ErrInvalidMovementKind 未知的異動類型
	ErrInvalidMovementKind = errors.New("invalid movement kind")

	// ErrWalletNotFound 找不到錢包
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrWalletAlreadyExists 錢包已存在
	ErrWalletAlreadyExists = errors.New("wallet already exists")

	// ErrLedgerStopped 帳本引擎已停止
	ErrLedgerStopped = errors.New("ledger stopped")

	// ErrRefIDConflict 相同 RefID 已用於不同的錢包、類型或金額
	ErrRefIDConflict = errors.New("ref id already used for a different movement")
)

// AmountError 金額 <= 0
type AmountError struct {
	Amount decimal.Decimal
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("%s: amount must be positive", e.Amount)
}

func (e *AmountError) Unwrap() error { return ErrNonPositiveAmount }

// InsufficientFundsError 提款金額大於目前餘額
type InsufficientFundsError struct {
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: cannot withdraw more than %s", e.Balance)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// DailyWithdrawalLimitError 當日累計提款會超過上限
type DailyWithdrawalLimitError struct {
	Amount    decimal.Decimal
	Limit     decimal.Decimal
	Remaining decimal.Decimal
}

func (e *DailyWithdrawalLimitError) Error() string {
	return fmt.Sprintf("daily withdrawal limit exceeded: limit %s per day, remaining %s, requested %s",
		e.Limit, e.Remaining, e.Amount)
}

func (e *DailyWithdrawalLimitError) Unwrap() error { return ErrDailyWithdrawalLimitExceeded }

// DepositLimitError 當日存款次數已達上限
type DepositLimitError struct {
	Limit int
	Date  civil.Date
}

func (e *DepositLimitError) Error() string {
	return fmt.Sprintf("daily deposit count exceeded: already made %d deposits on %s", e.Limit, e.Date)
}

func (e *DepositLimitError) Unwrap() error { return ErrDailyDepositCountExceeded }

// 錯誤原因代碼，供 metrics label 與 gRPC error detail 使用
const (
	ReasonNone                 = ""
	ReasonNonPositiveAmount    = "NON_POSITIVE_AMOUNT"
	ReasonInsufficientFunds    = "INSUFFICIENT_FUNDS"
	ReasonDailyWithdrawalLimit = "DAILY_WITHDRAWAL_LIMIT_EXCEEDED"
	ReasonDailyDepositCount    = "DAILY_DEPOSIT_COUNT_EXCEEDED"
	ReasonInvalidDate          = "INVALID_DATE"
	ReasonInvalidLimits        = "INVALID_LIMITS"
	ReasonInvalidMovementKind  = "INVALID_MOVEMENT_KIND"
	ReasonWalletNotFound       = "WALLET_NOT_FOUND"
	ReasonWalletAlreadyExists  = "WALLET_ALREADY_EXISTS"
	ReasonLedgerStopped        = "LEDGER_STOPPED"
	ReasonRefIDConflict        = "REF_ID_CONFLICT"
	ReasonUnknown              = "UNKNOWN"
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrNonPositiveAmount, ReasonNonPositiveAmount},
	{ErrInsufficientFunds, ReasonInsufficientFunds},
	{ErrDailyWithdrawalLimitExceeded, ReasonDailyWithdrawalLimit},
	{ErrDailyDepositCountExceeded, ReasonDailyDepositCount},
	{ErrInvalidDate, ReasonInvalidDate},
	{ErrInvalidLimits, ReasonInvalidLimits},
	{ErrInvalidMovementKind, ReasonInvalidMovementKind},
	{ErrWalletNotFound, ReasonWalletNotFound},
	{ErrWalletAlreadyExists, ReasonWalletAlreadyExists},
	{ErrLedgerStopped, ReasonLedgerStopped},
	{ErrRefIDConflict, ReasonRefIDConflict},
}

// ReasonOf 將錯誤轉為穩定的原因代碼；nil 回傳空字串
func ReasonOf(err error) string {
	if err == nil {
		return ReasonNone
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonUnknown
}

// ErrorOfReason 是 ReasonOf 的反向查詢
func ErrorOfReason(reason string) (error, bool) {
	for _, r := range reasons {
		if r.reason == reason {
			return r.err, true
		}
	}
	return nil, false
}

// IsRejection 判斷錯誤是否為業務規則拒絕 (非系統錯誤)
func IsRejection(err error) bool {
	switch ReasonOf(err) {
	case ReasonNonPositiveAmount, ReasonInsufficientFunds,
		ReasonDailyWithdrawalLimit, ReasonDailyDepositCount, ReasonInvalidDate,
		ReasonRefIDConflict:
		return true
	}
	return false
}
