package domain

import "github.com/shopspring/decimal"

const (
	// DefaultDailyWithdrawalLimit 單日提款總額預設上限
	DefaultDailyWithdrawalLimit = 1000
	// DefaultDailyDepositCount 單日存款次數預設上限
	DefaultDailyDepositCount = 3
)

// Limits 錢包的每日限制
type Limits struct {
	// DailyWithdrawal 同一天所有提款金額的總和上限
	DailyWithdrawal decimal.Decimal
	// DailyDepositCount 同一天可接受的存款筆數上限
	DailyDepositCount int
}

// DefaultLimits 回傳預設限制 (1000 / 3)
func DefaultLimits() Limits {
	return Limits{
		DailyWithdrawal:   decimal.NewFromInt(DefaultDailyWithdrawalLimit),
		DailyDepositCount: DefaultDailyDepositCount,
	}
}

// Validate 兩個限制都必須為正數
func (l Limits) Validate() error {
	if !l.DailyWithdrawal.IsPositive() || l.DailyDepositCount <= 0 {
		return ErrInvalidLimits
	}
	return nil
}
