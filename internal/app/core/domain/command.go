package domain

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Command 一筆存款或提款請求，由 usecase 組裝後交給 Ledger
type Command struct {
	// RefID: 外部追蹤號 (UUID)，uuid.Nil 表示不做冪等檢查
	RefID uuid.UUID
	// WalletID: 目標錢包
	WalletID uuid.UUID
	// Amount: 金額
	Amount decimal.Decimal
	// Date: 交易日期，由 Clock 提供
	Date civil.Date
	Kind MovementKind
}

// Apply 對帳戶執行此請求
func (c *Command) Apply(account *Account) (Movement, error) {
	switch c.Kind {
	case MovementKindDeposit:
		return account.Deposit(c.Amount, c.Date)
	case MovementKindWithdrawal:
		return account.Withdraw(c.Amount, c.Date)
	default:
		return Movement{}, ErrInvalidMovementKind
	}
}

// Receipt 請求被接受後的結果
type Receipt struct {
	WalletID uuid.UUID
	Movement Movement
	// Balance: 套用此筆異動後的餘額
	Balance decimal.Decimal
	// Replayed: 相同 RefID 的重送，回傳的是第一次的結果
	Replayed bool
}

// Matches 重送的請求必須與第一次的錢包、類型、金額相同
func (r Receipt) Matches(cmd *Command) bool {
	return r.WalletID == cmd.WalletID &&
		r.Movement.Kind() == cmd.Kind &&
		r.Movement.Amount().Equal(cmd.Amount)
}

// Statement 帳戶快照
type Statement struct {
	WalletID  uuid.UUID
	Balance   decimal.Decimal
	Limits    Limits
	Movements []Movement
}

// TotalWithdrawnOn 快照中指定日期的提款總額
func (s Statement) TotalWithdrawnOn(date civil.Date) decimal.Decimal {
	total := decimal.Zero
	for _, m := range s.Movements {
		if m.WithdrawnOn(date) {
			total = total.Add(m.Amount())
		}
	}
	return total
}
