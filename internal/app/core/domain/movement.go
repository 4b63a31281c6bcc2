package domain

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementKind 異動類型
// 只有兩種固定類型，使用 uint8 節省記憶體
type MovementKind uint8

const (
	// 存款
	MovementKindDeposit MovementKind = 1
	// 提款
	MovementKindWithdrawal MovementKind = 2
)

func (k MovementKind) String() string {
	switch k {
	case MovementKindDeposit:
		return "deposit"
	case MovementKindWithdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

// ParseMovementKind 解析 String() 的輸出
func ParseMovementKind(s string) (MovementKind, error) {
	switch s {
	case "deposit":
		return MovementKindDeposit, nil
	case "withdrawal":
		return MovementKindWithdrawal, nil
	default:
		return 0, ErrInvalidMovementKind
	}
}

// Movement 一筆已被接受的存款或提款，建立後不可變更
type Movement struct {
	id     uuid.UUID
	date   civil.Date
	amount decimal.Decimal
	kind   MovementKind
}

// NewMovement 建立異動紀錄
// 金額是否為正數由呼叫端 (Account) 在建立前檢查
func NewMovement(id uuid.UUID, kind MovementKind, date civil.Date, amount decimal.Decimal) Movement {
	return Movement{
		id:     id,
		date:   date,
		amount: amount,
		kind:   kind,
	}
}

// NewDeposit 建立存款紀錄
func NewDeposit(date civil.Date, amount decimal.Decimal) Movement {
	return NewMovement(uuid.New(), MovementKindDeposit, date, amount)
}

// NewWithdrawal 建立提款紀錄
func NewWithdrawal(date civil.Date, amount decimal.Decimal) Movement {
	return NewMovement(uuid.New(), MovementKindWithdrawal, date, amount)
}

func (m Movement) ID() uuid.UUID           { return m.id }
func (m Movement) Date() civil.Date        { return m.date }
func (m Movement) Amount() decimal.Decimal { return m.amount }
func (m Movement) Kind() MovementKind      { return m.kind }

// EffectOn 回傳套用此筆異動後的餘額
func (m Movement) EffectOn(balance decimal.Decimal) decimal.Decimal {
	switch m.kind {
	case MovementKindDeposit:
		return balance.Add(m.amount)
	case MovementKindWithdrawal:
		return balance.Sub(m.amount)
	default:
		return balance
	}
}

func (m Movement) IsDeposit() bool    { return m.kind == MovementKindDeposit }
func (m Movement) IsWithdrawal() bool { return m.kind == MovementKindWithdrawal }

// OccurredOn 是否發生在指定日期
func (m Movement) OccurredOn(date civil.Date) bool {
	return m.date == date
}

// DepositedOn 是否為指定日期的存款
func (m Movement) DepositedOn(date civil.Date) bool {
	return m.IsDeposit() && m.OccurredOn(date)
}

// WithdrawnOn 是否為指定日期的提款
func (m Movement) WithdrawnOn(date civil.Date) bool {
	return m.IsWithdrawal() && m.OccurredOn(date)
}
