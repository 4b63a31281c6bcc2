package domain

import (
	"sync"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account 錢包帳戶
//
// 結構:
//
//	balance: 目前餘額，恆等於所有異動依序套用的結果
//	movements: 只能追加的異動紀錄，順序即接受順序
//	limits: 每日提款總額與每日存款次數限制
//	mu: 存提款在同一把鎖內完成驗證與寫入
type Account struct {
	id        uuid.UUID
	mu        sync.RWMutex
	balance   decimal.Decimal
	movements []Movement
	limits    Limits
}

// AccountOption 定義了 Account 的配置選項函數
type AccountOption func(*Account)

// WithLimits 同時設定兩個每日限制
func WithLimits(limits Limits) AccountOption {
	return func(a *Account) {
		a.limits = limits
	}
}

// WithDailyWithdrawalLimit 設定單日提款總額上限
func WithDailyWithdrawalLimit(limit decimal.Decimal) AccountOption {
	return func(a *Account) {
		a.limits.DailyWithdrawal = limit
	}
}

// WithDailyDepositLimit 設定單日存款次數上限
func WithDailyDepositLimit(count int) AccountOption {
	return func(a *Account) {
		a.limits.DailyDepositCount = count
	}
}

// NewAccount 建立餘額為 0、沒有任何異動的帳戶
//
// 參數:
//
//	id: 帳戶 ID
//	opts: 限制設定，未指定時使用 DefaultLimits
//
// 回傳:
//
//	*Account: 帳戶
//	error: 限制不合法時回傳 ErrInvalidLimits
func NewAccount(id uuid.UUID, opts ...AccountOption) (*Account, error) {
	a := &Account{
		id:      id,
		balance: decimal.Zero,
		limits:  DefaultLimits(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.limits.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Account) ID() uuid.UUID { return a.id }

// Deposit 存款
//
// 驗證順序: 金額 > 0 → 日期合法 → 當日存款次數未達上限
// 任何驗證失敗都不會改變帳戶狀態
func (a *Account) Deposit(amount decimal.Decimal, today civil.Date) (Movement, error) {
	if err := validateAmount(amount); err != nil {
		return Movement{}, err
	}
	if !today.IsValid() {
		return Movement{}, ErrInvalidDate
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.depositCountOn(today) >= a.limits.DailyDepositCount {
		return Movement{}, &DepositLimitError{Limit: a.limits.DailyDepositCount, Date: today}
	}

	m := NewDeposit(today, amount)
	a.append(m)
	return m, nil
}

// Withdraw 提款
//
// 驗證順序: 金額 > 0 → 日期合法 → 餘額足夠 → 當日累計提款不超過上限
// 任何驗證失敗都不會改變帳戶狀態
func (a *Account) Withdraw(amount decimal.Decimal, today civil.Date) (Movement, error) {
	if err := validateAmount(amount); err != nil {
		return Movement{}, err
	}
	if !today.IsValid() {
		return Movement{}, ErrInvalidDate
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.balance.Sub(amount).IsNegative() {
		return Movement{}, &InsufficientFundsError{Amount: amount, Balance: a.balance}
	}

	remaining := a.limits.DailyWithdrawal.Sub(a.totalWithdrawnOn(today))
	if amount.GreaterThan(remaining) {
		return Movement{}, &DailyWithdrawalLimitError{
			Amount:    amount,
			Limit:     a.limits.DailyWithdrawal,
			Remaining: remaining,
		}
	}

	m := NewWithdrawal(today, amount)
	a.append(m)
	return m, nil
}

// append 追加異動並重新計算餘額，呼叫端需持有寫鎖
func (a *Account) append(m Movement) {
	a.movements = append(a.movements, m)
	a.balance = m.EffectOn(a.balance)
}

// TotalWithdrawnOn 指定日期的提款總額
func (a *Account) TotalWithdrawnOn(date civil.Date) decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totalWithdrawnOn(date)
}

func (a *Account) totalWithdrawnOn(date civil.Date) decimal.Decimal {
	total := decimal.Zero
	for _, m := range a.movements {
		if m.WithdrawnOn(date) {
			total = total.Add(m.Amount())
		}
	}
	return total
}

// DepositCountOn 指定日期的存款筆數
func (a *Account) DepositCountOn(date civil.Date) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.depositCountOn(date)
}

func (a *Account) depositCountOn(date civil.Date) int {
	count := 0
	for _, m := range a.movements {
		if m.DepositedOn(date) {
			count++
		}
	}
	return count
}

// Balance 目前餘額
func (a *Account) Balance() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balance
}

// Movements 回傳異動紀錄的複本，呼叫端修改不影響帳戶
func (a *Account) Movements() []Movement {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Movement, len(a.movements))
	copy(out, a.movements)
	return out
}

func (a *Account) Limits() Limits {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.limits
}

// Statement 在同一把讀鎖內取得一致的帳戶快照
func (a *Account) Statement() Statement {
	a.mu.RLock()
	defer a.mu.RUnlock()
	movements := make([]Movement, len(a.movements))
	copy(movements, a.movements)
	return Statement{
		WalletID:  a.id,
		Balance:   a.balance,
		Limits:    a.limits,
		Movements: movements,
	}
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &AmountError{Amount: amount}
	}
	return nil
}
