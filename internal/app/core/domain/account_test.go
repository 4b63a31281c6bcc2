package domain

import (
	"errors"
	"sync"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	today     = civil.Date{Year: 2024, Month: 3, Day: 14}
	yesterday = today.AddDays(-1)
	tomorrow  = today.AddDays(1)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newAccount(t *testing.T, opts ...AccountOption) *Account {
	t.Helper()
	a, err := NewAccount(uuid.New(), opts...)
	require.NoError(t, err)
	return a
}

// fund 在前幾天存入足夠金額，不佔用 today 的存款次數
func fund(t *testing.T, a *Account, amounts ...string) {
	t.Helper()
	for i, s := range amounts {
		_, err := a.Deposit(dec(s), today.AddDays(-10-i))
		require.NoError(t, err)
	}
}

func TestNewAccount_Defaults(t *testing.T) {
	a := newAccount(t)

	assert.True(t, a.Balance().IsZero())
	assert.Empty(t, a.Movements())
	assert.True(t, a.Limits().DailyWithdrawal.Equal(dec("1000")))
	assert.Equal(t, 3, a.Limits().DailyDepositCount)
}

func TestNewAccount_CustomLimits(t *testing.T) {
	a := newAccount(t, WithDailyWithdrawalLimit(dec("250.50")), WithDailyDepositLimit(5))

	assert.True(t, a.Limits().DailyWithdrawal.Equal(dec("250.50")))
	assert.Equal(t, 5, a.Limits().DailyDepositCount)

	b := newAccount(t, WithLimits(Limits{DailyWithdrawal: dec("10"), DailyDepositCount: 1}))
	assert.Equal(t, 1, b.Limits().DailyDepositCount)
}

func TestNewAccount_InvalidLimits(t *testing.T) {
	tests := []struct {
		name string
		opts []AccountOption
	}{
		{"zero withdrawal limit", []AccountOption{WithDailyWithdrawalLimit(decimal.Zero)}},
		{"negative withdrawal limit", []AccountOption{WithDailyWithdrawalLimit(dec("-1"))}},
		{"zero deposit count", []AccountOption{WithDailyDepositLimit(0)}},
		{"negative deposit count", []AccountOption{WithDailyDepositLimit(-3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAccount(uuid.New(), tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidLimits)
		})
	}
}

func TestNonPositiveAmountIsRejected(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "500")

	for _, s := range []string{"0", "-1", "-0.01", "-1500"} {
		amount := dec(s)

		_, err := a.Deposit(amount, today)
		assert.ErrorIs(t, err, ErrNonPositiveAmount, "deposit %s", s)

		_, err = a.Withdraw(amount, today)
		assert.ErrorIs(t, err, ErrNonPositiveAmount, "withdraw %s", s)

		var amountErr *AmountError
		require.True(t, errors.As(err, &amountErr))
		assert.True(t, amountErr.Amount.Equal(amount))
	}

	assert.True(t, a.Balance().Equal(dec("500")))
	assert.Len(t, a.Movements(), 1)
}

func TestAmountIsCheckedBeforeLimits(t *testing.T) {
	a := newAccount(t, WithDailyDepositLimit(1))
	_, err := a.Deposit(dec("10"), today)
	require.NoError(t, err)

	// 次數已滿，但金額錯誤應該優先回報
	_, err = a.Deposit(dec("0"), today)
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	// 餘額不足，但金額錯誤應該優先回報
	_, err = a.Withdraw(dec("-100"), today)
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
}

func TestInvalidDateIsRejected(t *testing.T) {
	a := newAccount(t)

	_, err := a.Deposit(dec("10"), civil.Date{})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = a.Withdraw(dec("10"), civil.Date{Year: 2024, Month: 2, Day: 30})
	assert.ErrorIs(t, err, ErrInvalidDate)

	assert.Empty(t, a.Movements())
}

func TestDeposit_BalanceIsSumOfDeposits(t *testing.T) {
	a := newAccount(t)

	amounts := []string{"100", "0.25", "1500.75"}
	sum := decimal.Zero
	for _, s := range amounts {
		m, err := a.Deposit(dec(s), today)
		require.NoError(t, err)
		assert.True(t, m.IsDeposit())
		assert.True(t, m.OccurredOn(today))
		sum = sum.Add(dec(s))
	}

	assert.True(t, a.Balance().Equal(sum), "balance=%s want=%s", a.Balance(), sum)
	assert.Len(t, a.Movements(), len(amounts))
}

func TestDeposit_DailyCountLimit(t *testing.T) {
	a := newAccount(t)

	for i := 0; i < 3; i++ {
		_, err := a.Deposit(dec("100"), today)
		require.NoError(t, err)
	}

	_, err := a.Deposit(dec("100"), today)
	require.ErrorIs(t, err, ErrDailyDepositCountExceeded)

	var limitErr *DepositLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, today, limitErr.Date)

	assert.True(t, a.Balance().Equal(dec("300")))
	assert.Len(t, a.Movements(), 3)

	// 次數是以日為單位計算
	_, err = a.Deposit(dec("100"), tomorrow)
	assert.NoError(t, err)
	assert.Equal(t, 3, a.DepositCountOn(today))
	assert.Equal(t, 1, a.DepositCountOn(tomorrow))
}

func TestDeposit_WithdrawalsDoNotCountTowardsDepositLimit(t *testing.T) {
	a := newAccount(t, WithDailyDepositLimit(2))
	fund(t, a, "1000")

	_, err := a.Withdraw(dec("10"), today)
	require.NoError(t, err)
	_, err = a.Withdraw(dec("10"), today)
	require.NoError(t, err)

	_, err = a.Deposit(dec("5"), today)
	require.NoError(t, err)
	_, err = a.Deposit(dec("5"), today)
	require.NoError(t, err)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "100")

	_, err := a.Withdraw(dec("150"), today)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	var fundsErr *InsufficientFundsError
	require.True(t, errors.As(err, &fundsErr))
	assert.True(t, fundsErr.Balance.Equal(dec("100")))
	assert.True(t, fundsErr.Amount.Equal(dec("150")))

	assert.True(t, a.Balance().Equal(dec("100")))
	assert.Len(t, a.Movements(), 1)
}

func TestWithdraw_WholeBalance(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "100")

	_, err := a.Withdraw(dec("100"), today)
	require.NoError(t, err)
	assert.True(t, a.Balance().IsZero())

	_, err = a.Withdraw(dec("0.01"), today)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestWithdraw_InsufficientFundsIsCheckedBeforeDailyLimit(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "50")

	_, err := a.Withdraw(dec("5000"), today)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestWithdraw_DailyLimitIsCumulative(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "1000", "1000")

	_, err := a.Withdraw(dec("600"), today)
	require.NoError(t, err)

	_, err = a.Withdraw(dec("500"), today)
	require.ErrorIs(t, err, ErrDailyWithdrawalLimitExceeded)

	var limitErr *DailyWithdrawalLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.True(t, limitErr.Limit.Equal(dec("1000")))
	assert.True(t, limitErr.Remaining.Equal(dec("400")))
	assert.True(t, limitErr.Amount.Equal(dec("500")))

	assert.True(t, a.Balance().Equal(dec("1400")))

	// 剛好等於剩餘額度可以接受
	_, err = a.Withdraw(dec("400"), today)
	require.NoError(t, err)
	assert.True(t, a.TotalWithdrawnOn(today).Equal(dec("1000")))
	assert.True(t, a.Balance().Equal(dec("1000")))

	_, err = a.Withdraw(dec("0.01"), today)
	assert.ErrorIs(t, err, ErrDailyWithdrawalLimitExceeded)

	// 隔天額度重新計算
	_, err = a.Withdraw(dec("1000"), tomorrow)
	assert.NoError(t, err)
	assert.True(t, a.Balance().IsZero())
}

func TestWithdraw_SingleCallAboveLimit(t *testing.T) {
	a := newAccount(t, WithDailyWithdrawalLimit(dec("100")))
	fund(t, a, "1000")

	_, err := a.Withdraw(dec("100.01"), today)
	assert.ErrorIs(t, err, ErrDailyWithdrawalLimitExceeded)
	assert.Len(t, a.Movements(), 1)
}

func TestTotalWithdrawnOn(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "3000")

	_, err := a.Withdraw(dec("100"), yesterday)
	require.NoError(t, err)
	_, err = a.Deposit(dec("999"), today)
	require.NoError(t, err)
	_, err = a.Withdraw(dec("20.5"), today)
	require.NoError(t, err)
	_, err = a.Withdraw(dec("30"), today)
	require.NoError(t, err)
	_, err = a.Withdraw(dec("7"), tomorrow)
	require.NoError(t, err)

	assert.True(t, a.TotalWithdrawnOn(today).Equal(dec("50.5")))
	assert.True(t, a.TotalWithdrawnOn(yesterday).Equal(dec("100")))
	assert.True(t, a.TotalWithdrawnOn(tomorrow).Equal(dec("7")))
	assert.True(t, a.TotalWithdrawnOn(today.AddDays(30)).IsZero())
}

func TestBalanceEqualsSumOfEffects(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "500", "250")

	_, _ = a.Withdraw(dec("120"), today)
	_, _ = a.Deposit(dec("33.33"), today)
	_, _ = a.Withdraw(dec("9999"), today) // rejected
	_, _ = a.Withdraw(dec("13.33"), tomorrow)

	replayed := decimal.Zero
	for _, m := range a.Movements() {
		replayed = m.EffectOn(replayed)
	}
	assert.True(t, a.Balance().Equal(replayed), "balance=%s replayed=%s", a.Balance(), replayed)
	assert.True(t, a.Balance().Equal(dec("650")))
}

func TestMovementsAreChronologicalAndCopied(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "100")
	_, err := a.Withdraw(dec("40"), today)
	require.NoError(t, err)

	movements := a.Movements()
	require.Len(t, movements, 2)
	assert.True(t, movements[0].IsDeposit())
	assert.True(t, movements[1].IsWithdrawal())

	// 修改回傳的 slice 不影響帳戶內部
	movements[0] = NewWithdrawal(today, dec("100"))

	again := a.Movements()
	require.Len(t, again, 2)
	assert.True(t, again[0].IsDeposit())
	assert.True(t, a.Balance().Equal(dec("60")))
}

func TestQueriesDoNotMutate(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "800")
	_, err := a.Withdraw(dec("300"), today)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		assert.True(t, a.Balance().Equal(dec("500")))
		assert.Len(t, a.Movements(), 2)
		assert.True(t, a.TotalWithdrawnOn(today).Equal(dec("300")))
		assert.Equal(t, 0, a.DepositCountOn(today))
	}
}

func TestStatement(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "100")
	_, err := a.Withdraw(dec("25"), today)
	require.NoError(t, err)

	s := a.Statement()
	assert.Equal(t, a.ID(), s.WalletID)
	assert.True(t, s.Balance.Equal(dec("75")))
	assert.Len(t, s.Movements, 2)
	assert.True(t, s.TotalWithdrawnOn(today).Equal(dec("25")))
	assert.Equal(t, DefaultLimits().DailyDepositCount, s.Limits.DailyDepositCount)
}

func TestConcurrentWithdrawalsRespectLimitAndBalance(t *testing.T) {
	a := newAccount(t)
	fund(t, a, "5000")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = a.Withdraw(dec("30"), today)
		}()
	}
	wg.Wait()

	// 1000 / 30 = 33 筆
	assert.True(t, a.TotalWithdrawnOn(today).Equal(dec("990")))
	assert.True(t, a.Balance().Equal(dec("4010")))
	assert.Len(t, a.Movements(), 1+33)
}

func TestConcurrentDepositsRespectDailyCount(t *testing.T) {
	a := newAccount(t)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = a.Deposit(dec("1"), today)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, a.DepositCountOn(today))
	assert.True(t, a.Balance().Equal(dec("3")))
}
