package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func TestReasonOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ReasonNone},
		{&AmountError{Amount: dec("-1")}, ReasonNonPositiveAmount},
		{&InsufficientFundsError{Amount: dec("2"), Balance: dec("1")}, ReasonInsufficientFunds},
		{&DailyWithdrawalLimitError{Amount: dec("2"), Limit: dec("1"), Remaining: dec("1")}, ReasonDailyWithdrawalLimit},
		{&DepositLimitError{Limit: 3, Date: today}, ReasonDailyDepositCount},
		{fmt.Errorf("wallet 42: %w", ErrWalletNotFound), ReasonWalletNotFound},
		{ErrLedgerStopped, ReasonLedgerStopped},
		{ErrRefIDConflict, ReasonRefIDConflict},
		{errors.New("boom"), ReasonUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReasonOf(tt.err), "%v", tt.err)
	}
}

func TestErrorOfReason(t *testing.T) {
	err, ok := ErrorOfReason(ReasonDailyWithdrawalLimit)
	assert.True(t, ok)
	assert.Equal(t, ErrDailyWithdrawalLimitExceeded, err)

	_, ok = ErrorOfReason("NOPE")
	assert.False(t, ok)
}

func TestIsRejection(t *testing.T) {
	assert.True(t, IsRejection(&AmountError{}))
	assert.True(t, IsRejection(&DepositLimitError{}))
	assert.True(t, IsRejection(ErrRefIDConflict))
	assert.False(t, IsRejection(ErrWalletNotFound))
	assert.False(t, IsRejection(errors.New("disk on fire")))
}

func TestErrorMessagesCarryContext(t *testing.T) {
	limitErr := &DailyWithdrawalLimitError{Amount: dec("500"), Limit: dec("1000"), Remaining: dec("400")}
	assert.Contains(t, limitErr.Error(), "1000")
	assert.Contains(t, limitErr.Error(), "400")

	fundsErr := &InsufficientFundsError{Amount: dec("150"), Balance: dec("100")}
	assert.Contains(t, fundsErr.Error(), "100")

	depositErr := &DepositLimitError{Limit: 3, Date: civil.Date{Year: 2024, Month: time.March, Day: 14}}
	assert.Contains(t, depositErr.Error(), "3 deposits")
	assert.Contains(t, depositErr.Error(), "2024-03-14")
}

func TestClocks(t *testing.T) {
	assert.Equal(t, today, FixedClock(today).Today())

	c := NewSystemClock(nil)
	assert.Equal(t, time.UTC, c.Location)
	assert.True(t, c.Today().IsValid())
	assert.True(t, SystemClock{}.Today().IsValid())
}
