package grpc

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
)

// codeOf 業務錯誤對應的 gRPC status code
func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}

	switch domain.ReasonOf(err) {
	case domain.ReasonNonPositiveAmount, domain.ReasonInvalidDate,
		domain.ReasonInvalidLimits, domain.ReasonInvalidMovementKind:
		return codes.InvalidArgument
	case domain.ReasonInsufficientFunds:
		return codes.FailedPrecondition
	case domain.ReasonDailyWithdrawalLimit, domain.ReasonDailyDepositCount:
		return codes.ResourceExhausted
	case domain.ReasonWalletNotFound:
		return codes.NotFound
	case domain.ReasonWalletAlreadyExists, domain.ReasonRefIDConflict:
		return codes.AlreadyExists
	case domain.ReasonLedgerStopped:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// toStatus 把 domain 錯誤轉成帶 detail 的 gRPC status
// detail 是一個 Struct，包含 reason 以及錯誤本身的數值 (amount、balance、limit…)
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codeOf(err)
	st := status.New(code, err.Error())
	if code == codes.Canceled || code == codes.DeadlineExceeded || code == codes.Internal {
		return st.Err()
	}

	detail := map[string]any{
		fieldReason: domain.ReasonOf(err),
	}
	var (
		amountErr  *domain.AmountError
		fundsErr   *domain.InsufficientFundsError
		dailyErr   *domain.DailyWithdrawalLimitError
		depositErr *domain.DepositLimitError
	)
	switch {
	case errors.As(err, &amountErr):
		detail[fieldAmount] = amountErr.Amount.String()
	case errors.As(err, &fundsErr):
		detail[fieldAmount] = fundsErr.Amount.String()
		detail[fieldBalance] = fundsErr.Balance.String()
	case errors.As(err, &dailyErr):
		detail[fieldAmount] = dailyErr.Amount.String()
		detail[fieldLimit] = dailyErr.Limit.String()
		detail[fieldRemaining] = dailyErr.Remaining.String()
	case errors.As(err, &depositErr):
		detail[fieldLimit] = float64(depositErr.Limit)
		detail[fieldDate] = depositErr.Date.String()
	}

	pb, perr := structpb.NewStruct(detail)
	if perr != nil {
		return st.Err()
	}
	withDetail, derr := st.WithDetails(pb)
	if derr != nil {
		return st.Err()
	}
	return withDetail.Err()
}

func invalidArgument(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

// fromStatus 客戶端使用：從 status detail 還原 domain 錯誤
// 沒有 detail 的錯誤原樣回傳
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var detail *structpb.Struct
	for _, d := range st.Details() {
		if s, ok := d.(*structpb.Struct); ok {
			detail = s
			break
		}
	}
	if detail == nil {
		return err
	}

	reason, _ := stringField(detail, fieldReason)
	decimalOf := func(key string) decimal.Decimal {
		raw, _ := stringField(detail, key)
		d, _ := decimal.NewFromString(raw)
		return d
	}

	switch reason {
	case domain.ReasonNonPositiveAmount:
		return &domain.AmountError{Amount: decimalOf(fieldAmount)}
	case domain.ReasonInsufficientFunds:
		return &domain.InsufficientFundsError{
			Amount:  decimalOf(fieldAmount),
			Balance: decimalOf(fieldBalance),
		}
	case domain.ReasonDailyWithdrawalLimit:
		return &domain.DailyWithdrawalLimitError{
			Amount:    decimalOf(fieldAmount),
			Limit:     decimalOf(fieldLimit),
			Remaining: decimalOf(fieldRemaining),
		}
	case domain.ReasonDailyDepositCount:
		limit, _, _ := numberField(detail, fieldLimit)
		rawDate, _ := stringField(detail, fieldDate)
		date, _ := civil.ParseDate(rawDate)
		return &domain.DepositLimitError{Limit: int(limit), Date: date}
	}

	if sentinel, ok := domain.ErrorOfReason(reason); ok {
		return sentinel
	}
	return err
}
