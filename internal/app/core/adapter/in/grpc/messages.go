package grpc

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
)

// 訊息欄位
//
//	OpenWallet:        {daily_withdrawal_limit?, daily_deposit_limit?} -> {wallet_id}
//	Deposit/Withdraw:  {wallet_id, amount, ref_id?} -> {wallet_id, balance, replayed, movement}
//	GetBalance:        {wallet_id} -> {wallet_id, balance}
//	ListMovements:     {wallet_id, date?} -> {wallet_id, movements}
//	GetWithdrawnTotal: {wallet_id, date?} -> {wallet_id, date, total}
//
// 金額一律用十進位字串，日期為 YYYY-MM-DD
const (
	fieldWalletID             = "wallet_id"
	fieldRefID                = "ref_id"
	fieldAmount               = "amount"
	fieldBalance              = "balance"
	fieldReplayed             = "replayed"
	fieldMovement             = "movement"
	fieldMovements            = "movements"
	fieldMovementID           = "id"
	fieldKind                 = "kind"
	fieldDate                 = "date"
	fieldTotal                = "total"
	fieldDailyWithdrawalLimit = "daily_withdrawal_limit"
	fieldDailyDepositLimit    = "daily_deposit_limit"

	// error detail
	fieldReason    = "reason"
	fieldLimit     = "limit"
	fieldRemaining = "remaining"
)

// stringField 取出字串欄位，不存在時回傳空字串
func stringField(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return "", nil
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return str.StringValue, nil
}

func numberField(s *structpb.Struct, key string) (float64, bool, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, false, nil
	}
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false, fmt.Errorf("%s must be a number", key)
	}
	return num.NumberValue, true, nil
}

// uuidField 必填的 uuid 欄位
func uuidField(s *structpb.Struct, key string) (uuid.UUID, error) {
	raw, err := stringField(s, key)
	if err != nil {
		return uuid.Nil, err
	}
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return id, nil
}

// optionalUUIDField 選填的 uuid 欄位，不存在時回傳 uuid.Nil
func optionalUUIDField(s *structpb.Struct, key string) (uuid.UUID, error) {
	raw, err := stringField(s, key)
	if err != nil || raw == "" {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return id, nil
}

// decimalField 必填的金額欄位；正負號由 domain 檢查
func decimalField(s *structpb.Struct, key string) (decimal.Decimal, error) {
	raw, err := stringField(s, key)
	if err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%s is required", key)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// dateField 選填的日期欄位
func dateField(s *structpb.Struct, key string) (civil.Date, bool, error) {
	raw, err := stringField(s, key)
	if err != nil || raw == "" {
		return civil.Date{}, false, err
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, true, nil
}

// limitsFromRequest 兩個欄位都沒填時回傳零值 (使用伺服器預設限制)
func limitsFromRequest(s *structpb.Struct) (domain.Limits, error) {
	var limits domain.Limits
	raw, err := stringField(s, fieldDailyWithdrawalLimit)
	if err != nil {
		return limits, err
	}
	if raw != "" {
		limits.DailyWithdrawal, err = decimal.NewFromString(raw)
		if err != nil {
			return limits, fmt.Errorf("invalid %s: %w", fieldDailyWithdrawalLimit, err)
		}
	}
	count, ok, err := numberField(s, fieldDailyDepositLimit)
	if err != nil {
		return limits, err
	}
	if ok {
		if count != float64(int(count)) {
			return limits, fmt.Errorf("%s must be an integer", fieldDailyDepositLimit)
		}
		limits.DailyDepositCount = int(count)
	}
	return limits, nil
}

func movementToMap(m domain.Movement) map[string]any {
	return map[string]any{
		fieldMovementID: m.ID().String(),
		fieldKind:       m.Kind().String(),
		fieldDate:       m.Date().String(),
		fieldAmount:     m.Amount().String(),
	}
}

// movementFromStruct 解析回應中的 movement
func movementFromStruct(s *structpb.Struct) (domain.Movement, error) {
	id, err := uuidField(s, fieldMovementID)
	if err != nil {
		return domain.Movement{}, err
	}
	rawKind, err := stringField(s, fieldKind)
	if err != nil {
		return domain.Movement{}, err
	}
	kind, err := domain.ParseMovementKind(rawKind)
	if err != nil {
		return domain.Movement{}, err
	}
	date, _, err := dateField(s, fieldDate)
	if err != nil {
		return domain.Movement{}, err
	}
	amount, err := decimalField(s, fieldAmount)
	if err != nil {
		return domain.Movement{}, err
	}
	return domain.NewMovement(id, kind, date, amount), nil
}

func receiptToStruct(r domain.Receipt) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldWalletID: r.WalletID.String(),
		fieldBalance:  r.Balance.String(),
		fieldReplayed: r.Replayed,
		fieldMovement: movementToMap(r.Movement),
	})
}

func receiptFromStruct(s *structpb.Struct) (domain.Receipt, error) {
	walletID, err := uuidField(s, fieldWalletID)
	if err != nil {
		return domain.Receipt{}, err
	}
	balance, err := decimalField(s, fieldBalance)
	if err != nil {
		return domain.Receipt{}, err
	}
	movement, err := movementFromStruct(s.GetFields()[fieldMovement].GetStructValue())
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("movement: %w", err)
	}
	return domain.Receipt{
		WalletID: walletID,
		Movement: movement,
		Balance:  balance,
		Replayed: s.GetFields()[fieldReplayed].GetBoolValue(),
	}, nil
}
