package grpc

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
)

// Client WalletService 的客戶端
// 業務錯誤會還原成 domain 的錯誤型別，可直接用 errors.Is / errors.As 判斷
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient 參數 conn 通常來自 pkg/grpc.Pool
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, fromStatus(err)
	}
	return resp, nil
}

// OpenWallet limits 為零值時使用伺服器預設限制
func (c *Client) OpenWallet(ctx context.Context, limits domain.Limits) (uuid.UUID, error) {
	fields := map[string]any{}
	if !limits.DailyWithdrawal.IsZero() {
		fields[fieldDailyWithdrawalLimit] = limits.DailyWithdrawal.String()
	}
	if limits.DailyDepositCount != 0 {
		fields[fieldDailyDepositLimit] = float64(limits.DailyDepositCount)
	}
	resp, err := c.invoke(ctx, MethodOpenWallet, fields)
	if err != nil {
		return uuid.Nil, err
	}
	return uuidField(resp, fieldWalletID)
}

// Deposit refID 為 uuid.Nil 時不做冪等檢查
func (c *Client) Deposit(ctx context.Context, walletID, refID uuid.UUID, amount decimal.Decimal) (domain.Receipt, error) {
	return c.post(ctx, MethodDeposit, walletID, refID, amount)
}

// Withdraw refID 為 uuid.Nil 時不做冪等檢查
func (c *Client) Withdraw(ctx context.Context, walletID, refID uuid.UUID, amount decimal.Decimal) (domain.Receipt, error) {
	return c.post(ctx, MethodWithdraw, walletID, refID, amount)
}

func (c *Client) post(ctx context.Context, method string, walletID, refID uuid.UUID, amount decimal.Decimal) (domain.Receipt, error) {
	fields := map[string]any{
		fieldWalletID: walletID.String(),
		fieldAmount:   amount.String(),
	}
	if refID != uuid.Nil {
		fields[fieldRefID] = refID.String()
	}
	resp, err := c.invoke(ctx, method, fields)
	if err != nil {
		return domain.Receipt{}, err
	}
	return receiptFromStruct(resp)
}

func (c *Client) Balance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	resp, err := c.invoke(ctx, MethodGetBalance, map[string]any{
		fieldWalletID: walletID.String(),
	})
	if err != nil {
		return decimal.Zero, err
	}
	return decimalField(resp, fieldBalance)
}

// Movements 全部異動，依插入順序
func (c *Client) Movements(ctx context.Context, walletID uuid.UUID) ([]domain.Movement, error) {
	return c.listMovements(ctx, map[string]any{
		fieldWalletID: walletID.String(),
	})
}

// MovementsOn 指定日期的異動
func (c *Client) MovementsOn(ctx context.Context, walletID uuid.UUID, date civil.Date) ([]domain.Movement, error) {
	return c.listMovements(ctx, map[string]any{
		fieldWalletID: walletID.String(),
		fieldDate:     date.String(),
	})
}

func (c *Client) listMovements(ctx context.Context, fields map[string]any) ([]domain.Movement, error) {
	resp, err := c.invoke(ctx, MethodListMovements, fields)
	if err != nil {
		return nil, err
	}
	values := resp.GetFields()[fieldMovements].GetListValue().GetValues()
	movements := make([]domain.Movement, 0, len(values))
	for i, v := range values {
		m, err := movementFromStruct(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("movement %d: %w", i, err)
		}
		movements = append(movements, m)
	}
	return movements, nil
}

// TotalWithdrawnOn date 為零值時使用伺服器的今天
func (c *Client) TotalWithdrawnOn(ctx context.Context, walletID uuid.UUID, date civil.Date) (decimal.Decimal, error) {
	fields := map[string]any{
		fieldWalletID: walletID.String(),
	}
	if date != (civil.Date{}) {
		fields[fieldDate] = date.String()
	}
	resp, err := c.invoke(ctx, MethodGetWithdrawnTotal, fields)
	if err != nil {
		return decimal.Zero, err
	}
	return decimalField(resp, fieldTotal)
}
