package grpc

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-wallet/internal/app/core/usecase"
)

// WalletServer gRPC Driving Adapter，只做欄位轉換與錯誤對應，邏輯都在 usecase
type WalletServer struct {
	core *usecase.CoreUseCase
}

func NewWalletServer(core *usecase.CoreUseCase) *WalletServer {
	return &WalletServer{
		core: core,
	}
}

func (s *WalletServer) OpenWallet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limits, err := limitsFromRequest(req)
	if err != nil {
		return nil, invalidArgument(err)
	}
	walletID, err := s.core.OpenWallet(ctx, limits)
	if err != nil {
		return nil, toStatus(err)
	}
	return newResponse(map[string]any{
		fieldWalletID: walletID.String(),
	})
}

func (s *WalletServer) Deposit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.post(ctx, req, s.core.Deposit)
}

func (s *WalletServer) Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.post(ctx, req, s.core.Withdraw)
}

type postFunc func(ctx context.Context, walletID, refID uuid.UUID, amount decimal.Decimal) (domain.Receipt, error)

func (s *WalletServer) post(ctx context.Context, req *structpb.Struct, fn postFunc) (*structpb.Struct, error) {
	// 1. 欄位解析
	walletID, err := uuidField(req, fieldWalletID)
	if err != nil {
		return nil, invalidArgument(err)
	}
	refID, err := optionalUUIDField(req, fieldRefID)
	if err != nil {
		return nil, invalidArgument(err)
	}
	amount, err := decimalField(req, fieldAmount)
	if err != nil {
		return nil, invalidArgument(err)
	}

	// 2. 執行交易，日期由 usecase 的 Clock 決定
	receipt, err := fn(ctx, walletID, refID, amount)
	if err != nil {
		return nil, toStatus(err)
	}

	resp, err := receiptToStruct(receipt)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func (s *WalletServer) GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	walletID, err := uuidField(req, fieldWalletID)
	if err != nil {
		return nil, invalidArgument(err)
	}
	balance, err := s.core.Balance(ctx, walletID)
	if err != nil {
		return nil, toStatus(err)
	}
	return newResponse(map[string]any{
		fieldWalletID: walletID.String(),
		fieldBalance:  balance.String(),
	})
}

// ListMovements 依插入順序回傳異動，有帶 date 時只回傳當天
func (s *WalletServer) ListMovements(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	walletID, err := uuidField(req, fieldWalletID)
	if err != nil {
		return nil, invalidArgument(err)
	}
	date, filtered, err := dateField(req, fieldDate)
	if err != nil {
		return nil, invalidArgument(err)
	}

	statement, err := s.core.Statement(ctx, walletID)
	if err != nil {
		return nil, toStatus(err)
	}

	movements := make([]any, 0, len(statement.Movements))
	for _, m := range statement.Movements {
		if filtered && !m.OccurredOn(date) {
			continue
		}
		movements = append(movements, movementToMap(m))
	}
	return newResponse(map[string]any{
		fieldWalletID:  walletID.String(),
		fieldMovements: movements,
	})
}

// GetWithdrawnTotal 指定日期的提款總額，沒帶 date 時使用伺服器的今天
func (s *WalletServer) GetWithdrawnTotal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	walletID, err := uuidField(req, fieldWalletID)
	if err != nil {
		return nil, invalidArgument(err)
	}
	date, ok, err := dateField(req, fieldDate)
	if err != nil {
		return nil, invalidArgument(err)
	}
	if !ok {
		date = s.core.Today()
	}

	total, err := s.core.TotalWithdrawnOn(ctx, walletID, date)
	if err != nil {
		return nil, toStatus(err)
	}
	return newResponse(map[string]any{
		fieldWalletID: walletID.String(),
		fieldDate:     date.String(),
		fieldTotal:    total.String(),
	})
}

func newResponse(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

var _ WalletServiceServer = (*WalletServer)(nil)
