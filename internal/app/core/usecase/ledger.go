package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
)

// Ledger 是錢包帳本的介面
type Ledger interface {
	// OpenWallet 建立新錢包
	OpenWallet(ctx context.Context, walletID uuid.UUID, limits domain.Limits) error
	// 不分 Deposit/Withdraw，直接看 cmd.Kind 決定
	PostMovement(ctx context.Context, cmd *domain.Command) (domain.Receipt, error)
	// GetStatement 取得錢包快照 (餘額、限制、異動紀錄)
	GetStatement(ctx context.Context, walletID uuid.UUID) (domain.Statement, error)
}
