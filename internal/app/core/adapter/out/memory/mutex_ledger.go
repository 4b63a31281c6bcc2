package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-wallet/internal/app/core/usecase"
)

// MutexLedger 是一個使用 Mutex 實現的錢包帳本
//
// 結構:
//
//	wallets: 錢包資料 Map
//	mu: 寫入交易時持有寫鎖，查詢時持有讀鎖
//	processed: 已處理過的交易 (RefID → 第一次的結果)
type MutexLedger struct {
	wallets map[uuid.UUID]*domain.Account
	mu      sync.RWMutex
	// 已處理過的交易
	processed map[uuid.UUID]domain.Receipt
}

// NewMutexLedger 建立一個新的 MutexLedger 實例
func NewMutexLedger() *MutexLedger {
	return &MutexLedger{
		wallets:   make(map[uuid.UUID]*domain.Account),
		processed: make(map[uuid.UUID]domain.Receipt),
	}
}

// OpenWallet 建立新錢包
//
// 參數:
//
//	ctx: 上下文
//	walletID: 錢包 ID
//	limits: 每日限制
//
// 回傳:
//
//	error: ID 重複或限制不合法
func (m *MutexLedger) OpenWallet(ctx context.Context, walletID uuid.UUID, limits domain.Limits) error {
	account, err := domain.NewAccount(walletID, domain.WithLimits(limits))
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wallets[walletID]; ok {
		return domain.ErrWalletAlreadyExists
	}
	m.wallets[walletID] = account
	return nil
}

// PostMovement 處理存提款請求 (Mutex Lock)
//
// 參數:
//
//	ctx: 上下文
//	cmd: 交易請求物件
//
// 回傳:
//
//	domain.Receipt: 交易結果
//	error: 處理錯誤 (如餘額不足、超過每日限制)
func (m *MutexLedger) PostMovement(ctx context.Context, cmd *domain.Command) (domain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return domain.Receipt{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.postMovementInternal(cmd)
}

// postMovementInternal 執行交易核心邏輯，呼叫端需持有寫鎖
func (m *MutexLedger) postMovementInternal(cmd *domain.Command) (domain.Receipt, error) {
	if cmd.RefID != uuid.Nil {
		if receipt, ok := m.processed[cmd.RefID]; ok {
			if !receipt.Matches(cmd) {
				return domain.Receipt{}, domain.ErrRefIDConflict
			}
			receipt.Replayed = true
			return receipt, nil
		}
	}

	account, ok := m.wallets[cmd.WalletID]
	if !ok {
		return domain.Receipt{}, domain.ErrWalletNotFound
	}

	movement, err := cmd.Apply(account)
	if err != nil {
		return domain.Receipt{}, err
	}

	receipt := domain.Receipt{
		WalletID: cmd.WalletID,
		Movement: movement,
		Balance:  account.Balance(),
	}
	if cmd.RefID != uuid.Nil {
		m.processed[cmd.RefID] = receipt
	}
	return receipt, nil
}

// GetStatement 取得錢包快照
func (m *MutexLedger) GetStatement(ctx context.Context, walletID uuid.UUID) (domain.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.wallets[walletID]
	if !ok {
		return domain.Statement{}, domain.ErrWalletNotFound
	}
	return account.Statement(), nil
}

var _ usecase.Ledger = (*MutexLedger)(nil)
