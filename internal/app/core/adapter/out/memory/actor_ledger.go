package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-wallet/internal/app/core/usecase"
)

// DefaultQueueSize 輸送帶預設長度
const DefaultQueueSize = 1000

type requestType uint8

const (
	requestOpenWallet requestType = iota + 1
	requestPostMovement
	requestStatement
)

// ledgerRequest 請求包裝 channel，讓呼叫端可以等待結果
type ledgerRequest struct {
	typ      requestType
	walletID uuid.UUID
	limits   domain.Limits
	cmd      *domain.Command
	result   chan ledgerResult // 呼叫端等這個 channel
}

type ledgerResult struct {
	receipt   domain.Receipt
	statement domain.Statement
	err       error
}

// ActorLedger 所有錢包只由單一 goroutine 存取，不需要任何鎖
//
// PostMovement(等待) -> Channel -> Run Loop (核心) -> Account 更新 -> Result Channel -> PostMovement(收到結果)
type ActorLedger struct {
	wallets map[uuid.UUID]*domain.Account
	// 已處理過的交易
	processed map[uuid.UUID]domain.Receipt
	// 輸送帶 負責接收請求
	requests chan *ledgerRequest
	// Run Loop 結束後關閉
	done chan struct{}
	// Pool 減少 GC 壓力
	requestPool sync.Pool
	startOnce   sync.Once
}

// NewActorLedger 建立一個新的 ActorLedger 實例，需呼叫 Start 後才會開始處理請求
//
// 呼叫端必須在送出任何請求前呼叫 Start
// Start 之前送出的請求會留在輸送帶上，直到 Start 後才處理，若 ctx 沒有期限會一直等待
//
// 參數:
//
//	queueSize: 輸送帶長度，<= 0 時使用 DefaultQueueSize
func NewActorLedger(queueSize int) *ActorLedger {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &ActorLedger{
		wallets:   make(map[uuid.UUID]*domain.Account),
		processed: make(map[uuid.UUID]domain.Receipt),
		requests:  make(chan *ledgerRequest, queueSize),
		done:      make(chan struct{}),
		requestPool: sync.Pool{
			New: func() interface{} {
				return &ledgerRequest{
					result: make(chan ledgerResult, 1),
				}
			},
		},
	}
}

// Start 啟動核心引擎 (非同步)，ctx 結束時處理完剩下的請求後停止
func (l *ActorLedger) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		go l.run(ctx)
	})
}

// Done Run Loop 結束後關閉
func (l *ActorLedger) Done() <-chan struct{} {
	return l.done
}

func (l *ActorLedger) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的請求處理完
			l.drain()
			return
		case req := <-l.requests:
			l.process(req)
		}
	}
}

func (l *ActorLedger) drain() {
	for {
		select {
		case req := <-l.requests:
			l.process(req)
		default:
			return
		}
	}
}

// submit 放入輸送帶並等待結果
// 請求一旦進入輸送帶就一定會被處理，因此之後不再看 ctx
// 前提是已經呼叫過 Start，否則只會在輸送帶滿且 ctx 結束時返回
func (l *ActorLedger) submit(ctx context.Context, req *ledgerRequest) ledgerResult {
	select {
	case l.requests <- req:
	case <-ctx.Done():
		return ledgerResult{err: ctx.Err()}
	case <-l.done:
		return ledgerResult{err: domain.ErrLedgerStopped}
	}

	select {
	case res := <-req.result:
		l.release(req)
		return res
	case <-l.done:
		// 停止前可能已經處理完
		select {
		case res := <-req.result:
			l.release(req)
			return res
		default:
			return ledgerResult{err: domain.ErrLedgerStopped}
		}
	}
}

func (l *ActorLedger) acquire() *ledgerRequest {
	req := l.requestPool.Get().(*ledgerRequest)
	// 清空 Channel (理論上應該是空的)
	select {
	case <-req.result:
	default:
	}
	return req
}

func (l *ActorLedger) release(req *ledgerRequest) {
	req.cmd = nil
	l.requestPool.Put(req)
}

// OpenWallet 建立新錢包
func (l *ActorLedger) OpenWallet(ctx context.Context, walletID uuid.UUID, limits domain.Limits) error {
	req := l.acquire()
	req.typ = requestOpenWallet
	req.walletID = walletID
	req.limits = limits
	return l.submit(ctx, req).err
}

// PostMovement 接收存提款請求
func (l *ActorLedger) PostMovement(ctx context.Context, cmd *domain.Command) (domain.Receipt, error) {
	req := l.acquire()
	req.typ = requestPostMovement
	req.walletID = cmd.WalletID
	req.cmd = cmd
	res := l.submit(ctx, req)
	return res.receipt, res.err
}

// GetStatement 取得錢包快照，同樣經過輸送帶以確保看到一致的狀態
func (l *ActorLedger) GetStatement(ctx context.Context, walletID uuid.UUID) (domain.Statement, error) {
	req := l.acquire()
	req.typ = requestStatement
	req.walletID = walletID
	res := l.submit(ctx, req)
	return res.statement, res.err
}

// process 處理單筆請求並回傳結果
func (l *ActorLedger) process(req *ledgerRequest) {
	var res ledgerResult
	switch req.typ {
	case requestOpenWallet:
		res.err = l.handleOpenWallet(req.walletID, req.limits)
	case requestPostMovement:
		res.receipt, res.err = l.handlePostMovement(req.cmd)
	case requestStatement:
		res.statement, res.err = l.handleStatement(req.walletID)
	}
	req.result <- res
}

func (l *ActorLedger) handleOpenWallet(walletID uuid.UUID, limits domain.Limits) error {
	if _, ok := l.wallets[walletID]; ok {
		return domain.ErrWalletAlreadyExists
	}
	account, err := domain.NewAccount(walletID, domain.WithLimits(limits))
	if err != nil {
		return err
	}
	l.wallets[walletID] = account
	return nil
}

func (l *ActorLedger) handlePostMovement(cmd *domain.Command) (domain.Receipt, error) {
	// 0. Idempotency Check (Thread Safe in Loop)
	if cmd.RefID != uuid.Nil {
		if receipt, ok := l.processed[cmd.RefID]; ok {
			if !receipt.Matches(cmd) {
				return domain.Receipt{}, domain.ErrRefIDConflict
			}
			receipt.Replayed = true
			return receipt, nil
		}
	}

	account, ok := l.wallets[cmd.WalletID]
	if !ok {
		return domain.Receipt{}, domain.ErrWalletNotFound
	}

	// 1. 執行業務邏輯 (Deposit/Withdraw)
	movement, err := cmd.Apply(account)
	if err != nil {
		return domain.Receipt{}, err
	}

	// 2. 更新 Idempotency
	receipt := domain.Receipt{
		WalletID: cmd.WalletID,
		Movement: movement,
		Balance:  account.Balance(),
	}
	if cmd.RefID != uuid.Nil {
		l.processed[cmd.RefID] = receipt
	}
	return receipt, nil
}

func (l *ActorLedger) handleStatement(walletID uuid.UUID) (domain.Statement, error) {
	account, ok := l.wallets[walletID]
	if !ok {
		return domain.Statement{}, domain.ErrWalletNotFound
	}
	return account.Statement(), nil
}

var _ usecase.Ledger = (*ActorLedger)(nil)
