package engine

import (
	"context"
	"errors"
	"sync"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/quorumlab/stakegov/config"
	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/tx/handler"
	"github.com/quorumlab/stakegov/types"
)

var (
	ErrUnsupportedTx = errors.New("unsupported tx")
	ErrUnexpectedTx  = errors.New("unexpected tx apply")
	ErrEngineStopped = errors.New("engine stopped")
)

// Engine owns the ledger and serializes every transition through one lock.
// Transactions are applied in batches; each batch commits as one height.
type Engine struct {
	cfg    *config.Config
	logger cmtlog.Logger

	mtx     sync.Mutex
	db      *state.StateDB
	txHdlrs map[tx.GovTxType]handler.TxHandler
	events  chan types.Event
	stopped bool
}

func New(cfg *config.Config, logger cmtlog.Logger, collab state.Collaborators) (e *Engine, err error) {
	logger = logger.With("module", "engine")

	db, err := state.NewStateDB(cfg.DataDir(), logger, collab)
	if err != nil {
		return nil, err
	}
	e = &Engine{
		cfg:    cfg,
		logger: logger,
		db:     db,
		events: make(chan types.Event, 256),
	}
	e.registerTxHandler()
	return
}

func (e *Engine) registerTxHandler() {
	e.txHdlrs = map[tx.GovTxType]handler.TxHandler{
		tx.GovTxTypeOpen:      handler.NewOpenTxHandler(e.logger),
		tx.GovTxTypeVote:      handler.NewVoteTxHandler(e.logger),
		tx.GovTxTypeClose:     handler.NewCloseTxHandler(e.logger),
		tx.GovTxTypeDeposit:   handler.NewDepositTxHandler(e.logger),
		tx.GovTxTypeWithdraw:  handler.NewWithdrawTxHandler(e.logger),
		tx.GovTxTypeExit:      handler.NewExitTxHandler(e.logger),
		tx.GovTxTypeAdmission: handler.NewAdmissionTxHandler(e.logger),
	}
}

// Events is the settled-transition feed the indexer consumes.
func (e *Engine) Events() <-chan types.Event {
	return e.events
}

func (e *Engine) Stop() {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	close(e.events)
	if err := e.db.Close(); err != nil {
		e.logger.Error("close db fail", "err", err)
	}
	e.logger.Info("engine stopped")
}

// InitChain seeds an empty ledger from the genesis document. Idempotent on
// an already initialized ledger.
func (e *Engine) InitChain(doc *types.GenesisDoc) (err error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if e.db.Header().Hash != nil {
		e.logger.Info("ledger already initialized", "height", e.db.Header().Height)
		return nil
	}
	st := e.db.NewState()
	if err = st.ApplyGenesis(doc); err != nil {
		e.logger.Error("apply genesis fail", "err", err)
		return err
	}
	if _, err = st.Update(); err != nil {
		e.logger.Error("genesis update state fail", "err", err)
		return err
	}
	h, err := e.db.SetState(st)
	if err != nil {
		e.logger.Error("genesis apply state fail", "err", err)
		return err
	}
	e.logger.Info("genesis applied", "chainId", doc.ChainID, "owners", len(doc.Owners), "hash", h)
	return nil
}

func (e *Engine) parseTx(txDat []byte, allowNonceGap bool) (btx *tx.GovTx, err error) {
	btx, err = tx.UnmarshalGovTx(txDat)
	if err != nil {
		return
	}
	if btx.Type == tx.GovTxTypeAdmission {
		_, err = e.db.State().VerifyAdmission(btx)
	} else {
		_, err = e.db.State().Verify(btx, allowNonceGap)
	}
	return
}

// CheckTx validates a raw transaction against committed state without
// mutating anything.
func (e *Engine) CheckTx(ctx context.Context, txDat []byte) (res *types.ExecResult, err error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	res = &types.ExecResult{Code: 0}
	btx, err := e.parseTx(txDat, true)
	if err != nil {
		e.logger.Info("check tx parse fail", "err", err)
		res.Code = 1
		res.Log = err.Error()
		return res, nil
	}
	h, ok := e.txHdlrs[btx.Type]
	if !ok {
		e.logger.Error("unsupported tx", "type", btx.Type)
		res.Code = 1
		res.Log = ErrUnsupportedTx.Error()
		return res, nil
	}
	res, err = h.Check(ctx, e.db.State(), btx)
	if err != nil {
		e.logger.Error("check tx fail", "err", err)
		res = &types.ExecResult{Code: 1, Log: err.Error()}
		err = nil
	}
	return
}

// ApplyTx applies one raw transaction as its own transition.
func (e *Engine) ApplyTx(ctx context.Context, txDat []byte) (res *types.ExecResult, err error) {
	results, err := e.ApplyTxs(ctx, [][]byte{txDat})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// ApplyTxs applies a batch of transactions as one committed transition. A
// transaction that fails validation poisons the whole batch; nothing is
// persisted and the error is returned.
func (e *Engine) ApplyTxs(ctx context.Context, txs [][]byte) (res []*types.ExecResult, err error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if e.stopped {
		return nil, ErrEngineStopped
	}

	st := e.db.NewState()
	for _, h := range e.txHdlrs {
		h.NewContext(ctx)
	}
	res = make([]*types.ExecResult, len(txs))
	for i, txDat := range txs {
		btx, err := e.parseTx(txDat, false)
		if err != nil {
			e.logger.Error("apply tx parse fail", "err", err)
			return nil, err
		}
		h, ok := e.txHdlrs[btx.Type]
		if !ok {
			e.logger.Error("apply tx no handler", "type", btx.Type)
			return nil, ErrUnexpectedTx
		}
		result, err := h.Apply(ctx, st, btx)
		if err != nil {
			e.logger.Error("apply tx fail", "type", btx.Type, "err", err)
			return nil, err
		}
		if result == nil || result.Code != 0 {
			e.logger.Error("apply tx rejected", "type", btx.Type)
			return nil, ErrUnexpectedTx
		}
		res[i] = result
	}

	h, err := st.Update()
	if err != nil {
		e.logger.Error("state update fail", "err", err)
		return nil, err
	}
	if _, err = e.db.SetState(st); err != nil {
		e.logger.Error("apply state fail", "err", err)
		return nil, err
	}
	height := e.db.Header().Height
	e.logger.Info("transition committed", "height", height, "txs", len(txs), "hash", h)

	for _, r := range res {
		for _, ev := range r.Events {
			ev.Height = height
			select {
			case e.events <- ev:
			default:
				e.logger.Error("event feed full, dropping", "type", ev.Type)
			}
		}
	}
	return
}
