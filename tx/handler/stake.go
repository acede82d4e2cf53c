package handler

import (
	"context"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

type DepositTxHandler struct {
	logger cmtlog.Logger

	callerSet map[uint64]bool
}

func NewDepositTxHandler(logger cmtlog.Logger) (h *DepositTxHandler) {
	logger = logger.With("module", "depositTx")
	h = &DepositTxHandler{
		logger:    logger,
		callerSet: make(map[uint64]bool),
	}
	return
}

func (h *DepositTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	res = &types.ExecResult{Code: 0}
	wtx := btx.Tx.(*tx.DepositTx)
	_, err1 := st.Deposit(wtx.Amount, btx.Owner, true)
	if err1 != nil {
		h.logger.Info("CheckTx DepositTx fail", "err", err1)
		res = failResult(err1)
	}
	return
}

func (h *DepositTxHandler) NewContext(ctx context.Context) {
	h.callerSet = make(map[uint64]bool)
}

func (h *DepositTxHandler) Apply(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	if _, ok := h.callerSet[btx.Owner]; ok {
		return nil, state.ErrOneActionInOneWindow
	}
	wtx := btx.Tx.(*tx.DepositTx)
	event, err := st.Deposit(wtx.Amount, btx.Owner, false)
	if err != nil {
		return nil, err
	}
	h.callerSet[btx.Owner] = true
	res = &types.ExecResult{}
	if event != nil {
		res.Events = []types.Event{types.EncodeEventStakeChange(event)}
	}
	return
}

type WithdrawTxHandler struct {
	logger cmtlog.Logger

	callerSet map[uint64]bool
}

func NewWithdrawTxHandler(logger cmtlog.Logger) (h *WithdrawTxHandler) {
	logger = logger.With("module", "withdrawTx")
	h = &WithdrawTxHandler{
		logger:    logger,
		callerSet: make(map[uint64]bool),
	}
	return
}

func (h *WithdrawTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	res = &types.ExecResult{Code: 0}
	_, err1 := st.WithdrawExcess(btx.Owner, true)
	if err1 != nil {
		h.logger.Info("CheckTx WithdrawTx fail", "err", err1)
		res = failResult(err1)
	}
	return
}

func (h *WithdrawTxHandler) NewContext(ctx context.Context) {
	h.callerSet = make(map[uint64]bool)
}

func (h *WithdrawTxHandler) Apply(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	if _, ok := h.callerSet[btx.Owner]; ok {
		return nil, state.ErrOneActionInOneWindow
	}
	event, err := st.WithdrawExcess(btx.Owner, false)
	if err != nil {
		return nil, err
	}
	h.callerSet[btx.Owner] = true
	res = &types.ExecResult{}
	if event != nil {
		res.Events = []types.Event{types.EncodeEventStakeChange(event)}
	}
	return
}

type ExitTxHandler struct {
	logger cmtlog.Logger
}

func NewExitTxHandler(logger cmtlog.Logger) (h *ExitTxHandler) {
	logger = logger.With("module", "exitTx")
	h = &ExitTxHandler{
		logger: logger,
	}
	return
}

func (h *ExitTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	res = &types.ExecResult{Code: 0}
	_, err1 := st.VoluntaryExit(btx.Owner, true)
	if err1 != nil {
		h.logger.Info("CheckTx ExitTx fail", "err", err1)
		res = failResult(err1)
	}
	return
}

func (h *ExitTxHandler) NewContext(ctx context.Context) {}

func (h *ExitTxHandler) Apply(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	event, err := st.VoluntaryExit(btx.Owner, false)
	if err != nil {
		return nil, err
	}
	res = &types.ExecResult{}
	if event != nil {
		res.Events = []types.Event{types.EncodeEventStakeChange(event)}
	}
	return
}
