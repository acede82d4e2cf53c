package handler

import (
	"context"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

type OpenTxHandler struct {
	logger cmtlog.Logger

	callerSet map[uint64]bool
}

func NewOpenTxHandler(logger cmtlog.Logger) (h *OpenTxHandler) {
	logger = logger.With("module", "openTx")
	h = &OpenTxHandler{
		logger:    logger,
		callerSet: make(map[uint64]bool),
	}
	return
}

func (h *OpenTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	res = &types.ExecResult{Code: 0}
	wtx := btx.Tx.(*tx.OpenTx)
	_, _, err1 := st.OpenProposal(ctx, wtx.Topic, wtx.Value, btx.Owner, true)
	if err1 != nil {
		h.logger.Info("CheckTx OpenTx fail", "err", err1)
		res = failResult(err1)
	}
	return
}

func (h *OpenTxHandler) NewContext(ctx context.Context) {
	h.callerSet = make(map[uint64]bool)
}

func (h *OpenTxHandler) Apply(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	if _, ok := h.callerSet[btx.Owner]; ok {
		return nil, state.ErrOneActionInOneWindow
	}
	wtx := btx.Tx.(*tx.OpenTx)
	evOpen, evSettled, err := st.OpenProposal(ctx, wtx.Topic, wtx.Value, btx.Owner, false)
	if err != nil {
		return nil, err
	}
	h.callerSet[btx.Owner] = true
	res = &types.ExecResult{}
	if evOpen != nil {
		res.Events = append(res.Events, types.EncodeEventRoundOpened(evOpen))
	}
	if evSettled != nil {
		res.Events = append(res.Events, types.EncodeEventRoundSettled(evSettled))
	}
	return
}
