package handler

import (
	"context"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

// CloseTxHandler reaps rounds that sat open past the voting window.
type CloseTxHandler struct {
	logger cmtlog.Logger
}

func NewCloseTxHandler(logger cmtlog.Logger) (h *CloseTxHandler) {
	logger = logger.With("module", "closeTx")
	h = &CloseTxHandler{
		logger: logger,
	}
	return
}

func (h *CloseTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	res = &types.ExecResult{Code: 0}
	wtx := btx.Tx.(*tx.CloseTx)
	_, err1 := st.CloseExpired(wtx.Topic, btx.Owner, true)
	if err1 != nil {
		h.logger.Info("CheckTx CloseTx fail", "err", err1)
		res = failResult(err1)
	}
	return
}

func (h *CloseTxHandler) NewContext(ctx context.Context) {}

func (h *CloseTxHandler) Apply(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	wtx := btx.Tx.(*tx.CloseTx)
	evSettled, err := st.CloseExpired(wtx.Topic, btx.Owner, false)
	if err != nil {
		return nil, err
	}
	res = &types.ExecResult{}
	if evSettled != nil {
		res.Events = append(res.Events, types.EncodeEventRoundSettled(evSettled))
	}
	return
}
