package handler

import (
	"context"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

type VoteTxHandler struct {
	logger cmtlog.Logger
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	logger = logger.With("module", "voteTx")
	h = &VoteTxHandler{
		logger: logger,
	}
	return
}

func (h *VoteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	res = &types.ExecResult{Code: 0}
	wtx := btx.Tx.(*tx.VoteTx)
	_, _, err1 := st.CastVote(ctx, wtx.Topic, wtx.Approve, btx.Owner, true)
	if err1 != nil {
		h.logger.Info("CheckTx VoteTx fail", "err", err1)
		res = failResult(err1)
	}
	return
}

func (h *VoteTxHandler) NewContext(ctx context.Context) {}

func (h *VoteTxHandler) Apply(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	wtx := btx.Tx.(*tx.VoteTx)
	evVote, evSettled, err := st.CastVote(ctx, wtx.Topic, wtx.Approve, btx.Owner, false)
	if err != nil {
		return nil, err
	}
	res = &types.ExecResult{}
	if evVote != nil {
		res.Events = append(res.Events, types.EncodeEventVote(evVote))
	}
	if evSettled != nil {
		res.Events = append(res.Events, types.EncodeEventRoundSettled(evSettled))
	}
	return
}
