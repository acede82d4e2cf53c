package handler

import (
	"context"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

// AdmissionTxHandler handles the one transaction type open to non-owners.
type AdmissionTxHandler struct {
	logger cmtlog.Logger
}

func NewAdmissionTxHandler(logger cmtlog.Logger) (h *AdmissionTxHandler) {
	logger = logger.With("module", "admissionTx")
	h = &AdmissionTxHandler{
		logger: logger,
	}
	return
}

func (h *AdmissionTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	res = &types.ExecResult{Code: 0}
	wtx := btx.Tx.(*tx.AdmissionTx)
	_, err1 := st.RequestAdmission(wtx.Pubkey, wtx.Name, true)
	if err1 != nil {
		h.logger.Info("CheckTx AdmissionTx fail", "err", err1)
		res = failResult(err1)
	}
	return
}

func (h *AdmissionTxHandler) NewContext(ctx context.Context) {}

func (h *AdmissionTxHandler) Apply(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error) {
	wtx := btx.Tx.(*tx.AdmissionTx)
	event, err := st.RequestAdmission(wtx.Pubkey, wtx.Name, false)
	if err != nil {
		return nil, err
	}
	res = &types.ExecResult{}
	if event != nil {
		res.Events = []types.Event{types.EncodeEventStakeChange(event)}
	}
	return
}
