package handler

import (
	"context"

	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

// TxHandler applies one transaction type. NewContext resets any per-window
// bookkeeping such as the one-action-per-caller guard.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error)
	NewContext(ctx context.Context)
	Apply(ctx context.Context, st *state.State, btx *tx.GovTx) (res *types.ExecResult, err error)
}

func failResult(err error) *types.ExecResult {
	return &types.ExecResult{Code: 1, Log: err.Error()}
}
