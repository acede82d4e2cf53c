package engine

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/types"
)

// Read-side accessors over committed state. All return the height the
// answer was taken at.

func (e *Engine) Header() *state.Header {
	return e.db.Header()
}

func (e *Engine) AccountByIndex(idx uint64) (*state.Account, uint64, error) {
	return e.db.GetAccountByIndex(idx)
}

func (e *Engine) AccountByAddress(addr []byte) (*state.Account, uint64, error) {
	return e.db.GetAccountByAddress(addr)
}

func (e *Engine) Governance() (state.Governed, uint64) {
	return e.db.Governance()
}

func (e *Engine) Round(topic types.Topic) (*types.VoteRound, uint64, error) {
	return e.db.Round(topic)
}

func (e *Engine) Whitelisted(addr common.Address) (bool, uint64, error) {
	return e.db.WhitelistStatus(addr)
}

func (e *Engine) TopOwners(max int) ([]*state.Account, uint64, error) {
	return e.db.TopOwners(max)
}
