// Package token holds the collaborator boundaries the governance core
// consumes: the fungible ledger that custodies stake and treasury funds, the
// collectible ledger used by treasury transfers, and the capability probe
// run against proposed implementation and whitelist targets.
package token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// ERC165InterfaceID is the default capability interface queried on proposed
// targets.
var ERC165InterfaceID = [4]byte{0x01, 0xff, 0xc9, 0xa7}

// Ledger is the fungible asset boundary. The handle is bound to the registry
// identity: Transfer spends the registry's own custody, TransferFrom pulls
// funds under an allowance granted to the registry.
type Ledger interface {
	BalanceOf(addr common.Address) (uint64, error)
	Transfer(to common.Address, amount uint64) error
	TransferFrom(from, to common.Address, amount uint64) error
	Allowance(owner, spender common.Address) (uint64, error)
}

// Collectibles is the non-fungible asset boundary, used only by the
// treasury-transfer settlement path.
type Collectibles interface {
	OwnerOf(id uint64) (common.Address, error)
	SafeTransferFrom(from, to common.Address, id uint64) error
}

// ProbeResult distinguishes a target that answered the capability query
// negatively (Declined) from one whose probe call failed outright (Err).
// Callers treat both as unsupported; observers should not.
type ProbeResult struct {
	Supported bool
	Declined  bool
	Err       error
}

// Probe answers whether a target has code and claims the given capability
// interface.
type Probe interface {
	SupportsInterface(ctx context.Context, addr common.Address, iface [4]byte) ProbeResult
}
