package token

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	self  = common.HexToAddress("0x0000000000000000000000000000000000000100")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestMemoryLedgerTransferFrom(t *testing.T) {
	l := NewMemoryLedger(self)
	l.Mint(alice, 100)

	_, err := l.BalanceOf(bob)
	require.NoError(t, err)

	err = l.TransferFrom(alice, self, 50)
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	l.Approve(alice, self, 60)
	err = l.TransferFrom(alice, self, 50)
	require.NoError(t, err)

	bal, err := l.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(50), bal)
	bal, err = l.BalanceOf(self)
	require.NoError(t, err)
	require.Equal(t, uint64(50), bal)

	allowed, err := l.Allowance(alice, self)
	require.NoError(t, err)
	require.Equal(t, uint64(10), allowed)

	err = l.TransferFrom(alice, self, 60)
	require.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestMemoryLedgerTransfer(t *testing.T) {
	l := NewMemoryLedger(self)
	l.Mint(self, 30)

	err := l.Transfer(bob, 40)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	err = l.Transfer(bob, 30)
	require.NoError(t, err)
	bal, _ := l.BalanceOf(bob)
	require.Equal(t, uint64(30), bal)
}

func TestMemoryCollectibles(t *testing.T) {
	c := NewMemoryCollectibles()

	_, err := c.OwnerOf(7)
	require.Error(t, err)

	c.MintNFT(self, 7)
	owner, err := c.OwnerOf(7)
	require.NoError(t, err)
	require.Equal(t, self, owner)

	err = c.SafeTransferFrom(alice, bob, 7)
	require.Error(t, err)

	err = c.SafeTransferFrom(self, bob, 7)
	require.NoError(t, err)
	owner, err = c.OwnerOf(7)
	require.NoError(t, err)
	require.Equal(t, bob, owner)
}

func TestMemoryProbe(t *testing.T) {
	p := NewMemoryProbe()
	ctx := context.Background()

	// unknown address has no code behind it
	res := p.SupportsInterface(ctx, alice, ERC165InterfaceID)
	require.False(t, res.Supported)
	require.True(t, res.Declined)
	require.NoError(t, res.Err)

	p.SetContract(alice, ERC165InterfaceID)
	res = p.SupportsInterface(ctx, alice, ERC165InterfaceID)
	require.True(t, res.Supported)

	res = p.SupportsInterface(ctx, alice, [4]byte{0xff, 0xff, 0xff, 0xff})
	require.False(t, res.Supported)
	require.True(t, res.Declined)

	boom := errors.New("rpc down")
	p.SetFailing(bob, boom)
	res = p.SupportsInterface(ctx, bob, ERC165InterfaceID)
	require.False(t, res.Supported)
	require.ErrorIs(t, res.Err, boom)
}
