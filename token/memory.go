package token

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrUnknownToken          = errors.New("unknown token")
)

// MemoryLedger is an in-process fungible ledger bound to a registry
// identity. It backs tests and local single-node deployments.
type MemoryLedger struct {
	mtx        sync.Mutex
	self       common.Address
	balances   map[common.Address]uint64
	allowances map[common.Address]map[common.Address]uint64
}

var _ Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger(self common.Address) *MemoryLedger {
	return &MemoryLedger{
		self:       self,
		balances:   make(map[common.Address]uint64),
		allowances: make(map[common.Address]map[common.Address]uint64),
	}
}

// Mint credits a balance out of thin air. Test and genesis seeding only.
func (l *MemoryLedger) Mint(addr common.Address, amount uint64) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.balances[addr] += amount
}

// Approve grants spender an allowance over owner's funds.
func (l *MemoryLedger) Approve(owner, spender common.Address, amount uint64) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[common.Address]uint64)
		l.allowances[owner] = m
	}
	m[spender] = amount
}

func (l *MemoryLedger) BalanceOf(addr common.Address) (uint64, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.balances[addr], nil
}

func (l *MemoryLedger) Transfer(to common.Address, amount uint64) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.move(l.self, to, amount)
}

func (l *MemoryLedger) TransferFrom(from, to common.Address, amount uint64) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	allowed := l.allowances[from][l.self]
	if allowed < amount {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][l.self] = allowed - amount
	return nil
}

func (l *MemoryLedger) Allowance(owner, spender common.Address) (uint64, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.allowances[owner][spender], nil
}

func (l *MemoryLedger) move(from, to common.Address, amount uint64) error {
	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// MemoryCollectibles is the in-process non-fungible counterpart.
type MemoryCollectibles struct {
	mtx    sync.Mutex
	owners map[uint64]common.Address
}

var _ Collectibles = (*MemoryCollectibles)(nil)

func NewMemoryCollectibles() *MemoryCollectibles {
	return &MemoryCollectibles{owners: make(map[uint64]common.Address)}
}

func (c *MemoryCollectibles) MintNFT(to common.Address, id uint64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.owners[id] = to
}

func (c *MemoryCollectibles) OwnerOf(id uint64) (common.Address, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	owner, ok := c.owners[id]
	if !ok {
		return common.Address{}, ErrUnknownToken
	}
	return owner, nil
}

func (c *MemoryCollectibles) SafeTransferFrom(from, to common.Address, id uint64) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	owner, ok := c.owners[id]
	if !ok {
		return ErrUnknownToken
	}
	if owner != from {
		return errors.New("transfer from wrong owner")
	}
	c.owners[id] = to
	return nil
}

// MemoryProbe answers capability queries from a fixed table. Addresses in
// failing report a call failure rather than a negative answer.
type MemoryProbe struct {
	mtx     sync.Mutex
	code    map[common.Address]bool
	ifaces  map[common.Address]map[[4]byte]bool
	failing map[common.Address]error
}

var _ Probe = (*MemoryProbe)(nil)

func NewMemoryProbe() *MemoryProbe {
	return &MemoryProbe{
		code:    make(map[common.Address]bool),
		ifaces:  make(map[common.Address]map[[4]byte]bool),
		failing: make(map[common.Address]error),
	}
}

func (p *MemoryProbe) SetContract(addr common.Address, ifaces ...[4]byte) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.code[addr] = true
	m := make(map[[4]byte]bool)
	for _, iface := range ifaces {
		m[iface] = true
	}
	p.ifaces[addr] = m
}

func (p *MemoryProbe) SetFailing(addr common.Address, err error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.failing[addr] = err
}

func (p *MemoryProbe) SupportsInterface(ctx context.Context, addr common.Address, iface [4]byte) ProbeResult {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err, ok := p.failing[addr]; ok {
		return ProbeResult{Err: err}
	}
	if !p.code[addr] {
		return ProbeResult{Declined: true}
	}
	if p.ifaces[addr][iface] {
		return ProbeResult{Supported: true}
	}
	return ProbeResult{Declined: true}
}
