package token

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const supportsInterfaceABI = `[{"inputs":[{"internalType":"bytes4","name":"interfaceId","type":"bytes4"}],"name":"supportsInterface","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"}]`

// EthProbe runs capability probes against a live EVM endpoint: nonzero code
// size plus an affirmative supportsInterface answer.
type EthProbe struct {
	logger cmtlog.Logger
	cli    *ethclient.Client
	abi    abi.ABI
}

var _ Probe = (*EthProbe)(nil)

func NewEthProbe(rpcURL string, logger cmtlog.Logger) (*EthProbe, error) {
	logger = logger.With("module", "probe")
	cli, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}
	parsed, err := abi.JSON(strings.NewReader(supportsInterfaceABI))
	if err != nil {
		return nil, err
	}
	return &EthProbe{
		logger: logger,
		cli:    cli,
		abi:    parsed,
	}, nil
}

func (p *EthProbe) SupportsInterface(ctx context.Context, addr common.Address, iface [4]byte) (res ProbeResult) {
	code, err := p.cli.CodeAt(ctx, addr, nil)
	if err != nil {
		p.logger.Error("probe code lookup fail", "addr", addr, "err", err)
		res.Err = err
		return
	}
	if len(code) == 0 {
		p.logger.Info("probe target has no code", "addr", addr)
		res.Declined = true
		return
	}

	input, err := p.abi.Pack("supportsInterface", iface)
	if err != nil {
		res.Err = err
		return
	}
	out, err := p.cli.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: input}, nil)
	if err != nil {
		// A revert means the target does not speak the capability dialect at
		// all; surface it as a failed call, not an explicit decline.
		p.logger.Info("probe call fail", "addr", addr, "err", err)
		res.Err = err
		return
	}

	var supported bool
	if err = p.abi.UnpackIntoInterface(&supported, "supportsInterface", out); err != nil {
		res.Err = err
		return
	}
	if supported {
		res.Supported = true
	} else {
		p.logger.Info("probe target declined interface", "addr", addr, "iface", iface)
		res.Declined = true
	}
	return
}
