package tx

import (
	"errors"
)

type GovTxType uint8

const (
	GovTxTypeUnknown   GovTxType = 0
	GovTxTypeOpen      GovTxType = 1
	GovTxTypeVote      GovTxType = 2
	GovTxTypeClose     GovTxType = 3
	GovTxTypeDeposit   GovTxType = 4
	GovTxTypeWithdraw  GovTxType = 5
	GovTxTypeExit      GovTxType = 6
	GovTxTypeAdmission GovTxType = 7
)

const (
	GovTxVersion0 uint8 = 0
	GovTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx         = errors.New("invalid tx")
	ErrUnsupportedTxType = errors.New("unsupported tx type")
	ErrUnmatchedTxType   = errors.New("unmatched tx type")

	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
