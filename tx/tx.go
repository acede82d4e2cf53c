package tx

import (
	"encoding/json"

	"github.com/quorumlab/stakegov/types"
)

// GovTx is the signed envelope around every governance transaction. Owner
// is the caller's account index; Sig holds exactly one ed25519 signature
// over SigData with the chain id substituted into the signature slot.
type GovTx struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Owner   uint64    `json:"owner"`
	Tx      any       `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

// OpenTx opens a round for the topic with the proposed value. The opener's
// implicit yes vote is cast in the same transition.
type OpenTx struct {
	Topic types.Topic         `json:"topic"`
	Value types.ProposalValue `json:"value"`
}

type VoteTx struct {
	Topic   types.Topic `json:"topic"`
	Approve bool        `json:"approve"`
}

// CloseTx force-closes a round that has sat open past the expiry window.
type CloseTx struct {
	Topic types.Topic `json:"topic"`
}

type DepositTx struct {
	Amount uint64 `json:"amount"`
}

type WithdrawTx struct{}

type ExitTx struct{}

// AdmissionTx is the only transaction a non-owner may submit; its signature
// verifies against the carried pubkey when no account exists yet.
type AdmissionTx struct {
	Pubkey []byte `json:"pubkey"`
	Name   string `json:"name"`
}

type govTxTmpl[Tx any] struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Owner   uint64    `json:"owner"`
	Tx      Tx        `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

func (tx *GovTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseGovTxType(dat []byte) GovTxType {
	var tx struct {
		Type GovTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return GovTxTypeUnknown
	}
	return tx.Type
}

func unmarshalGovTx[Tx any](dat []byte) (btx *GovTx, err error) {
	var txt govTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	btx = new(GovTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Owner = txt.Owner
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalGovTx(dat []byte) (btx *GovTx, err error) {
	tp := parseGovTxType(dat)
	switch tp {
	case GovTxTypeOpen:
		return unmarshalGovTx[OpenTx](dat)
	case GovTxTypeVote:
		return unmarshalGovTx[VoteTx](dat)
	case GovTxTypeClose:
		return unmarshalGovTx[CloseTx](dat)
	case GovTxTypeDeposit:
		return unmarshalGovTx[DepositTx](dat)
	case GovTxTypeWithdraw:
		return unmarshalGovTx[WithdrawTx](dat)
	case GovTxTypeExit:
		return unmarshalGovTx[ExitTx](dat)
	case GovTxTypeAdmission:
		return unmarshalGovTx[AdmissionTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalGovTx(btx *GovTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
