package state

import (
	"encoding/json"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Account is one owner (or owner candidate) on the ledger. An account is
// never physically deleted; removal settles by clearing Owner and setting
// Blacklisted.
type Account struct {
	Index         uint64
	PubKey        []byte
	Stake         uint64
	Nonce         uint64
	Owner         bool
	Removing      bool
	Blacklisted   bool
	LastAdmission uint64
	Name          string
}

// Eligible reports whether the account carries voting weight against the
// given stake requirement. Computed on read; the only cached override is
// the mid-removal suspension.
func (a *Account) Eligible(requiredStake uint64) bool {
	return a.Owner && !a.Removing && !a.Blacklisted && a.Stake >= requiredStake
}

type accountSt struct {
	Index         uint64         `json:"index"`
	Address       string         `json:"address"`
	PubKey        ed25519.PubKey `json:"pubKey"`
	Stake         uint64         `json:"stake"`
	Nonce         uint64         `json:"nonce"`
	Owner         bool           `json:"owner"`
	Removing      bool           `json:"removing"`
	Blacklisted   bool           `json:"blacklisted"`
	LastAdmission uint64         `json:"lastAdmission"`
	Name          string         `json:"name"`
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Index:         a.Index,
		Address:       a.Address(),
		PubKey:        a.PubKey,
		Stake:         a.Stake,
		Nonce:         a.Nonce,
		Owner:         a.Owner,
		Removing:      a.Removing,
		Blacklisted:   a.Blacklisted,
		LastAdmission: a.LastAdmission,
		Name:          a.Name,
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) (err error) {
	var o accountSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	a.Index = o.Index
	a.PubKey = o.PubKey
	a.Stake = o.Stake
	a.Nonce = o.Nonce
	a.Owner = o.Owner
	a.Removing = o.Removing
	a.Blacklisted = o.Blacklisted
	a.LastAdmission = o.LastAdmission
	a.Name = o.Name
	return
}

// EncodeRLP-compatible body encoding used for tree storage.
func (a *Account) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

func DecodeAccount(dat []byte) (*Account, error) {
	a := new(Account)
	if err := rlp.DecodeBytes(dat, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Account) Clone() *Account {
	n := *a
	n.PubKey = make([]byte, len(a.PubKey))
	copy(n.PubKey, a.PubKey)
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	if a.PubKey == nil {
		a.PubKey = make([]byte, len(pkey))
	}
	copy(a.PubKey, pkey)
}

func (a *Account) AddrBytes() []byte {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address()[:]
}

func (a *Account) Address() string {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address().String()
}

// ExternalAddress is the account's custody identity on the external
// fungible ledger.
func (a *Account) ExternalAddress() common.Address {
	return common.BytesToAddress(a.AddrBytes())
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}
