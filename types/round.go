package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// AssetKind selects which treasury leg a transfer settlement uses.
type AssetKind uint8

const (
	AssetFungible AssetKind = 0
	AssetNFT      AssetKind = 1
)

// ProposalValue is the proposed value attached to an open round. Which
// fields are meaningful depends on the topic:
//
//	implementation  Address (delegate target)
//	required_stake  Amount
//	admission       Target (candidate account address)
//	removal         Target (owner account address)
//	pause           Flag
//	treasury        Address (recipient), Amount or TokenID per Kind
//	whitelist       Address (contract to toggle)
type ProposalValue struct {
	Address common.Address `json:"address,omitempty"`
	Target  string         `json:"target,omitempty"`
	Amount  uint64         `json:"amount,omitempty"`
	Flag    bool           `json:"flag,omitempty"`
	Kind    AssetKind      `json:"kind,omitempty"`
	TokenID uint64         `json:"tokenId,omitempty"`
}

// VoteRound is the atomic state of one open decision. OpenedAt == 0 is the
// sentinel for "no round open"; yes and no voter lists are disjoint.
type VoteRound struct {
	Topic    Topic         `json:"topic"`
	Value    ProposalValue `json:"value"`
	Opener   uint64        `json:"opener"`
	OpenedAt int64         `json:"openedAt"`
	Yes      []uint64      `json:"yes"`
	No       []uint64      `json:"no"`
}

func (r *VoteRound) Open() bool {
	return r != nil && r.OpenedAt != 0
}

// Voted reports whether the account already appears in either set.
func (r *VoteRound) Voted(idx uint64) bool {
	for _, v := range r.Yes {
		if v == idx {
			return true
		}
	}
	for _, v := range r.No {
		if v == idx {
			return true
		}
	}
	return false
}

// Participants returns both voter lists as one slice, yes voters first.
func (r *VoteRound) Participants() []uint64 {
	out := make([]uint64, 0, len(r.Yes)+len(r.No))
	out = append(out, r.Yes...)
	out = append(out, r.No...)
	return out
}
