package indexer

// sqlite models

type Round struct {
	Id            uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic         string `json:"topic"`
	Opener        uint64 `json:"opener_index"`
	OpenerAddress string `json:"opener_address"`
	OpenedAt      int64  `json:"opened_at"`
	OpenHeight    uint64 `json:"open_height"`
	Outcome       string `json:"outcome"`
	SettleHeight  uint64 `json:"settle_height"`
	Yes           uint64 `json:"yes"`
	No            uint64 `json:"no"`
	Reward        uint64 `json:"reward"`
	Closer        uint64 `json:"closer_index"`
}

type VoteRecord struct {
	Id           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Round        uint64 `json:"round"`
	Topic        string `json:"topic"`
	VoterIndex   uint64 `json:"voter_index"`
	VoterAddress string `json:"voter_address"`
	Approve      bool   `json:"approve"`
	Height       uint64 `json:"height"`
}

type OwnerProfile struct {
	Id      uint64 `gorm:"primaryKey" json:"id"`
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Name    string `json:"name"`
	Height  uint64 `json:"height"`
}

type StakeEvent struct {
	Id      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind    string `json:"kind"`
	Owner   uint64 `json:"owner_index"`
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
	Height  uint64 `json:"height"`
}
