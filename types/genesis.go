package types

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/ethereum/go-ethereum/common"
)

// GenesisOwner seeds one owner account at height 0.
type GenesisOwner struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Stake   uint64         `json:"stake"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions of a stakegov ledger: the seed
// owner set and the governed values every topic controller starts from.
type GenesisDoc struct {
	GenesisTime    time.Time      `json:"genesis_time"`
	ChainID        string         `json:"chain_id"`
	RequiredStake  uint64         `json:"required_stake"`
	Implementation common.Address `json:"implementation"`
	Paused         bool           `json:"paused"`
	Owners         []GenesisOwner `json:"owners"`
}

// SaveAs is a utility method for saving GenesisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (genDoc *GenesisDoc) ValidateAndComplete() error {
	if genDoc.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if genDoc.RequiredStake == 0 {
		return errors.New("genesis doc must include non-zero required_stake")
	}

	for i, owner := range genDoc.Owners {
		if owner.PubKey == nil {
			return fmt.Errorf("genesis owner %v has no pub_key", i)
		}
		if owner.Stake < genDoc.RequiredStake {
			return fmt.Errorf("genesis owner %v stake %v below required %v", i, owner.Stake, genDoc.RequiredStake)
		}
		if len(owner.Address) == 0 {
			genDoc.Owners[i].Address = owner.PubKey.Address()
		}
	}

	if genDoc.GenesisTime.IsZero() {
		genDoc.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func GenesisDocFromFile(genFile string) (*GenesisDoc, error) {
	dat, err := os.ReadFile(genFile)
	if err != nil {
		return nil, err
	}
	genDoc := new(GenesisDoc)
	err = cmtjson.Unmarshal(dat, genDoc)
	if err != nil {
		return nil, err
	}
	if err := genDoc.ValidateAndComplete(); err != nil {
		return nil, err
	}
	return genDoc, nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}
