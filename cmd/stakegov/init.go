package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quorumlab/stakegov/config"
	"github.com/quorumlab/stakegov/crypto"
	"github.com/quorumlab/stakegov/types"

	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmtos "github.com/cometbft/cometbft/libs/os"
	"github.com/cometbft/cometbft/privval"
)

type initArguments struct {
	Home          string
	ChainID       string
	RequiredStake uint64
	Stake         uint64
	Name          string
	Overwrite     bool
}

var initArgs initArguments

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize signing key, genesis, and configuration files",
	Long:  `Initialize the home directory: signing key, genesis document with this key as the first owner, and config.toml.`,
	Args:  cobra.ExactArgs(0),
	RunE:  initRun,
}

func init() {
	initCmd.Flags().StringVarP(&initArgs.Home, "homedir", "d", "", "home directory")
	initCmd.Flags().StringVar(&initArgs.ChainID, "chain-id", "", "genesis chain-id, randomly created if blank")
	initCmd.Flags().Uint64Var(&initArgs.RequiredStake, "required-stake", 1000000, "required stake for voting eligibility")
	initCmd.Flags().Uint64Var(&initArgs.Stake, "stake", 1000000, "genesis stake of the local owner")
	initCmd.Flags().StringVar(&initArgs.Name, "name", "", "display name of the local owner")
	initCmd.Flags().BoolVarP(&initArgs.Overwrite, "overwrite", "o", false, "overwrite existing genesis.json")
}

func initRun(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig(initArgs.Home)

	chainID := initArgs.ChainID
	if chainID == "" {
		chainID = fmt.Sprintf("stakegov-%v", rand.Uint64())
	}
	cfg.ChainID = chainID

	pv, err := crypto.GenFilePV(cfg.PrivKeyFile())
	if err != nil {
		return err
	}

	genFile := cfg.GenesisFile()
	if cmtos.FileExists(genFile) && !initArgs.Overwrite {
		return fmt.Errorf("genesis file already exists: %v", genFile)
	}

	keyJSONBytes, err := os.ReadFile(cfg.PrivKeyFile())
	if err != nil {
		return err
	}
	pvKey := privval.FilePVKey{}
	if err := cmtjson.Unmarshal(keyJSONBytes, &pvKey); err != nil {
		return err
	}

	doc := &types.GenesisDoc{
		GenesisTime:   time.Now(),
		ChainID:       chainID,
		RequiredStake: initArgs.RequiredStake,
		Owners: []types.GenesisOwner{{
			Address: pvKey.Address,
			PubKey:  pvKey.PubKey,
			Stake:   initArgs.Stake,
			Name:    initArgs.Name,
		}},
	}
	if err := types.ExportGenesisFile(doc, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file %v", err)
	}
	config.WriteConfigFile(cfg.ConfigFile(), cfg)

	info := struct {
		ChainID string `json:"chain_id"`
		Address string `json:"address"`
		Home    string `json:"home"`
	}{
		ChainID: chainID,
		Address: pv.Address(),
		Home:    cfg.Home,
	}
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)
	return err
}
