package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quorumlab/stakegov/config"
	"github.com/quorumlab/stakegov/engine"
	"github.com/quorumlab/stakegov/indexer"
	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/token"
	"github.com/quorumlab/stakegov/types"
)

var homeDir string

var clCmd = &cobra.Command{
	Use:   "stakegov",
	Short: "Stake-weighted governance registry",
	Long:  `A governance-weighted ledger: owner accounts stake collateral for voting rights over privileged transitions.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	clCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func run(cmd *cobra.Command, args []string) {
	cfg := config.DefaultConfig(homeDir)

	viper.SetConfigFile(cfg.ConfigFile())
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Reading config: %v", err)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		log.Fatalf("Decoding config: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	if level, err := cmtlog.AllowLevel(cfg.Log.Level); err == nil {
		logger = cmtlog.NewFilter(logger, level)
	}

	collab, err := buildCollaborators(cfg, logger)
	if err != nil {
		log.Fatalf("wire collaborators: %v", err)
	}

	gov, err := engine.New(cfg, logger, collab)
	if err != nil {
		log.Fatalf("new engine: %v", err)
	}

	doc, err := types.GenesisDocFromFile(cfg.GenesisFile())
	if err != nil {
		log.Fatalf("read genesis: %v", err)
	}
	if err := gov.InitChain(doc); err != nil {
		log.Fatalf("init chain: %v", err)
	}

	idx, err := indexer.NewIndexer(logger, cfg.IndexerDB)
	if err != nil {
		log.Fatalf("new indexer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go idx.Run(ctx, gov.Events())

	svc := indexer.NewService(cfg.ListenAddr, idx, gov)
	go func() {
		if err := svc.Start(); err != nil {
			log.Fatalf("http service: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("shutting down...")
	cancel()
	gov.Stop()
	if err := idx.Close(); err != nil {
		log.Printf("close indexer: %v", err)
	}
}

// buildCollaborators wires the external-ledger boundaries. With an EVM RPC
// configured, capability probes go against live contract code; otherwise
// everything runs on the in-memory table for local operation.
func buildCollaborators(cfg *config.Config, logger cmtlog.Logger) (state.Collaborators, error) {
	treasury := common.HexToAddress(cfg.TreasuryAddr)
	ledger := token.NewMemoryLedger(treasury)
	collectibles := token.NewMemoryCollectibles()

	var probe token.Probe
	if cfg.EthRPC != "" {
		p, err := token.NewEthProbe(cfg.EthRPC, logger)
		if err != nil {
			return state.Collaborators{}, err
		}
		probe = p
	} else {
		probe = token.NewMemoryProbe()
	}

	return state.Collaborators{
		Tokens:       ledger,
		Collectibles: collectibles,
		Probe:        probe,
		Treasury:     treasury,
	}, nil
}
