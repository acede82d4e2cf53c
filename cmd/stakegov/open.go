package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

type openArguments struct {
	Url     string
	Skey    string
	Topic   string
	Address string
	Target  string
	Amount  uint64
	Flag    bool
	Nft     bool
	TokenID uint64
	NoSend  bool
}

var openArgs openArguments

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a voting round on a governance topic",
	Long: `Open a voting round. The opener's yes vote is cast in the same
transition, so a sufficiently weighted owner settles immediately.`,
	RunE: openRun,
}

func init() {
	urlFlag(openCmd, &openArgs.Url)
	skeyFlag(openCmd, &openArgs.Skey)
	openCmd.Flags().StringVarP(&openArgs.Topic, "topic", "t", "", "topic: implementation, required_stake, admission, removal, pause, treasury, whitelist")
	openCmd.Flags().StringVarP(&openArgs.Address, "address", "a", "", "external address carried by the proposal (implementation, treasury recipient, whitelist target)")
	openCmd.Flags().StringVar(&openArgs.Target, "target", "", "ledger account address targeted by admission or removal")
	openCmd.Flags().Uint64Var(&openArgs.Amount, "amount", 0, "amount carried by the proposal (required stake, treasury payout)")
	openCmd.Flags().BoolVar(&openArgs.Flag, "flag", false, "boolean carried by the pause proposal")
	openCmd.Flags().BoolVar(&openArgs.Nft, "nft", false, "treasury proposal moves a collectible instead of fungible tokens")
	openCmd.Flags().Uint64Var(&openArgs.TokenID, "token-id", 0, "collectible id for an nft treasury proposal")
	openCmd.Flags().BoolVar(&openArgs.NoSend, "nosend", false, "not send transaction but print signature")
}

func openRun(cmd *cobra.Command, args []string) error {
	topic, err := types.ParseTopic(openArgs.Topic)
	if err != nil {
		return fmt.Errorf("invalid topic:%w", err)
	}
	value := types.ProposalValue{
		Target:  openArgs.Target,
		Amount:  openArgs.Amount,
		Flag:    openArgs.Flag,
		TokenID: openArgs.TokenID,
	}
	if openArgs.Address != "" {
		value.Address = common.HexToAddress(openArgs.Address)
	}
	if openArgs.Nft {
		value.Kind = types.AssetNFT
	}
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeOpen,
		Tx:      &tx.OpenTx{Topic: topic, Value: value},
	}
	return signAndSend(openArgs.Url, openArgs.Skey, btx, openArgs.NoSend)
}
