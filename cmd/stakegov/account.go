package main

import (
	"fmt"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type accountArguments struct {
	Url     string
	Address string
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show a ledger account",
	Long:  ``,
	RunE:  accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address")
}

func accountRun(cmd *cobra.Command, args []string) error {
	act, err := queryAccount(accountArgs.Url, accountArgs.Address)
	if err != nil {
		return err
	}
	pk := ed25519.PubKey(act.PubKey[:])
	fmt.Printf("index:%v nonce:%v pk:%v stake:%v owner:%v removing:%v name:%v addr:%v\n",
		act.Index, act.Nonce, common.Bytes2Hex(act.PubKey), act.Stake, act.Owner, act.Removing,
		act.Name, common.Bytes2Hex(pk.Address()[:]))
	return nil
}
