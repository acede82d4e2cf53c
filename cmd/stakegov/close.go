package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

type closeArguments struct {
	Url    string
	Skey   string
	Topic  string
	NoSend bool
}

var closeArgs closeArguments

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Force-close a round older than the voting window",
	Long:  ``,
	RunE:  closeRun,
}

func init() {
	urlFlag(closeCmd, &closeArgs.Url)
	skeyFlag(closeCmd, &closeArgs.Skey)
	closeCmd.Flags().StringVarP(&closeArgs.Topic, "topic", "t", "", "governance topic")
	closeCmd.Flags().BoolVar(&closeArgs.NoSend, "nosend", false, "not send transaction but print signature")
}

func closeRun(cmd *cobra.Command, args []string) error {
	topic, err := types.ParseTopic(closeArgs.Topic)
	if err != nil {
		return fmt.Errorf("invalid topic:%w", err)
	}
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeClose,
		Tx:      &tx.CloseTx{Topic: topic},
	}
	return signAndSend(closeArgs.Url, closeArgs.Skey, btx, closeArgs.NoSend)
}
