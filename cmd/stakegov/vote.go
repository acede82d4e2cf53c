package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

type voteArguments struct {
	Url    string
	Skey   string
	Topic  string
	No     bool
	NoSend bool
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote on the live round of a topic",
	Long:  ``,
	RunE:  voteRun,
}

func init() {
	urlFlag(voteCmd, &voteArgs.Url)
	skeyFlag(voteCmd, &voteArgs.Skey)
	voteCmd.Flags().StringVarP(&voteArgs.Topic, "topic", "t", "", "governance topic")
	voteCmd.Flags().BoolVar(&voteArgs.No, "no", false, "vote against instead of for")
	voteCmd.Flags().BoolVar(&voteArgs.NoSend, "nosend", false, "not send transaction but print signature")
}

func voteRun(cmd *cobra.Command, args []string) error {
	topic, err := types.ParseTopic(voteArgs.Topic)
	if err != nil {
		return fmt.Errorf("invalid topic:%w", err)
	}
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeVote,
		Tx:      &tx.VoteTx{Topic: topic, Approve: !voteArgs.No},
	}
	return signAndSend(voteArgs.Url, voteArgs.Skey, btx, voteArgs.NoSend)
}
