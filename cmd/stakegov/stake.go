package main

import (
	"github.com/spf13/cobra"

	"github.com/quorumlab/stakegov/tx"
)

type depositArguments struct {
	Url    string
	Skey   string
	Amount uint64
	NoSend bool
}

var depositArgs depositArguments

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Lock collateral from the external balance into registry custody",
	Long:  ``,
	RunE:  depositRun,
}

func init() {
	urlFlag(depositCmd, &depositArgs.Url)
	skeyFlag(depositCmd, &depositArgs.Skey)
	depositCmd.Flags().Uint64VarP(&depositArgs.Amount, "amount", "a", 0, "amount to lock")
	depositCmd.Flags().BoolVar(&depositArgs.NoSend, "nosend", false, "not send transaction but print signature")
}

func depositRun(cmd *cobra.Command, args []string) error {
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeDeposit,
		Tx:      &tx.DepositTx{Amount: depositArgs.Amount},
	}
	return signAndSend(depositArgs.Url, depositArgs.Skey, btx, depositArgs.NoSend)
}

type withdrawArguments struct {
	Url    string
	Skey   string
	NoSend bool
}

var withdrawArgs withdrawArguments

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Return locked balance above the required stake",
	Long:  ``,
	RunE:  withdrawRun,
}

func init() {
	urlFlag(withdrawCmd, &withdrawArgs.Url)
	skeyFlag(withdrawCmd, &withdrawArgs.Skey)
	withdrawCmd.Flags().BoolVar(&withdrawArgs.NoSend, "nosend", false, "not send transaction but print signature")
}

func withdrawRun(cmd *cobra.Command, args []string) error {
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeWithdraw,
		Tx:      &tx.WithdrawTx{},
	}
	return signAndSend(withdrawArgs.Url, withdrawArgs.Skey, btx, withdrawArgs.NoSend)
}

type exitArguments struct {
	Url    string
	Skey   string
	NoSend bool
}

var exitArgs exitArguments

var exitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Forfeit owner status and recover the full locked balance",
	Long:  ``,
	RunE:  exitRun,
}

func init() {
	urlFlag(exitCmd, &exitArgs.Url)
	skeyFlag(exitCmd, &exitArgs.Skey)
	exitCmd.Flags().BoolVar(&exitArgs.NoSend, "nosend", false, "not send transaction but print signature")
}

func exitRun(cmd *cobra.Command, args []string) error {
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeExit,
		Tx:      &tx.ExitTx{},
	}
	return signAndSend(exitArgs.Url, exitArgs.Skey, btx, exitArgs.NoSend)
}
