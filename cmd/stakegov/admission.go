package main

import (
	"github.com/spf13/cobra"

	"github.com/quorumlab/stakegov/crypto"
	"github.com/quorumlab/stakegov/tx"
)

type admissionArguments struct {
	Url    string
	Skey   string
	Name   string
	NoSend bool
}

var admissionArgs admissionArguments

var admissionCmd = &cobra.Command{
	Use:   "admission",
	Short: "Stake the required amount and request owner admission",
	Long: `Request admission as an owner. Stakes the required amount from the
key's external balance and marks it the pending candidate; an existing
owner must then open an admission round on it.`,
	RunE: admissionRun,
}

func init() {
	urlFlag(admissionCmd, &admissionArgs.Url)
	skeyFlag(admissionCmd, &admissionArgs.Skey)
	admissionCmd.Flags().StringVar(&admissionArgs.Name, "name", "", "display name")
	admissionCmd.Flags().BoolVar(&admissionArgs.NoSend, "nosend", false, "not send transaction but print signature")
}

func admissionRun(cmd *cobra.Command, args []string) error {
	pv := crypto.LoadFilePV(admissionArgs.Skey)
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeAdmission,
		Tx:      &tx.AdmissionTx{Pubkey: pv.PublicKey(), Name: admissionArgs.Name},
	}
	// A prior discarded request leaves an account behind; its nonce must be
	// carried or the envelope is rejected.
	if act, err := queryAccount(admissionArgs.Url, pv.Address()); err == nil {
		btx.Nonce = act.Nonce
	}
	return signAndSend(admissionArgs.Url, admissionArgs.Skey, btx, admissionArgs.NoSend)
}
