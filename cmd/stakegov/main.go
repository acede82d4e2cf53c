package main

import (
	"fmt"
	"os"
)

func main() {
	clCmd.AddCommand(initCmd)
	clCmd.AddCommand(accountCmd)
	clCmd.AddCommand(openCmd)
	clCmd.AddCommand(voteCmd)
	clCmd.AddCommand(closeCmd)
	clCmd.AddCommand(depositCmd)
	clCmd.AddCommand(withdrawCmd)
	clCmd.AddCommand(exitCmd)
	clCmd.AddCommand(admissionCmd)
	clCmd.AddCommand(statusCmd)
	clCmd.AddCommand(pubkeyCmd)
	clCmd.AddCommand(versionCmd)
	if err := clCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
