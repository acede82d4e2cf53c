package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type statusArguments struct {
	Url   string
	Topic string
}

var statusArgs statusArguments

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live round of a topic, or the governed values",
	Long:  ``,
	RunE:  statusRun,
}

func init() {
	urlFlag(statusCmd, &statusArgs.Url)
	statusCmd.Flags().StringVarP(&statusArgs.Topic, "topic", "t", "", "governance topic; blank prints the governed values")
}

func statusRun(cmd *cobra.Command, args []string) error {
	var out json.RawMessage
	var err error
	if statusArgs.Topic == "" {
		err = getJSON(statusArgs.Url+"/governance", &out)
	} else {
		err = getJSON(fmt.Sprintf("%s/status/%s", statusArgs.Url, statusArgs.Topic), &out)
	}
	if err != nil {
		return err
	}
	var pretty any
	if err := json.Unmarshal(out, &pretty); err != nil {
		return err
	}
	dat, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(dat))
	return nil
}
