package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	command := NewProductProcessorCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewProductProcessorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "productprocessor",
		Short: "productprocessor turns versioned product messages into order items",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(NewCmdServe())
	cmd.AddCommand(NewCmdSend())
	return cmd
}
