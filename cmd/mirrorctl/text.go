package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var textCmd = &cobra.Command{
	Use:   "text <markup>",
	Short: "Replace the mirror message",
	Long:  "Replaces the message on every connected mirror display. The argument is trusted markup and is rendered as-is.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		if err := client.UpdateText(ctx, strings.Join(args, " ")); err != nil {
			return err
		}
		fmt.Println("mirror text updated")
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the mirror to its welcome message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		if err := client.Reset(ctx); err != nil {
			return err
		}
		fmt.Println("mirror reset")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(resetCmd)
}
