package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var guestsCmd = &cobra.Command{
	Use:   "guests",
	Short: "List wedding guests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		guests, err := client.Guests(ctx)
		if err != nil {
			return err
		}
		if len(guests) == 0 {
			fmt.Println("no guests")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Relation", "Seat", "Phone"})
		for _, g := range guests {
			t.AppendRow(table.Row{g.ID, g.FullName, g.RelationType, g.SeatNumber, g.Phone})
		}
		t.Render()
		return nil
	},
}

var guestsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a guest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid guest id %q", args[0])
		}

		ctx, cancel := callContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		if err := client.DeleteGuest(ctx, id); err != nil {
			return err
		}
		fmt.Println("guest deleted")
		return nil
	},
}

func init() {
	guestsCmd.AddCommand(guestsDeleteCmd)
	rootCmd.AddCommand(guestsCmd)
}
