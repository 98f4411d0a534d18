package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List active mirror rooms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		rooms, err := client.Rooms(ctx)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			fmt.Println("no active rooms")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Room"})
		for i, room := range rooms {
			t.AppendRow(table.Row{i + 1, room})
		}
		t.Render()
		return nil
	},
}

var roomsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Tear down all active rooms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		if err := client.ClearRooms(ctx); err != nil {
			return err
		}
		fmt.Println("all rooms deleted")
		return nil
	},
}

func init() {
	roomsCmd.AddCommand(roomsClearCmd)
	rootCmd.AddCommand(roomsCmd)
}
