package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "List recorded mirror sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		recordings, err := client.Videos(ctx)
		if err != nil {
			return err
		}
		if len(recordings) == 0 {
			fmt.Println("no recordings")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Room", "Guest", "Duration (s)", "Status", "Created"})
		for _, r := range recordings {
			t.AppendRow(table.Row{r.ID, r.RoomID, r.GuestName, r.DurationSeconds, r.Status, r.CreatedAt})
		}
		t.Render()
		return nil
	},
}

var videosRefreshCmd = &cobra.Command{
	Use:   "refresh <id>",
	Short: "Re-sign a recording's download link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid recording id %q", args[0])
		}

		ctx, cancel := callContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		url, err := client.RefreshVideo(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	},
}

func init() {
	videosCmd.AddCommand(videosRefreshCmd)
	rootCmd.AddCommand(videosCmd)
}
