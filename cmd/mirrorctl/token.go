package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	tokenRoom   string
	tokenName   string
	tokenViewer bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session credential",
	Long:  "Mints a session credential for joining a mirror room. With --viewer the credential subscribes without publishing, for silently watching a session.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext()
		defer cancel()

		client, err := newClient(ctx)
		if err != nil {
			return err
		}

		mint := client.Token
		if tokenViewer {
			mint = client.ViewerToken
		}
		cred, err := mint(ctx, tokenRoom, tokenName)
		if err != nil {
			return err
		}
		fmt.Println(cred.Token)
		if cred.URL != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "url:", cred.URL)
		}
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRoom, "room", "mirror-room", "room name")
	tokenCmd.Flags().StringVar(&tokenName, "name", "Admin Viewer", "display name")
	tokenCmd.Flags().BoolVar(&tokenViewer, "viewer", false, "mint a subscribe-only credential")
	rootCmd.AddCommand(tokenCmd)
}
