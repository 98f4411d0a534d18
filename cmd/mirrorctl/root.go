package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/husainf4l/mirror/internal/api"
	"github.com/husainf4l/mirror/internal/config"
)

const (
	apiURLKey   = "api_url"
	passwordKey = "password"

	defaultCallTimeout = 30 * time.Second
)

var rootCmd = &cobra.Command{
	Use:           "mirrorctl",
	Short:         "Operator control for the wedding mirror",
	Long:          "mirrorctl drives the wedding mirror backend: update the displayed message, reset the mirror, mint session tokens, and review rooms and recordings.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("api-url", config.DefaultAPIURL, "backend api base url")
	rootCmd.PersistentFlags().StringP("password", "p", "", "operator password (or MIRROR_PASSWORD)")

	_ = viper.BindPFlag(apiURLKey, rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag(passwordKey, rootCmd.PersistentFlags().Lookup("password"))
}

func initConfig() {
	viper.SetEnvPrefix("MIRROR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// newClient builds a backend client and, when a password is configured,
// performs the cookie login every operator-only endpoint needs.
func newClient(ctx context.Context) (*api.Client, error) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	client := api.NewClient(api.Config{
		BaseURL: viper.GetString(apiURLKey),
		Logger:  &logger,
	})
	if password := viper.GetString(passwordKey); password != "" {
		if err := client.Login(ctx, password); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}
	return client, nil
}

func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultCallTimeout)
}
