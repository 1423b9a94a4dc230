package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Adam14b/recsys-project/client"
	"github.com/Adam14b/recsys-project/devmode"
)

var (
	serviceURL string
	username   string
	password   string
	devLogin   bool
	debug      bool
)

const requestTimeout = 15 * time.Second

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recsys",
		Short:         "Browse movie collections and manage your likes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})

			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				_ = os.Setenv("RECSYS_DEBUG", "true")
				log.Debug().Msg("debug logging enabled")
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", getEnv("RECSYS_BASE_URL", "http://localhost:5000"), "Base URL of the recommendation service")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", os.Getenv("RECSYS_USERNAME"), "Sign in as this user")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", os.Getenv("RECSYS_PASSWORD"), "Password for --user")
	rootCmd.PersistentFlags().BoolVar(&devLogin, "dev", false, "Sign in with the local dev account")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newHomeCmd())
	rootCmd.AddCommand(newRecommendationsCmd())
	rootCmd.AddCommand(newMyRatingsCmd())
	rootCmd.AddCommand(newPreferenceCmd("like", "Like a movie; liking a liked movie clears it"))
	rootCmd.AddCommand(newPreferenceCmd("dislike", "Dislike a movie; disliking a disliked movie clears it"))
	rootCmd.AddCommand(newPreferenceCmd("unlike", "Clear your preference for a movie"))
	rootCmd.AddCommand(newCheckAuthCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newDevBackendCmd())

	return rootCmd
}

// newClient builds a client from RECSYS_* settings and signs in when
// credentials were given.
func newClient(ctx context.Context) (*client.Client, error) {
	cfg, err := client.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.BaseURL = serviceURL
	c, err := client.NewFromConfig(cfg, client.WithOnAuthRequired(func() {
		log.Warn().Msg("sign in required: pass --user/--password or --dev")
	}))
	if err != nil {
		return nil, err
	}

	user, pass := username, password
	if devLogin {
		user, pass = devmode.Username, devmode.Password
	}
	if user == "" {
		return c, nil
	}
	start := time.Now()
	if err := c.Login(ctx, user, pass); err != nil {
		_ = c.Close()
		log.Error().Err(err).Str("user", user).Dur("elapsed", time.Since(start)).Msg("login failed")
		return nil, fmt.Errorf("login as %s: %w", user, err)
	}
	log.Debug().Str("user", user).Dur("elapsed", time.Since(start)).Msg("login completed")
	return c, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
