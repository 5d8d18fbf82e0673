package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gigmarket/marketapi/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  logr.Logger
)

var rootCmd = &cobra.Command{
	Use:   "marketapi",
	Short: "Marketplace request authentication service",
	Long: `marketapi resolves marketplace sessions from cookies, bearer headers and
query tokens, gates worker routes on subscription status, and manages the
session database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger = newLogger(cfg.Debug)
		return nil
	},
}

func newLogger(debug bool) logr.Logger {
	if debug {
		stdr.SetVerbosity(1)
	}
	return stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("marketapi")
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")
	flags.String("db-url", "", "Database connection URL (env: MARKET_DATABASE_URL)")
	flags.String("server-addr", "", "Server bind address (env: MARKET_SERVER_ADDR)")
	flags.Bool("debug", false, "Enable debug logging (env: MARKET_DEBUG)")

	_ = viper.BindPFlag("database_url", flags.Lookup("db-url"))
	_ = viper.BindPFlag("server_addr", flags.Lookup("server-addr"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
