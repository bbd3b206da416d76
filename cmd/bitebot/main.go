package main

import (
	"BiteBot/internal/config"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version подставляется при сборке: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "bitebot",
		Short:        "Casts, listens for a bite and reels in for every tracked game window",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), cfg)
		},
	}
	config.BindFlags(root.PersistentFlags(), cfg)

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Discover game windows and start the loop (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), cfg)
		},
	})
	root.AddCommand(newSessionsCmd(cfg))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		// конфиг не нужен
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bitebot %s\n", version)
		},
	})
	return root
}

// newLogger создаёт dev-логгер в режиме дебага, иначе production.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
