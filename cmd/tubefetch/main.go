package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elsanchez/tubefetch/internal/config"
	"github.com/elsanchez/tubefetch/internal/logger"
)

const version = "0.1.0"

var (
	configPath string
	socketPath string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tubefetch",
	Short: "Download YouTube videos at the best quality available",
	Long: `tubefetch downloads a YouTube video at a requested quality, falling back
to lower tiers when the requested one is not offered.

Downloads can run in-process ("get", "ui") or through the tubefetchd daemon
("add", "status", "wait", "list", "stats").`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if socketPath != "" {
			cfg.Paths.Socket = socketPath
		}

		log = logger.New(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Dir:    cfg.Logging.Dir,
		})
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if log != nil {
			return log.Close()
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Args:  cobra.NoArgs,
	// Sin config: funciona aunque el archivo sea inválido
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tubefetch v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./tubefetch.yaml or ~/.config/tubefetch/tubefetch.yaml)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "daemon socket path")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
