package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"kmllinks/internal/app"
	"kmllinks/internal/config"
	"kmllinks/internal/logging"
)

var (
	cfg       config.Config
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "kmllinks",
	Short: "Browse a KML dataset and report its network links",
	Long: "Loads a KML or KMZ dataset, directly or through a portal item id, resolves its " +
		"network links and lists each link's name and refresh interval.",
	SilenceUsage: true,
	RunE:         runUI,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cfg, configErr = config.LoadConfig()
	cfg = config.ApplyEnv(cfg)
	config.BindFlags(rootCmd.PersistentFlags(), &cfg)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return cfg.Validate()
	}
}

func runUI(cmd *cobra.Command, args []string) error {
	log, closer, err := logging.NewFile(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()
	if configErr != nil {
		log.WithError(configErr).Warn("config load failed, using defaults")
	}
	log.WithField("source", sourceLabel()).Info("starting ui")
	return app.Run(cfg, configErr, log)
}

func sourceLabel() string {
	switch {
	case cfg.Demo:
		return "demo"
	case cfg.URL != "":
		return cfg.URL
	default:
		return "item " + cfg.ItemID
	}
}
