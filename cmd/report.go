package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kmllinks/internal/app"
	"kmllinks/internal/logging"
	"kmllinks/internal/output"
	"kmllinks/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the network link report",
	Long: "Loads the dataset once and prints one line per network link. With --watch the " +
		"dataset is reloaded whenever the shortest refresh interval elapses.",
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("format", "text", "Output format: text, yaml, json")
	reportCmd.Flags().Bool("watch", false, "Reload on refresh intervals and print every new report")
}

func runReport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	watch, _ := cmd.Flags().GetBool("watch")
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	if configErr != nil {
		log.WithError(configErr).Warn("config load failed, using defaults")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := app.NewReporter(cfg, app.NewServices(cfg, log), log)
	out := cmd.OutOrStdout()
	if !watch {
		rep, err := reporter.LoadOnce(ctx)
		if err != nil {
			return err
		}
		return output.Print(out, format, rep)
	}
	return reporter.Watch(ctx, func(rep report.Report) error {
		return output.Print(out, format, rep)
	})
}

