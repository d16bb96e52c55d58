package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/rolecall/internal/logs"
	"github.com/praetorian-inc/rolecall/internal/message"
)

var (
	cfgFile    string
	outputDir  string
	logFile    string
	quietFlag  bool
	noColor    bool
	silentFlag bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rolecall",
	Short: "Rolecall audits administrative role assignments across Microsoft 365 services.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		message.SetQuiet(quietFlag)
		message.SetNoColor(noColor)
		message.SetSilent(silentFlag)

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		if logFile != "" {
			logger, err := logs.FileLogger(logFile, level)
			if err != nil {
				message.Error("Failed to open log file: %s", err)
				os.Exit(1)
			}
			slog.SetDefault(logger)
		} else {
			logs.ConsoleLogger(level)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rolecall.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "rolecall-output", "directory for report artifacts")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write structured logs to a file instead of the console")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress informational messages")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&silentFlag, "silent", false, "suppress all console messages")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
