package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "ianfluencer",
	Short:         "Scheduled AI content generation for virtual influencer personas",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default $IANF_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd, runJobCmd, encryptKeyCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	raw, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	switch strings.ToLower(raw) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
