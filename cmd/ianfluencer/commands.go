package main

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	appconfig "github.com/manthysbr/ianfluencer/internal/config"
	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

// --- run-job ---

var runJobCmd = &cobra.Command{
	Use:   "run-job <name>",
	Short: "Run one job once in the foreground and print the run",
	Long: `Run one job once in the foreground and print the run.

Examples:
  ianfluencer run-job generate-posts
  ianfluencer run-job generate-comments --config ./ianfluencer.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		a, err := buildApp(cmd.Context(), logger, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := a.scheduler.RunOnce(cmd.Context(), domain.JobName(args[0]))
		if err != nil {
			return err
		}
		if err := printJSON(cmd, run); err != nil {
			return err
		}
		if run.Outcome != domain.RunOutcomeSuccess {
			return errors.Newf("job %s finished %s", run.JobName, run.Outcome)
		}
		return nil
	},
}

// --- encrypt-key ---

var encryptKeyCmd = &cobra.Command{
	Use:   "encrypt-key <api-key>",
	Short: "Encrypt an API key for use as generative.api_key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := appconfig.NewSecretKey()
		if err != nil {
			return err
		}
		enc, err := secret.Encrypt(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), enc)
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		masked := *cfg
		masked.Generative.APIKey = appconfig.MaskSecret(cfg.Generative.APIKey)
		return printJSON(cmd, masked)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode output")
}
