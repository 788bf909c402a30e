package cmd

import (
	"context"
	"fmt"

	"aags-annotator/cmd/aags/globals"
	"aags-annotator/internal/components/telemetry"
	"aags-annotator/lib/configutil"
	"aags-annotator/lib/serviceutil"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aags",
	Short: "aags marks MIT subjects that satisfy the EECS AAGS requirement.",
	Long: `aags loads the AAGS subject list from the EECS degree requirements page and
uses it to check subject numbers or annotate catalog pages.

Configuration is read from aags.json5 (and aags.local.json5), searched from the
working directory upwards, unless --config points at a file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		telemetry.InitSlog(debug)

		path, _ := cmd.Flags().GetString("config")
		config, err := configutil.Load(path, globals.ConfigName, globals.DefaultConfig())
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if source, _ := cmd.Flags().GetString("source"); source != "" {
			config.SourceURL = source
		}
		if dump, _ := cmd.Flags().GetString("dump-http"); dump != "" {
			config.HTTPDumpDir = dump
		}

		value, err := globals.NewValue(config, telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		cmd.SetContext(globals.Set(cmd.Context(), value))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a json5 config file")
	rootCmd.PersistentFlags().String("source", "", "override the degree requirements page URL")
	rootCmd.PersistentFlags().String("dump-http", "", "write every HTTP exchange to this directory")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		serviceutil.Fatal("aags failed", err)
	}
}
