package main

import (
	"fmt"
	"gatebot/internal/di"
	"gatebot/internal/structures"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	flags := &structures.CliFlags{}

	cmd := &cobra.Command{
		Use:          "gatebot",
		Short:        "Telegram media download bot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(flags.EnvFile); err != nil && cmd.Flags().Changed("env") {
				return fmt.Errorf("load %s: %w", flags.EnvFile, err)
			}
			_, err := di.InitApp(flags)
			return err
		},
	}

	cmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "config.yaml", "Path to the YAML config file")
	cmd.Flags().StringVar(&flags.EnvFile, "env", ".env", "Path to a .env file loaded before the config")
	cmd.Flags().BoolVarP(&flags.DebugMode, "debug", "d", false, "Log to the console as well as to files")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
