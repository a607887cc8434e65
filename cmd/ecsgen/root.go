package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/emergent-company/ecsgen/internal/config"
	"github.com/spf13/cobra"
)

type rootState struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	state := &rootState{}

	cmd := &cobra.Command{
		Use:           "ecsgen",
		Short:         "Compile a declarative ECS specification into generated source",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(state.configPath)
			if err != nil {
				return err
			}
			state.cfg = cfg
			state.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLogLevel(cfg.Log.Level),
			}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&state.configPath, "config", "", "path to ecsgen.toml (default: search ECSGEN_CONFIG, ./ecsgen.toml, ~/.config/ecsgen/ecsgen.toml)")

	cmd.AddCommand(newGenerateCmd(state))
	cmd.AddCommand(newValidateCmd(state))
	cmd.AddCommand(newInfoCmd(state))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newUpgradeCmd())
	cmd.AddCommand(newRollbackCmd())

	return cmd
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
