package cli

import (
	"fmt"

	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"ticksched/internal/errors"
	"ticksched/internal/sched"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective wheel configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return errors.WithStackTrace(err)
			}

			fmt.Fprint(cmd.OutOrStdout(), string(out))

			return nil
		},
	}
}

// loadConfig reads --config and applies the logging flags on top of it.
func loadConfig() (sched.Config, error) {
	cfg, err := sched.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}

	return cfg, nil
}
