// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/floatgeo/internal/config"
	"github.com/xkilldash9x/floatgeo/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// dependencies are the external systems commands talk to, replaceable in tests.
type dependencies struct {
	capturers capturerFactory
	stores    storeProvider
}

func defaultDependencies() dependencies {
	return dependencies{
		capturers: newChromeCapturer,
		stores:    NewStoreProvider(),
	}
}

// NewRootCommand builds a fresh command tree. Every call returns independent
// flag state.
func NewRootCommand() *cobra.Command {
	return newRootCmd(defaultDependencies())
}

func newRootCmd(deps dependencies) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "floatgeo",
		Short: "floatgeo resolves floating element geometry against live or captured pages.",
		Long: `floatgeo captures the layout of web pages and computes where a floating element
(tooltip, popover, dropdown) must be placed relative to its reference element,
accounting for offset parents, scroll, CSS transforms and nested iframes.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(v, cfgFile); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "floatgeo"})
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "floatgeo"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting floatgeo", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, config.Interface(cfg)))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(
		newCaptureCmd(deps),
		newResolveCmd(deps),
		newWatchCmd(deps),
		newArchiveCmd(deps),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command tree with ctx and logs a failure before returning it.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			observability.GetLogger().Error("Command execution failed", zap.Error(err))
		}
		observability.Sync()
		return err
	}
	observability.Sync()
	return nil
}

// initializeConfig reads the config file, if any, into v.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment apply.
	}
	return nil
}

// getConfigFromContext returns the configuration stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in command context")
	}
	return cfg, nil
}
