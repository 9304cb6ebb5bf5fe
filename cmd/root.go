// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/config"
	"github.com/xkilldash9x/formprobe/internal/observability"
	"github.com/xkilldash9x/formprobe/internal/service"
)

const (
	envPrefix      = "FORMPROBE"
	configFileName = "formprobe"
)

// app carries the state one command tree shares. A fresh app per root
// command keeps flags and viper state from leaking between executions.
type app struct {
	v       *viper.Viper
	cfgFile string
	envFile string
	factory service.ComponentFactory
}

// Execute runs the command line and returns the first error.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrSuiteFailed) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// NewRootCommand builds the command tree with the production component factory.
func NewRootCommand() *cobra.Command {
	return newRootCommand(service.NewComponentFactory())
}

func newRootCommand(factory service.ComponentFactory) *cobra.Command {
	a := &app{v: viper.New(), factory: factory}
	config.SetDefaults(a.v)

	rootCmd := &cobra.Command{
		Use:           "formprobe",
		Short:         "formprobe runs the Bugs Form BDD suite against a live or local page.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initializeConfig(); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "formprobe"})
				return err
			}
			var logCfg config.LoggerConfig
			if err := a.v.UnmarshalKey("logger", &logCfg); err != nil {
				return fmt.Errorf("failed to unmarshal logger config: %w", err)
			}
			observability.InitializeLogger(logCfg)
			observability.GetLogger().Debug("Starting formprobe", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./formprobe.yaml or ~/formprobe.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd(a), newResolveCmd(a), newReportCmd(a), newVersionCmd())
	return rootCmd
}

// initializeConfig loads the dotenv file, then the config file and the
// FORMPROBE_ environment.
func (a *app) initializeConfig() error {
	if a.envFile != "" {
		envFile, err := homedir.Expand(a.envFile)
		if err != nil {
			return fmt.Errorf("invalid env file path: %w", err)
		}
		// Variables already in the environment win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	if a.cfgFile != "" {
		cfgFile, err := homedir.Expand(a.cfgFile)
		if err != nil {
			return fmt.Errorf("invalid config path: %w", err)
		}
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			a.v.AddConfigPath(home)
			a.v.AddConfigPath(filepath.Join(home, ".config", "formprobe"))
		}
		a.v.SetConfigName(configFileName)
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()
	config.BindEnv(a.v)

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// loadConfig builds the validated configuration after flags are bound.
func (a *app) loadConfig() (*config.Config, error) {
	return config.NewConfigFromViper(a.v)
}

// bindFlags maps command flags onto config keys.
func (a *app) bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}
