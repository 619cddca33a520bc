package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ciltools/ciltools/region"
	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "cilview",
		Short:         "Inspect and re-emit CIL method bodies",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.cilview.yaml)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Int("iteration-limit", region.DefaultIterationLimit, "maximum steps of the region reconstruction walk")
	flags.Bool("body-only", false, "print only the method body")
	flags.Bool("qualify", false, "qualify every type with its assembly")
	flags.Bool("no-source", false, "omit source code comments")
	_ = v.BindPFlags(flags)

	v.SetEnvPrefix("CILVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd.AddCommand(
		newDisCmd(v),
		newListCmd(v),
		newGraphCmd(v),
		newEmitCmd(v),
		newBatchCmd(v),
	)
	return cmd
}

// initConfig reads the config file named by --config, or
// $HOME/.cilview.yaml when it exists, and applies the global flags.
func initConfig(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return err
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	} else if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".cilview")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("reading config: %w", err)
			}
		}
	}
	if v.GetBool("no-color") {
		color.NoColor = true
	}
	return nil
}
