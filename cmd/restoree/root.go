package main

import (
	"strings"

	"restoree/internal/shared/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// cliFlags holds the viper instance bound to the persistent flags.
type cliFlags struct {
	v *viper.Viper
}

func newRootCommand() *cobra.Command {
	flags := &cliFlags{v: viper.New()}

	root := &cobra.Command{
		Use:           "restoree",
		Short:         "Restoration certificate builder",
		Long:          "restoree serves the certificate builder API and exports or inspects saved drafts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default ~/.restoree/config.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("chrome", "", "path to the Chrome/Chromium binary")
	_ = flags.v.BindPFlags(pf)

	root.AddCommand(
		newServeCommand(flags),
		newExportCommand(flags),
		newInspectCommand(),
		newVersionCommand(),
	)
	return root
}

// bind attaches a command's local flags to the shared viper instance.
func (f *cliFlags) bind(fs *pflag.FlagSet) {
	_ = f.v.BindPFlags(fs)
}

// load resolves configuration with the flags the user actually set layered
// on top.
func (f *cliFlags) load() (config.Config, config.Metadata, error) {
	opts := []config.Option{config.WithOverrides(f.overrides())}
	if path := strings.TrimSpace(f.v.GetString("config")); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}
	return config.Load(opts...)
}

func (f *cliFlags) overrides() config.Overrides {
	var o config.Overrides
	str := func(key string) *string {
		if !f.v.IsSet(key) {
			return nil
		}
		v := f.v.GetString(key)
		return &v
	}
	o.Host = str("host")
	o.StorageProvider = str("storage")
	o.StorageDir = str("storage-dir")
	o.DatabaseURL = str("database-url")
	o.ChromePath = str("chrome")
	o.LogLevel = str("log-level")
	o.LogFormat = str("log-format")
	if f.v.IsSet("port") {
		port := f.v.GetInt("port")
		o.Port = &port
	}
	if f.v.IsSet("debug") {
		debug := f.v.GetBool("debug")
		o.Debug = &debug
	}
	return o
}
