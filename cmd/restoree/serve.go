package main

import (
	"restoree/internal/delivery/server/bootstrap"

	"github.com/spf13/cobra"
)

func newServeCommand(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, meta, err := flags.load()
			if err != nil {
				return err
			}
			return bootstrap.RunServer(cfg, meta, appVersion())
		},
	}
	fs := cmd.Flags()
	fs.String("host", "", "listen host")
	fs.Int("port", 0, "listen port")
	fs.String("storage", "", "draft storage: file, memory or postgres")
	fs.String("storage-dir", "", "draft directory for the file provider")
	fs.String("database-url", "", "postgres DSN for the postgres provider")
	fs.Bool("debug", false, "gin debug mode")
	flags.bind(fs)
	return cmd
}
