package main

import (
	"github.com/spf13/cobra"
	"github.com/tech-arch1tect/backoffice/app"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.NewApp().WithAutoConfig().Build()
			if err != nil {
				return err
			}
			return application.Run()
		},
	}
}
