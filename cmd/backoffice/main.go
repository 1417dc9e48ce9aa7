package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tech-arch1tect/backoffice/server"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "backoffice",
		Short:         "E-commerce back office API server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newUserAddCommand())
	return root
}

func main() {
	server.Release = version

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
