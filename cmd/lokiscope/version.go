package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCmd reports the build and runtime versions.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("lokiscope %s\n", version)
			cmd.Printf("  go:       %s\n", runtime.Version())
			cmd.Printf("  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
