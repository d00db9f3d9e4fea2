package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ver, sha, built, dirty := buildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "hostwatch %s\n  commit:    %s (%s)\n  built:     %s\n  go:        %s\n  platform:  %s/%s\n",
				ver, sha, dirty, built, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
