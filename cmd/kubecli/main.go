// Command kubecli is a thin cobra CLI exercising the library end to end
// (get, watch, exec) for manual verification, grounded on the teacher's
// cmd/kubernetes-mcp-server/main.go.
package main

import (
	"os"

	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("kubecli", pflag.ExitOnError)
	pflag.CommandLine = flags

	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
