package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

func newGetCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <resource> [name]",
		Short: "Fetch a resource or collection and print it as YAML",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			req, err := a.baseRequest(args[0], name)
			if err != nil {
				return err
			}

			var result map[string]any
			if err := req.Into(cmd.Context(), &result); err != nil {
				return fmt.Errorf("get %s: %w", args[0], err)
			}

			out, err := yaml.Marshal(result)
			if err != nil {
				return fmt.Errorf("render yaml: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	return cmd
}
