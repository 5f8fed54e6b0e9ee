package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/kubecli/kubecli/pkg/watch"
)

func newWatchCommand(a *app) *cobra.Command {
	var resourceVersion string

	cmd := &cobra.Command{
		Use:   "watch <resource> [name]",
		Short: "Stream change events for a resource or collection until interrupted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			base, err := a.baseRequest(args[0], name)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := watch.New[*unstructured.Unstructured](base, resourceVersion, nil, watch.Callbacks[*unstructured.Unstructured]{
				InitialListSent: func() {
					fmt.Fprintln(cmd.ErrOrStderr(), "--- initial list sent ---")
				},
				EventReceived: func(event watch.WatchEvent[*unstructured.Unstructured]) {
					printWatchEvent(cmd, event)
				},
				Reset: func() {
					fmt.Fprintln(cmd.ErrOrStderr(), "--- resynchronized after expiry ---")
				},
				Error: func(err error) {
					fmt.Fprintln(cmd.ErrOrStderr(), "watch error:", err)
				},
			})

			w.Run(ctx)
			return nil
		},
	}
	cmd.Flags().StringVar(&resourceVersion, "resource-version", "", "resume from this resourceVersion instead of the current one")
	return cmd
}

func printWatchEvent(cmd *cobra.Command, event watch.WatchEvent[*unstructured.Unstructured]) {
	if event.Type == watch.Error {
		fmt.Fprintln(cmd.ErrOrStderr(), "watch error event:", event.Status.Message)
		return
	}
	out, err := yaml.Marshal(event.Object.Object)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "render yaml:", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "--- %s ---\n%s", event.Type, out)
}
