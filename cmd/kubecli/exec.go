package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kubecli/kubecli/pkg/exec"
)

func newExecCommand(a *app) *cobra.Command {
	var container string
	var stdin bool
	var tty bool

	cmd := &cobra.Command{
		Use:   "exec <pod> -- <command> [args...]",
		Short: "Run a command inside a pod's container over a SPDY-upgraded connection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash < 0 || dash >= len(args) {
				return fmt.Errorf("exec requires a command after --")
			}
			pod := args[0]
			command := args[dash:]

			req, err := a.baseRequest("pods", pod)
			if err != nil {
				return err
			}
			req = req.Subresource("exec")
			if container != "" {
				req = req.Query("container", container)
			}
			for _, c := range command {
				req = req.Query("command", c)
			}
			req = req.QuerySet("stdin", strconv.FormatBool(stdin))
			req = req.QuerySet("stdout", "true")
			req = req.QuerySet("stderr", strconv.FormatBool(!tty))
			req = req.QuerySet("tty", strconv.FormatBool(tty))

			cfg, err := a.resolve()
			if err != nil {
				return err
			}
			tlsConfig, err := cfg.TLSConfig()
			if err != nil {
				return fmt.Errorf("build tls config: %w", err)
			}
			dialer := &exec.NetDialer{TLSConfig: tlsConfig}

			opts := exec.Options{
				Container:      container,
				Command:        command,
				Stdout:         cmd.OutOrStdout(),
				TTY:            tty,
				ThrowOnFailure: true,
			}
			if stdin {
				opts.Stdin = cmd.InOrStdin()
			}
			if !tty {
				opts.Stderr = cmd.ErrOrStderr()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := exec.Run(ctx, req, dialer, opts)
			if err != nil {
				if result != nil {
					return fmt.Errorf("exec: %s (code %d)", result.Message, result.Code)
				}
				return fmt.Errorf("exec: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&container, "container", "c", "", "container to exec in (defaults to the pod's only container)")
	cmd.Flags().BoolVarP(&stdin, "stdin", "i", false, "pass stdin to the command")
	cmd.Flags().BoolVarP(&tty, "tty", "t", false, "allocate a pseudo-terminal")
	return cmd
}
