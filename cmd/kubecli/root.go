package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubecli/kubecli/internal/clientconfig"
	"github.com/kubecli/kubecli/pkg/request"
)

// app holds the flags and lazily-resolved connection state shared by
// every subcommand.
type app struct {
	kubeconfig string
	context    string
	namespace  string
	apiGroup   string
	apiVersion string

	cfg *clientconfig.Config
}

func (a *app) resolve() (*clientconfig.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := clientconfig.Load(clientconfig.Options{
		KubeconfigPath: a.kubeconfig,
		Context:        a.context,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve kubeconfig: %w", err)
	}
	a.cfg = cfg
	return cfg, nil
}

// baseRequest builds a Request against resourceType (and, when name is
// non-empty, a single member), scoped to the --namespace flag and the
// resolved connection.
func (a *app) baseRequest(resourceType, name string) (*request.Request, error) {
	cfg, err := a.resolve()
	if err != nil {
		return nil, err
	}
	transport, err := cfg.Transport()
	if err != nil {
		return nil, fmt.Errorf("build transport: %w", err)
	}
	req := request.New(cfg.Host, transport, cfg.Credentials()).
		Group(a.apiGroup).
		Version(a.apiVersion).
		Namespace(a.namespace).
		Resource(resourceType)
	if name != "" {
		req = req.Name(name)
	}
	return req, nil
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "kubecli",
		Short:         "Query, watch, and exec against a Kubernetes API server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.kubeconfig, "kubeconfig", "", "path to a kubeconfig file (defaults to in-cluster config, then the usual kubeconfig loading rules)")
	flags.StringVar(&a.context, "context", "", "kubeconfig context to use (defaults to current-context)")
	flags.StringVarP(&a.namespace, "namespace", "n", "", "namespace to operate in (omit for a cluster-scoped resource)")
	flags.StringVar(&a.apiGroup, "api-group", "", "API group of the targeted resource (empty for the core group)")
	flags.StringVar(&a.apiVersion, "api-version", "v1", "API version of the targeted resource")

	root.AddCommand(newGetCommand(a))
	root.AddCommand(newWatchCommand(a))
	root.AddCommand(newExecCommand(a))

	return root
}
