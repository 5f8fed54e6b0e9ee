// Package clientconfig assembles a Config — base host, credentials, and
// TLS material — from kubeconfig, in-cluster service-account files, or
// explicit overrides, grounded on the teacher's
// pkg/kubernetes/configuration.go (SPEC_FULL.md §3.3).
package clientconfig

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"strings"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/kubecli/kubecli/pkg/request"
)

// DefaultUserAgent mirrors rest.DefaultKubernetesUserAgent()'s role for
// a standalone client not built from client-go's own command base.
const DefaultUserAgent = "kubecli/unknown"

// InClusterConfig is overridable for tests, the same pattern the teacher
// uses for its own InClusterConfig variable.
var InClusterConfig = rest.InClusterConfig

// Options controls how Load resolves a Config.
type Options struct {
	// KubeconfigPath overrides KUBECONFIG / the default loading rules
	// when non-empty.
	KubeconfigPath string
	// Context selects a non-current context; empty uses the
	// kubeconfig's current-context.
	Context string
}

// Config is the resolved connection: base host, credentials, TLS
// material, and the kubeconfig file paths Watch should observe. The
// underlying rest.Config is kept so Transport can reuse client-go's own
// certificate/CA handling (rest.TLSConfigFor) rather than reimplement
// it against the raw PEM fields.
type Config struct {
	Host            string
	BearerToken     string
	BearerTokenFile string
	UserAgent       string

	kubeconfigFiles []string
	restConfig      *rest.Config
}

// Load resolves a Config: in-cluster service-account files first when
// running inside a pod (and KubeconfigPath is unset), falling back to
// kubeconfig loading rules otherwise — the same precedence as the
// teacher's resolveKubernetesConfigurations.
func Load(opts Options) (*Config, error) {
	if opts.KubeconfigPath == "" {
		if cfg, err := InClusterConfig(); err == nil && cfg != nil {
			return fromRESTConfig(cfg, nil)
		}
	}

	pathOptions := clientcmd.NewDefaultPathOptions()
	if opts.KubeconfigPath != "" {
		pathOptions.LoadingRules.ExplicitPath = opts.KubeconfigPath
	}
	overrides := &clientcmd.ConfigOverrides{}
	if opts.Context != "" {
		overrides.CurrentContext = opts.Context
	}
	clientCmdConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(pathOptions.LoadingRules, overrides)
	restCfg, err := clientCmdConfig.ClientConfig()
	if err != nil {
		return nil, err
	}
	return fromRESTConfig(restCfg, clientCmdConfig.ConfigAccess().GetLoadingPrecedence())
}

func fromRESTConfig(restCfg *rest.Config, kubeconfigFiles []string) (*Config, error) {
	userAgent := restCfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Config{
		Host:            strings.TrimRight(restCfg.Host, "/"),
		BearerToken:     restCfg.BearerToken,
		BearerTokenFile: restCfg.BearerTokenFile,
		UserAgent:       userAgent,
		kubeconfigFiles: kubeconfigFiles,
		restConfig:      restCfg,
	}, nil
}

// KubeconfigFiles returns the files that were consulted to build this
// Config, in loading-precedence order; empty for an in-cluster Config.
func (c *Config) KubeconfigFiles() []string {
	out := make([]string, len(c.kubeconfigFiles))
	copy(out, c.kubeconfigFiles)
	return out
}

// TLSConfig builds the *tls.Config this Config describes, using
// client-go's own CA/client-cert assembly. Exposed separately from
// Transport for callers (such as pkg/exec's raw connection upgrade)
// that need the TLS config without an http.Client wrapped around it.
func (c *Config) TLSConfig() (*tls.Config, error) {
	return rest.TLSConfigFor(c.restConfig)
}

// Transport builds the request.Transport this Config describes, using
// client-go's own TLS config assembly for CA/client-cert handling.
func (c *Config) Transport() (request.Transport, error) {
	tlsConfig, err := c.TLSConfig()
	if err != nil {
		return nil, err
	}
	return request.NewHTTPTransport(&http.Client{
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
	}), nil
}

// Credentials builds the request.Credentials this Config describes: a
// static bearer token, or one re-read from BearerTokenFile on every
// request (the teacher's pattern for projected service-account tokens,
// which the kubelet rotates without restarting anything that holds
// them).
func (c *Config) Credentials() request.Credentials {
	if c.BearerTokenFile != "" {
		return bearerTokenFile(c.BearerTokenFile)
	}
	return request.BearerToken(c.BearerToken)
}

type bearerTokenFile string

func (f bearerTokenFile) Apply(_ context.Context, header http.Header) error {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return err
	}
	header.Set("Authorization", "Bearer "+strings.TrimSpace(string(data)))
	return nil
}
