package clientconfig_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/rest"

	"github.com/kubecli/kubecli/internal/clientconfig"
	"github.com/kubecli/kubecli/internal/test"
)

func withInClusterConfig(t *testing.T, fn func() (*rest.Config, error)) {
	t.Helper()
	original := clientconfig.InClusterConfig
	clientconfig.InClusterConfig = fn
	t.Cleanup(func() { clientconfig.InClusterConfig = original })
}

func TestLoad_PrefersInClusterConfig(t *testing.T) {
	withInClusterConfig(t, func() (*rest.Config, error) {
		return &rest.Config{Host: "https://in-cluster", BearerToken: "sa-token"}, nil
	})

	cfg, err := clientconfig.Load(clientconfig.Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://in-cluster", cfg.Host)
	assert.Equal(t, "sa-token", cfg.BearerToken)
	assert.Empty(t, cfg.KubeconfigFiles())
}

func TestLoad_FallsBackToKubeconfigOutsideACluster(t *testing.T) {
	withInClusterConfig(t, func() (*rest.Config, error) {
		return nil, rest.ErrNotInCluster
	})

	srv := test.NewMockServer()
	defer srv.Close()
	kubeconfig := srv.KubeconfigFile(t)
	t.Setenv("KUBECONFIG", kubeconfig)

	cfg, err := clientconfig.Load(clientconfig.Options{})
	require.NoError(t, err)
	assert.Equal(t, srv.Config().Host, cfg.Host)
	assert.NotEmpty(t, cfg.KubeconfigFiles())
}

func TestLoad_ExplicitKubeconfigPathIsHonoredEvenInCluster(t *testing.T) {
	withInClusterConfig(t, func() (*rest.Config, error) {
		t.Fatal("InClusterConfig should not be consulted when KubeconfigPath is set")
		return nil, nil
	})

	srv := test.NewMockServer()
	defer srv.Close()
	kubeconfig := srv.KubeconfigFile(t)

	cfg, err := clientconfig.Load(clientconfig.Options{KubeconfigPath: kubeconfig})
	require.NoError(t, err)
	assert.Equal(t, srv.Config().Host, cfg.Host)
}

func TestCredentials_StaticBearerToken(t *testing.T) {
	withInClusterConfig(t, func() (*rest.Config, error) {
		return &rest.Config{Host: "https://x", BearerToken: "abc123"}, nil
	})
	cfg, err := clientconfig.Load(clientconfig.Options{})
	require.NoError(t, err)

	header := http.Header{}
	require.NoError(t, cfg.Credentials().Apply(context.Background(), header))
	assert.Equal(t, "Bearer abc123", header.Get("Authorization"))
}

func TestCredentials_BearerTokenFileIsReReadOnEveryApply(t *testing.T) {
	tokenFile := t.TempDir() + "/token"
	require.NoError(t, os.WriteFile(tokenFile, []byte("first\n"), 0o600))

	withInClusterConfig(t, func() (*rest.Config, error) {
		return &rest.Config{Host: "https://x", BearerTokenFile: tokenFile}, nil
	})
	cfg, err := clientconfig.Load(clientconfig.Options{})
	require.NoError(t, err)

	header := http.Header{}
	require.NoError(t, cfg.Credentials().Apply(context.Background(), header))
	assert.Equal(t, "Bearer first", header.Get("Authorization"))

	require.NoError(t, os.WriteFile(tokenFile, []byte("second\n"), 0o600))
	header = http.Header{}
	require.NoError(t, cfg.Credentials().Apply(context.Background(), header))
	assert.Equal(t, "Bearer second", header.Get("Authorization"))
}
