package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

// MockServer is a real httptest.Server standing in for a cluster's API
// server, used by internal/clientconfig's tests to exercise kubeconfig
// loading and client construction end to end instead of against mocked
// HTTP round trips.
type MockServer struct {
	server       *httptest.Server
	config       *rest.Config
	restHandlers []http.HandlerFunc
}

func NewMockServer() *MockServer {
	ms := &MockServer{}
	scheme := runtime.NewScheme()
	codecs := serializer.NewCodecFactory(scheme)
	ms.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		for _, handler := range ms.restHandlers {
			handler(w, req)
		}
	}))
	ms.config = &rest.Config{
		Host:    ms.server.URL,
		APIPath: "/api",
		ContentConfig: rest.ContentConfig{
			NegotiatedSerializer: codecs,
			ContentType:          runtime.ContentTypeJSON,
			GroupVersion:         &v1.SchemeGroupVersion,
		},
	}
	ms.restHandlers = make([]http.HandlerFunc, 0)
	return ms
}

func (m *MockServer) Close() {
	if m.server != nil {
		m.server.Close()
	}
}

func (m *MockServer) Handle(handler http.Handler) {
	m.restHandlers = append(m.restHandlers, handler.ServeHTTP)
}

func (m *MockServer) Config() *rest.Config {
	return m.config
}

// fakeKubeconfig builds a minimal, single-context clientcmd config
// naming cluster/user "fake", for Kubeconfig/KubeconfigFile to point at
// this server.
func fakeKubeconfig() *api.Config {
	cfg := api.NewConfig()
	cfg.Clusters["fake"] = api.NewCluster()
	cfg.AuthInfos["fake"] = api.NewAuthInfo()
	ctx := api.NewContext()
	ctx.Cluster = "fake"
	ctx.AuthInfo = "fake"
	cfg.Contexts["fake"] = ctx
	cfg.CurrentContext = "fake"
	return cfg
}

// Kubeconfig returns a clientcmd config pointed at this mock server,
// carrying its TLS material so client construction from the resulting
// file exercises the same path as a real cluster's kubeconfig.
func (m *MockServer) Kubeconfig() *api.Config {
	cfg := fakeKubeconfig()
	cfg.Clusters["fake"].Server = m.config.Host
	cfg.Clusters["fake"].CertificateAuthorityData = m.config.CAData
	cfg.Clusters["fake"].InsecureSkipTLSVerify = m.config.Insecure
	cfg.AuthInfos["fake"].ClientKeyData = m.config.KeyData
	cfg.AuthInfos["fake"].ClientCertificateData = m.config.CertData
	cfg.AuthInfos["fake"].Token = m.config.BearerToken
	return cfg
}

func (m *MockServer) KubeconfigFile(t *testing.T) string {
	kubeconfig := filepath.Join(t.TempDir(), "config")
	err := clientcmd.WriteToFile(*m.Kubeconfig(), kubeconfig)
	require.NoError(t, err, "Expected no error writing kubeconfig file")
	return kubeconfig
}

func WriteObject(w http.ResponseWriter, obj runtime.Object) {
	w.Header().Set("Content-Type", runtime.ContentTypeJSON)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
