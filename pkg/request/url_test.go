package request_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubecli/kubecli/internal/test"
	"github.com/kubecli/kubecli/pkg/request"
)

func noopTransport() *test.FakeTransport {
	return test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		return test.JSONResponse(http.StatusOK, `{}`), nil
	})
}

// E1: request<Pod>().execute() against base https://k.example/ with no
// namespace/name produces GET https://k.example/api/v1/pods.
func TestURL_E1_CollectionGet(t *testing.T) {
	r := request.New("https://k.example/", noopTransport(), nil).
		Group("").Version("v1").Resource("pods")
	u, err := r.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://k.example/api/v1/pods", u)
	assert.Equal(t, http.MethodGet, r.MethodValue())
}

// E2: request<Pod>("ns","p").delete().dryRun(true).execute() produces
// DELETE https://k.example/api/v1/namespaces/ns/pods/p?dryRun=All.
func TestURL_E2_DeleteWithDryRun(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).
		Group("").Version("v1").Namespace("ns").Resource("pods").Name("p").
		Delete().DryRun(true)
	u, err := r.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://k.example/api/v1/namespaces/ns/pods/p?dryRun=All", u)
	assert.Equal(t, http.MethodDelete, r.MethodValue())
}

// E3 (URL half): request(pod).status().put() produces a status
// subresource URL.
func TestURL_E3_StatusSubresource(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).
		Group("").Version("v1").Namespace("ns").Resource("pods").Name("p").
		Status().Put()
	u, err := r.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://k.example/api/v1/namespaces/ns/pods/p/status", u)
}

// E4: watchVersion="" produces ?watch=1 (no resourceVersion); "123"
// produces ?watch=1&resourceVersion=123.
func TestURL_E4_WatchQueryForm(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).
		Group("").Version("v1").Resource("pods").Watch("")
	u, err := r.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://k.example/api/v1/pods?watch=1", u)

	r2 := request.New("https://k.example", noopTransport(), nil).
		Group("").Version("v1").Resource("pods").Watch("123")
	u2, err := r2.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://k.example/api/v1/pods?watch=1&resourceVersion=123", u2)
}

func TestURL_OldStyleWatch(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).
		Group("").Version("v1").Namespace("ns").Resource("pods").
		OldStyleWatch(true).Watch("42")
	u, err := r.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://k.example/api/v1/watch/namespaces/ns/pods?resourceVersion=42", u)
}

func TestURL_RawURI(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).RawURI("/healthz")
	u, err := r.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://k.example/healthz", u)
}

func TestURL_RawURIMustStartWithSlash(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).RawURI("healthz")
	_, err := r.URL()
	require.Error(t, err)
	var cfgErr *request.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestURL_RawURIAndPiecemealConflict(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).
		RawURI("/healthz").Namespace("ns")
	_, err := r.URL()
	require.Error(t, err)
}

// Invariant 1: empty strings normalize to null on all URL-component
// setters.
func TestEmptyStringNormalizesToNil(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).
		Group("").Version("").Namespace("").Resource("").Name("").Subresource("")
	assert.Nil(t, r.GroupOrNil())
	assert.Nil(t, r.VersionOrNil())
	assert.Nil(t, r.NamespaceOrNil())
	assert.Nil(t, r.ResourceOrNil())
	assert.Nil(t, r.NameOrNil())
	assert.Nil(t, r.SubresourceOrNil())
}

func TestReservedHeaderRejected(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).Header("Accept", "text/plain")
	assert.Error(t, r.Err())

	r2 := request.New("https://k.example", noopTransport(), nil).Header("Content-Type", "text/plain")
	assert.Error(t, r2.Err())
}

func TestQueryOrderIsStable(t *testing.T) {
	r := request.New("https://k.example", noopTransport(), nil).
		Group("").Version("v1").Resource("pods").
		Query("b", "2").Query("a", "1").Query("b", "3")
	u, err := r.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://k.example/api/v1/pods?b=2&b=3&a=1", u)
}
