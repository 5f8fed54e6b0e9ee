package request_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubecli/kubecli/internal/test"
	"github.com/kubecli/kubecli/pkg/request"
)

// Invariant 3: executing the same Request twice produces two independent
// HTTP calls with byte-identical outbound representations.
func TestExecutionIdempotence(t *testing.T) {
	transport := test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		return test.JSONResponse(http.StatusOK, `{}`), nil
	})
	r := request.New("https://k.example", transport, request.BearerToken("tok")).
		Group("").Version("v1").Resource("pods")

	_, err := r.Do(context.Background())
	require.NoError(t, err)
	_, err = r.Do(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, transport.Count())
	assert.Equal(t, transport.Requests[0].URL.String(), transport.Requests[1].URL.String())
	assert.Equal(t, transport.Requests[0].Method, transport.Requests[1].Method)
	assert.Equal(t, transport.Requests[0].Header.Get("Authorization"), transport.Requests[1].Header.Get("Authorization"))
}

// Invariant 4: body selection by kind.
func TestBodySelection_Raw(t *testing.T) {
	var captured []byte
	transport := test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		captured, _ = io.ReadAll(r.Body)
		return test.JSONResponse(http.StatusOK, `{}`), nil
	})
	r := request.New("https://k.example", transport, nil).
		Group("").Version("v1").Resource("pods").Post().Body([]byte(`raw-bytes`))
	_, err := r.Do(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "raw-bytes", string(captured))
}

func TestBodySelection_Stream(t *testing.T) {
	var captured []byte
	transport := test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		captured, _ = io.ReadAll(r.Body)
		return test.JSONResponse(http.StatusOK, `{}`), nil
	})
	r := request.New("https://k.example", transport, nil).
		Group("").Version("v1").Resource("pods").Post().BodyStream(bytes.NewBufferString("streamed"))
	_, err := r.Do(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(captured))
}

func TestBodySelection_String(t *testing.T) {
	var captured []byte
	var contentType string
	transport := test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		captured, _ = io.ReadAll(r.Body)
		contentType = r.Header.Get("Content-Type")
		return test.JSONResponse(http.StatusOK, `{}`), nil
	})
	r := request.New("https://k.example", transport, nil).
		Group("").Version("v1").Resource("pods").Post().BodyString("hello")
	_, err := r.Do(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(captured))
	assert.Contains(t, contentType, "text/plain")
}

func TestBodySelection_ObjectOmitsNullFields(t *testing.T) {
	var captured []byte
	transport := test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		captured, _ = io.ReadAll(r.Body)
		return test.JSONResponse(http.StatusOK, `{}`), nil
	})
	pod := &corev1.Pod{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Pod"},
		ObjectMeta: metav1.ObjectMeta{Name: "p"},
	}
	r := request.New("https://k.example", transport, nil).Set(pod, true).Post()
	_, err := r.Do(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, string(captured), `"namespace"`)
	assert.Contains(t, string(captured), `"name":"p"`)
}

func TestDoOrDie_RaisesOnNonNotFoundError(t *testing.T) {
	transport := test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		return test.JSONResponse(http.StatusInternalServerError, `{"kind":"Status","status":"Failure","message":"boom"}`), nil
	})
	r := request.New("https://k.example", transport, nil).Group("").Version("v1").Resource("pods")
	_, err := r.DoOrDie(context.Background())
	require.Error(t, err)
	var statusErr *request.HttpStatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestDoOrDie_DoesNotRaiseOn404(t *testing.T) {
	transport := test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		return test.JSONResponse(http.StatusNotFound, `{"kind":"Status","status":"Failure"}`), nil
	})
	r := request.New("https://k.example", transport, nil).Group("").Version("v1").Resource("pods").Name("missing")
	resp, err := r.DoOrDie(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.IsNotFound())
}

func TestInto_404ReturnsZeroValueUnlessThrowIfMissing(t *testing.T) {
	transport := test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		return test.JSONResponse(http.StatusNotFound, `{"kind":"Status","status":"Failure"}`), nil
	})
	r := request.New("https://k.example", transport, nil).Group("").Version("v1").Resource("pods").Name("missing")

	pod, err := request.Into[*corev1.Pod](context.Background(), r, false)
	require.NoError(t, err)
	assert.Nil(t, pod)

	_, err = request.Into[*corev1.Pod](context.Background(), r, true)
	require.Error(t, err)
	assert.True(t, request.IsNotFound(err))
}

func TestInto_DecodesOnSuccess(t *testing.T) {
	transport := test.NewFakeTransport(func(r *http.Request) (*http.Response, error) {
		return test.JSONResponse(http.StatusOK, `{"apiVersion":"v1","kind":"Pod","metadata":{"name":"p"}}`), nil
	})
	r := request.New("https://k.example", transport, nil).Group("").Version("v1").Resource("pods").Name("p")
	pod, err := request.Into[*corev1.Pod](context.Background(), r, false)
	require.NoError(t, err)
	require.NotNil(t, pod)
	assert.Equal(t, "p", pod.Name)
}

// modeTransport records the CompletionMode its last Send was called with.
type modeTransport struct {
	mode request.CompletionMode
}

func (m *modeTransport) Send(_ context.Context, _ *http.Request, mode request.CompletionMode) (*http.Response, error) {
	m.mode = mode
	return test.JSONResponse(http.StatusOK, `{}`), nil
}

func TestDo_StreamRequestUsesHeadersOnlyCompletion(t *testing.T) {
	transport := &modeTransport{mode: request.CompletionFullBuffer}
	r := request.New("https://k.example", transport, nil).
		Group("").Version("v1").Resource("pods").Name("p").Watch("")
	resp, err := r.Do(context.Background())
	require.NoError(t, err)
	assert.Equal(t, request.CompletionHeadersOnly, transport.mode)
	assert.NotNil(t, resp.BodyStream())
}
