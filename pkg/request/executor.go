package request

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kubecli/kubecli/internal/kubelog"
)

var tracer = otel.Tracer("github.com/kubecli/kubecli/pkg/request")

// build renders the Request into an *http.Request. Requests are never
// mutated by execution, so concurrent executions of the same Request are
// safe: build reads only the (already-finalized) fields.
func (r *Request) build(ctx context.Context) (*http.Request, error) {
	target, err := r.URL()
	if err != nil {
		return nil, err
	}
	bodyReader, contentType, err := r.body.render(r.mediaType)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	for _, k := range r.headers.Keys() {
		for _, v := range r.headers.Values(k) {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", r.accept)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

// BuildUpgradeRequest renders the Request into an *http.Request with
// credentials applied, without sending it through Transport. Meant for
// callers (such as pkg/exec) that need to perform their own connection
// upgrade rather than go through the Transport/Response boundary, which
// only deals in completed *http.Response values.
func (r *Request) BuildUpgradeRequest(ctx context.Context) (*http.Request, error) {
	if r.err != nil {
		return nil, r.err
	}
	httpReq, err := r.build(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.credentials.Apply(ctx, httpReq.Header); err != nil {
		return nil, &TransportError{Err: err}
	}
	return httpReq, nil
}

// Do renders and sends the request (spec.md §4.E): applies credentials,
// completes headers-only when streaming or watching, full-buffer
// otherwise. It never raises on a non-success HTTP response; use DoOrDie
// or Into for convenience APIs that do.
func (r *Request) Do(ctx context.Context) (*Response, error) {
	ctx, span := tracer.Start(ctx, "request.Do", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if r.err != nil {
		return nil, r.err
	}
	httpReq, err := r.build(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.credentials.Apply(ctx, httpReq.Header); err != nil {
		return nil, &TransportError{Err: err}
	}
	mode := CompletionFullBuffer
	stream := r.effectiveStreamResponse()
	if stream {
		mode = CompletionHeadersOnly
	}
	if kubelog.V(kubelog.VRequest).Enabled() {
		kubelog.Infof("%s %s", httpReq.Method, httpReq.URL.String())
	}
	httpResp, err := r.transport.Send(ctx, httpReq, mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &TransportError{Err: err}
	}
	return newResponse(httpResp, stream), nil
}

// DoOrDie is Do with throwIfFailed=true: any error response other than
// 404 raises an HttpStatusError carrying the decoded Status.
func (r *Request) DoOrDie(ctx context.Context) (*Response, error) {
	resp, err := r.Do(ctx)
	if err != nil {
		return nil, err
	}
	if resp.IsError() && !resp.IsNotFound() {
		status, _ := resp.Status()
		statusErr := newStatusError(resp.StatusCode(), status)
		_ = resp.Close()
		return nil, statusErr
	}
	return resp, nil
}

// Into executes the request, buffers the body, and JSON-decodes it into
// v. Any non-success response (including 404) raises.
func (r *Request) Into(ctx context.Context, v any) error {
	resp, err := r.Do(ctx)
	if err != nil {
		return err
	}
	defer resp.Close()
	if resp.IsError() {
		status, _ := resp.Status()
		return newStatusError(resp.StatusCode(), status)
	}
	return resp.Into(v)
}

// Into executes req, buffers the body, and decodes it as T. A 404
// response returns T's zero value unless throwIfMissing; any other
// non-success response raises.
func Into[T any](ctx context.Context, req *Request, throwIfMissing bool) (T, error) {
	var zero T
	resp, err := req.Do(ctx)
	if err != nil {
		return zero, err
	}
	defer resp.Close()
	if resp.IsNotFound() {
		if throwIfMissing {
			status, _ := resp.Status()
			return zero, newStatusError(resp.StatusCode(), status)
		}
		return zero, nil
	}
	if resp.IsError() {
		status, _ := resp.Status()
		return zero, newStatusError(resp.StatusCode(), status)
	}
	var out T
	if err := resp.Into(&out); err != nil {
		return zero, err
	}
	return out, nil
}
