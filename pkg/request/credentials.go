package request

import (
	"context"
	"net/http"
)

// Credentials is the authentication boundary (spec.md §6): an opaque
// collaborator that may mutate outbound request headers. The Executor
// delegates to it unconditionally before headers are finalized, same as
// Kubernetes credential providers (bearer tokens, basic auth, exec
// plugins, signed requests) do against client-go's transport layer.
type Credentials interface {
	Apply(ctx context.Context, header http.Header) error
}

// CredentialsFunc adapts a function to Credentials.
type CredentialsFunc func(ctx context.Context, header http.Header) error

func (f CredentialsFunc) Apply(ctx context.Context, header http.Header) error { return f(ctx, header) }

// BearerToken is Credentials that sets a static Authorization: Bearer
// header. An empty token is a no-op, matching how an unauthenticated
// client is configured in this corpus (no Authorization header at all
// rather than an empty bearer value).
type BearerToken string

func (t BearerToken) Apply(_ context.Context, header http.Header) error {
	if t == "" {
		return nil
	}
	header.Set("Authorization", "Bearer "+string(t))
	return nil
}

// BasicAuth is Credentials that sets HTTP basic authentication.
type BasicAuth struct {
	Username string
	Password string
}

func (b BasicAuth) Apply(_ context.Context, header http.Header) error {
	req := &http.Request{Header: header}
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// NoCredentials is Credentials that never mutates the request.
var NoCredentials Credentials = CredentialsFunc(func(context.Context, http.Header) error { return nil })
