// Package request implements the fluent request builder, response
// wrapper, and executor at the core of the client: an immutable-by-clone
// accumulator of HTTP method, URL components, headers, query parameters,
// body, and transport options (spec.md §3, §4.C–§4.E).
package request

import (
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/kubecli/kubecli/pkg/scheme"
)

// KubeObject is any Kubernetes API object carrying both its GVK and its
// object metadata — the shape Set (and the wider Kubernetes ecosystem)
// expects, satisfied by every generated k8s.io/api type.
type KubeObject interface {
	runtime.Object
	metav1.Object
}

// Request is the fluent, immutable-by-clone request accumulator. A zero
// Request is not usable; construct one with New.
type Request struct {
	err error

	method string
	rawURI *string

	group        *string
	version      *string
	namespace    *string
	resourceType *string
	name         *string
	subresource  *string

	accept    string
	mediaType string

	headers *Values
	query   *Values

	body body

	streamResponse bool
	watchVersion   *string
	oldStyleWatch  bool

	scheme      *scheme.Scheme
	transport   Transport
	baseURI     string
	credentials Credentials
}

// New constructs a Request against baseURI using transport and
// credentials. A nil credentials is treated as NoCredentials.
func New(baseURI string, transport Transport, credentials Credentials) *Request {
	if credentials == nil {
		credentials = NoCredentials
	}
	return &Request{
		method:      http.MethodGet,
		accept:      "application/json",
		mediaType:   "application/json",
		headers:     NewValues(),
		query:       NewValues(),
		scheme:      scheme.Default,
		transport:   transport,
		baseURI:     strings.TrimRight(baseURI, "/"),
		credentials: credentials,
	}
}

func normalize(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Err returns the first configuration error recorded by a setter, or nil.
// Setters are no-ops once an error is recorded, so Request accumulates at
// most one ConfigError; it surfaces from URL, Do and BuildUpgradeRequest.
func (r *Request) Err() error { return r.err }

// Method sets the HTTP method. An empty string resets to GET.
func (r *Request) Method(m string) *Request {
	if r.err != nil {
		return r
	}
	if m == "" {
		m = http.MethodGet
	}
	r.method = m
	return r
}

func (r *Request) Get() *Request    { return r.Method(http.MethodGet) }
func (r *Request) Post() *Request   { return r.Method(http.MethodPost) }
func (r *Request) Put() *Request    { return r.Method(http.MethodPut) }
func (r *Request) Delete() *Request { return r.Method(http.MethodDelete) }
func (r *Request) Patch() *Request  { return r.Method(http.MethodPatch) }

// RawURI sets an absolute-path-from-host URI, overriding piecemeal URL
// construction. It must begin with "/"; an empty string clears it.
func (r *Request) RawURI(uri string) *Request {
	if r.err != nil {
		return r
	}
	if uri == "" {
		r.rawURI = nil
		return r
	}
	if !strings.HasPrefix(uri, "/") {
		r.err = &ConfigError{Msg: "rawURI must begin with /"}
		return r
	}
	r.rawURI = &uri
	return r
}

func (r *Request) Group(g string) *Request {
	if r.err != nil {
		return r
	}
	r.group = normalize(g)
	return r
}

func (r *Request) Version(v string) *Request {
	if r.err != nil {
		return r
	}
	r.version = normalize(v)
	return r
}

func (r *Request) Namespace(ns string) *Request {
	if r.err != nil {
		return r
	}
	r.namespace = normalize(ns)
	return r
}

func (r *Request) Resource(t string) *Request {
	if r.err != nil {
		return r
	}
	r.resourceType = normalize(t)
	return r
}

func (r *Request) Name(n string) *Request {
	if r.err != nil {
		return r
	}
	r.name = normalize(n)
	return r
}

func (r *Request) Subresource(s string) *Request {
	if r.err != nil {
		return r
	}
	r.subresource = normalize(s)
	return r
}

// Subresources percent-encodes each segment and joins them with "/" to
// form the subresource path component, e.g. Subresources("scale") or a
// hypothetical multi-segment proxy path.
func (r *Request) Subresources(parts ...string) *Request {
	if r.err != nil {
		return r
	}
	encoded := make([]string, len(parts))
	for i, p := range parts {
		encoded[i] = pathEscape(p)
	}
	r.subresource = normalize(strings.Join(encoded, "/"))
	return r
}

// Status is shorthand for Subresources("status").
func (r *Request) Status() *Request { return r.Subresources("status") }

// GVK resolves apiVersion ("group/version", or bare "version" for the
// core group) and kind into group, version, and a guessed plural path.
func (r *Request) GVK(apiVersion, kind string) *Request {
	if r.err != nil {
		return r
	}
	group, version := scheme.SplitAPIVersion(apiVersion)
	r.group = normalize(group)
	r.version = normalize(version)
	r.resourceType = normalize(scheme.GuessPath(kind))
	return r
}

// Set fills GVK from obj's declared apiVersion/kind if present, otherwise
// from Scheme; sets namespace from obj's metadata; sets name only if
// obj's UID is set (an empty UID means "creating new", so the request
// targets the collection URL, not a member URL). If setBody, obj also
// becomes the request body.
func (r *Request) Set(obj KubeObject, setBody bool) *Request {
	if r.err != nil {
		return r
	}
	gvk := obj.GetObjectKind().GroupVersionKind()
	if gvk.Kind != "" {
		apiVersion := gvk.Version
		if gvk.Group != "" {
			apiVersion = gvk.Group + "/" + gvk.Version
		}
		r.GVK(apiVersion, gvk.Kind)
	} else if r.scheme != nil {
		typeName := reflect.TypeOf(obj).Elem().Name()
		if group, version, _, path, err := r.scheme.GVK(typeName); err == nil {
			r.group = normalize(group)
			r.version = normalize(version)
			r.resourceType = normalize(path)
		}
	}
	if ns := obj.GetNamespace(); ns != "" {
		r.Namespace(ns)
	}
	if obj.GetUID() != "" {
		r.Name(obj.GetName())
	}
	if setBody {
		r.BodyObject(obj)
	}
	return r
}

func (r *Request) Accept(mime string) *Request {
	if r.err != nil {
		return r
	}
	if mime == "" {
		mime = "application/json"
	}
	r.accept = mime
	return r
}

func (r *Request) MediaType(mime string) *Request {
	if r.err != nil {
		return r
	}
	if mime == "" {
		mime = "application/json"
	}
	r.mediaType = mime
	return r
}

var reservedHeaders = map[string]bool{
	"accept":       true,
	"content-type": true,
}

// Header adds a header value. Accept and Content-Type are reserved; use
// Accept/MediaType and the Body setters instead.
func (r *Request) Header(key, value string) *Request {
	if r.err != nil {
		return r
	}
	if reservedHeaders[strings.ToLower(key)] {
		r.err = &ConfigError{Msg: "header " + key + " is reserved"}
		return r
	}
	r.headers.Add(key, value)
	return r
}

// Query adds a query parameter value.
func (r *Request) Query(key, value string) *Request {
	if r.err != nil {
		return r
	}
	r.query.Add(key, value)
	return r
}

// QuerySet replaces all values of a query parameter.
func (r *Request) QuerySet(key, value string) *Request {
	if r.err != nil {
		return r
	}
	r.query.Set(key, value)
	return r
}

// DryRun toggles dryRun=All.
func (r *Request) DryRun(dry bool) *Request {
	if r.err != nil {
		return r
	}
	if dry {
		r.query.Set("dryRun", "All")
	} else {
		r.query.Del("dryRun")
	}
	return r
}

func (r *Request) FieldManager(name string) *Request {
	if r.err != nil {
		return r
	}
	if name == "" {
		r.query.Del("fieldManager")
		return r
	}
	r.query.Set("fieldManager", name)
	return r
}

func (r *Request) FieldSelector(selector string) *Request {
	if r.err != nil {
		return r
	}
	if selector == "" {
		r.query.Del("fieldSelector")
		return r
	}
	r.query.Set("fieldSelector", selector)
	return r
}

func (r *Request) LabelSelector(selector string) *Request {
	if r.err != nil {
		return r
	}
	if selector == "" {
		r.query.Del("labelSelector")
		return r
	}
	r.query.Set("labelSelector", selector)
	return r
}

// Body sets a raw-bytes body.
func (r *Request) Body(raw []byte) *Request {
	if r.err != nil {
		return r
	}
	r.body = body{kind: bodyRaw, raw: raw}
	return r
}

// BodyStream sets a byte-producing stream body.
func (r *Request) BodyStream(s io.Reader) *Request {
	if r.err != nil {
		return r
	}
	r.body = body{kind: bodyStream, stream: s}
	return r
}

// BodyString sets a UTF-8 string body.
func (r *Request) BodyString(s string) *Request {
	if r.err != nil {
		return r
	}
	r.body = body{kind: bodyString, str: s}
	return r
}

// BodyObject sets an object body, JSON-encoded via pkg/codec at
// execution time.
func (r *Request) BodyObject(o any) *Request {
	if r.err != nil {
		return r
	}
	r.body = body{kind: bodyObject, obj: o}
	return r
}

// StreamResponse, when true, returns as soon as headers are available
// instead of buffering the full body.
func (r *Request) StreamResponse(stream bool) *Request {
	if r.err != nil {
		return r
	}
	r.streamResponse = stream
	return r
}

// Watch marks the request as a watch. version is empty to watch from the
// current resource version, or a specific resourceVersion token to
// resume from. A watch request is always completed headers-only.
func (r *Request) Watch(version string) *Request {
	if r.err != nil {
		return r
	}
	r.watchVersion = &version
	return r
}

// NoWatch clears watch mode.
func (r *Request) NoWatch() *Request {
	if r.err != nil {
		return r
	}
	r.watchVersion = nil
	return r
}

// OldStyleWatch selects the /api/v1/watch/... path layout instead of the
// ?watch=1 query form.
func (r *Request) OldStyleWatch(old bool) *Request {
	if r.err != nil {
		return r
	}
	r.oldStyleWatch = old
	return r
}

// IsWatch reports whether the request is configured as a watch.
func (r *Request) IsWatch() bool { return r.watchVersion != nil }

// effectiveStreamResponse reports whether this request must be completed
// headers-only: an explicit StreamResponse(true), or any watch (per the
// "watchVersion != null implies forced streaming" invariant).
func (r *Request) effectiveStreamResponse() bool {
	return r.streamResponse || r.watchVersion != nil
}

// Getters. Every piecemeal URL-component getter returns nil when unset,
// per the empty-string-normalizes-to-null invariant.
func (r *Request) RawURIOrNil() *string       { return clonePtr(r.rawURI) }
func (r *Request) GroupOrNil() *string        { return clonePtr(r.group) }
func (r *Request) VersionOrNil() *string      { return clonePtr(r.version) }
func (r *Request) NamespaceOrNil() *string    { return clonePtr(r.namespace) }
func (r *Request) ResourceOrNil() *string     { return clonePtr(r.resourceType) }
func (r *Request) NameOrNil() *string         { return clonePtr(r.name) }
func (r *Request) SubresourceOrNil() *string  { return clonePtr(r.subresource) }
func (r *Request) WatchVersionOrNil() *string { return clonePtr(r.watchVersion) }
func (r *Request) MethodValue() string        { return r.method }

// Clone deep-copies header/query multimaps and the body (a stream body
// is shared; see body.clone); scheme, transport, and credentials are
// shared references, matching spec.md §4.C's clone() contract.
func (r *Request) Clone() *Request {
	c := *r
	c.headers = r.headers.Clone()
	c.query = r.query.Clone()
	c.body = r.body.clone()
	c.rawURI = clonePtr(r.rawURI)
	c.group = clonePtr(r.group)
	c.version = clonePtr(r.version)
	c.namespace = clonePtr(r.namespace)
	c.resourceType = clonePtr(r.resourceType)
	c.name = clonePtr(r.name)
	c.subresource = clonePtr(r.subresource)
	c.watchVersion = clonePtr(r.watchVersion)
	return &c
}

func pathEscape(s string) string {
	return url.PathEscape(s)
}
