package request

import (
	"net/url"
	"strings"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// hasPiecemeal reports whether any piecemeal URL component is set.
func (r *Request) hasPiecemeal() bool {
	return r.group != nil || r.version != nil || r.namespace != nil ||
		r.resourceType != nil || r.name != nil || r.subresource != nil
}

// URL renders the request's target URL, per spec.md §4.C:
//
//	{base}/{apis/<group> | api}/<version>[/watch][/namespaces/<ns>]/<type>[/<name>][/<subresource>]
//
// followed by ?k=v&... from query in insertion order, and finally
// watch=1[&resourceVersion=<v>] when the request is a watch.
func (r *Request) URL() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.baseURI == "" {
		return "", &ConfigError{Msg: "base URI is required"}
	}
	if r.rawURI != nil && r.hasPiecemeal() {
		return "", &ConfigError{Msg: "rawURI and piecemeal URL components are mutually exclusive"}
	}
	var b strings.Builder
	b.WriteString(r.baseURI)

	if r.rawURI != nil {
		b.WriteString("/")
		b.WriteString(strings.TrimPrefix(*r.rawURI, "/"))
	} else {
		group := deref(r.group)
		version := deref(r.version)
		if group == "" {
			b.WriteString("/api")
		} else {
			b.WriteString("/apis/")
			b.WriteString(group)
		}
		if version != "" {
			b.WriteString("/")
			b.WriteString(version)
		}
		if r.oldStyleWatch && r.watchVersion != nil {
			b.WriteString("/watch")
		}
		if ns := deref(r.namespace); ns != "" {
			b.WriteString("/namespaces/")
			b.WriteString(ns)
		}
		if t := deref(r.resourceType); t != "" {
			b.WriteString("/")
			b.WriteString(t)
		}
		if n := deref(r.name); n != "" {
			b.WriteString("/")
			b.WriteString(n)
		}
		if sr := deref(r.subresource); sr != "" {
			b.WriteString("/")
			b.WriteString(sr)
		}
	}

	query := r.query.Clone()
	if r.watchVersion != nil {
		if r.oldStyleWatch {
			if *r.watchVersion != "" {
				query.Set("resourceVersion", *r.watchVersion)
			}
		} else {
			query.Set("watch", "1")
			if *r.watchVersion != "" {
				query.Set("resourceVersion", *r.watchVersion)
			}
		}
	}

	if query.Len() > 0 {
		b.WriteString("?")
		b.WriteString(encodeOrdered(query))
	}

	return b.String(), nil
}

// encodeOrdered renders query parameters in key-insertion order, unlike
// net/url.Values.Encode which sorts keys alphabetically.
func encodeOrdered(v *Values) string {
	var b strings.Builder
	first := true
	for _, k := range v.Keys() {
		for _, val := range v.Values(k) {
			if !first {
				b.WriteString("&")
			}
			first = false
			b.WriteString(url.QueryEscape(k))
			b.WriteString("=")
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}
