package request

import (
	"bytes"
	"io"
	"reflect"

	"github.com/kubecli/kubecli/pkg/codec"
)

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyRaw
	bodyStream
	bodyString
	bodyObject
)

// body is the tagged union described in spec.md §3: one of {none, raw
// bytes, byte-producing stream, string, arbitrary object to be
// JSON-encoded}.
type body struct {
	kind   bodyKind
	raw    []byte
	stream io.Reader
	str    string
	obj    any
}

// render resolves the body into an io.Reader and the Content-Type value
// it should be sent with, per spec.md §4.E point 3.
func (b body) render(mediaType string) (io.Reader, string, error) {
	switch b.kind {
	case bodyNone:
		return nil, "", nil
	case bodyRaw:
		return bytes.NewReader(b.raw), mediaType + "; charset=UTF-8", nil
	case bodyStream:
		return b.stream, mediaType + "; charset=UTF-8", nil
	case bodyString:
		return bytes.NewReader([]byte(b.str)), "text/plain; charset=UTF-8", nil
	case bodyObject:
		data, err := codec.JSON.Encode(b.obj)
		if err != nil {
			return nil, "", &DecodeError{Err: err}
		}
		return bytes.NewReader(data), mediaType + "; charset=UTF-8", nil
	default:
		return nil, "", nil
	}
}

// clone deep-copies an object body via serialize/deserialize into a new
// value of the same concrete type (spec.md §4.B) and copies raw bytes.
// A stream body is shared, not copied: reading it through one clone
// consumes it for the other.
func (b body) clone() body {
	switch b.kind {
	case bodyRaw:
		cp := make([]byte, len(b.raw))
		copy(cp, b.raw)
		return body{kind: bodyRaw, raw: cp}
	case bodyObject:
		if b.obj == nil {
			return b
		}
		data, err := codec.JSON.Encode(b.obj)
		if err != nil {
			return b
		}
		cp := reflect.New(reflect.TypeOf(b.obj))
		if err := codec.JSON.Decode(data, cp.Interface()); err != nil {
			return b
		}
		return body{kind: bodyObject, obj: cp.Elem().Interface()}
	case bodyString:
		return body{kind: bodyString, str: b.str}
	default:
		return b
	}
}
