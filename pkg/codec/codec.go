// Package codec provides the JSON encoding/decoding used for request
// bodies, response bodies, and Request.Clone. Kubernetes API objects
// (k8s.io/api, k8s.io/apimachinery) already carry the `json:",omitempty"`
// struct tags and string-form enum marshaling that the wire format
// requires, so the codec is a thin, dependency-free wrapper around
// encoding/json rather than a parallel serializer: reimplementing null
// omission or enum string-forms here would only diverge from what the
// generated types already encode.
package codec

import "encoding/json"

// Codec encodes and decodes JSON object graphs.
type Codec struct{}

// JSON is the shared codec used by the request and watch packages.
var JSON = &Codec{}

// Encode marshals v to JSON.
func (c *Codec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode unmarshals data into v.
func (c *Codec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Clone deep-copies v by serializing then deserializing it, the same
// strategy Request.Clone uses for any object-typed body.
func Clone[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
