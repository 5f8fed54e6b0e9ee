package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name      string `json:"name"`
	Replicas  int    `json:"replicas,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	data, err := JSON.Encode(widget{Name: "w1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"w1"}`, string(data))
}

func TestDecodeRoundTrip(t *testing.T) {
	var w widget
	require.NoError(t, JSON.Decode([]byte(`{"name":"w1","replicas":3}`), &w))
	assert.Equal(t, widget{Name: "w1", Replicas: 3}, w)
}

func TestCloneIndependence(t *testing.T) {
	orig := &widget{Name: "w1", Replicas: 2}
	clone, err := Clone(orig)
	require.NoError(t, err)
	clone.Name = "w2"
	assert.Equal(t, "w1", orig.Name)
	assert.Equal(t, "w2", clone.Name)
}
