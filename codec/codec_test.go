package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type meta struct {
	Dims   int    `json:"dims" yaml:"dims"`
	Height int    `json:"height" yaml:"height"`
	Codec  string `json:"codec" yaml:"codec"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "yaml"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("gob")
	assert.False(t, ok)
}

func TestJSON(t *testing.T) {
	in := meta{Dims: 3, Height: 2, Codec: "json"}
	data := MustMarshal(nil, in)
	assert.JSONEq(t, `{"dims":3,"height":2,"codec":"json"}`, string(data))

	var out meta
	require.NoError(t, Default.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, JSON{}.Unmarshal([]byte("{"), &out))
	assert.Error(t, JSON{}.Unmarshal([]byte(`{"dims":3,"fanout":9}`), &out), "unknown field")
	assert.Error(t, JSON{}.Unmarshal([]byte(`{"dims":3} {"dims":4}`), &out), "trailing value")
}

func TestYAML(t *testing.T) {
	in := meta{Dims: 2, Height: 5, Codec: "yaml"}
	data := MustMarshal(YAML{}, in)
	assert.YAMLEq(t, "dims: 2\nheight: 5\ncodec: yaml\n", string(data))

	var out meta
	require.NoError(t, YAML{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, YAML{}.Unmarshal([]byte("dims: 2\nfanout: 9\n"), &out), "unknown field")
	assert.Error(t, YAML{}.Unmarshal(nil, &out), "empty document")
}

func TestMustMarshal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
}
