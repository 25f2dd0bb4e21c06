package state

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type testNodeState struct {
	Iteration int
	Label     string
}

func TestBundle_WriteAndRead(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	b := New()
	require.NoError(t, b.PutValue("TestNode", testNodeState{Iteration: 3, Label: "r1"}))
	b.Put("raw", []byte{0x01, 0x02})

	// --- Act ---
	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)
	loaded, err := Read(&buf)
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, []string{"TestNode", "raw"}, loaded.Sections())
	var st testNodeState
	require.NoError(t, loaded.GetValue("TestNode", &st))
	assert.Equal(t, testNodeState{Iteration: 3, Label: "r1"}, st)
	raw, ok := loaded.Get("raw")
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02}, raw)
}

func TestBundle_PutCopiesData(t *testing.T) {
	t.Parallel()
	data := []byte("abc")
	b := New()
	b.Put("s", data)
	data[0] = 'z'

	got, _ := b.Get("s")
	assert.Equal(t, "abc", string(got))
}

func TestBundle_ZeroValueAcceptsPut(t *testing.T) {
	t.Parallel()
	var b Bundle
	b.Put("s", []byte("x"))
	assert.Equal(t, []string{"s"}, b.Sections())
}

func TestBundle_Errors(t *testing.T) {
	t.Parallel()
	b := New()

	var v int
	assert.ErrorContains(t, b.GetValue("missing", &v), `no section "missing"`)

	data, err := msgpack.Marshal(map[string]any{"version": 99})
	require.NoError(t, err)
	_, err = Read(bytes.NewReader(data))
	assert.ErrorContains(t, err, "unsupported bundle version 99")

	_, err = Read(bytes.NewReader([]byte{0xc1}))
	assert.ErrorContains(t, err, "decoding bundle")
}
