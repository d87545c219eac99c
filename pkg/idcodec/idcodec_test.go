package idcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := New("iroy-public-ids")
	require.NoError(t, err)

	ids := []string{
		"550e8400-e29b-41d4-a716-446655440000",
		"a",
		"centre-123",
	}

	for _, id := range ids {
		code := codec.Encode(id)
		assert.NotEqual(t, id, code)

		decoded, err := codec.Decode(code)
		assert.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestCodec_Deterministic(t *testing.T) {
	codec, err := New("iroy-public-ids")
	require.NoError(t, err)

	assert.Equal(t, codec.Encode("abc"), codec.Encode("abc"))
}

func TestCodec_InvalidCode(t *testing.T) {
	codec, err := New("iroy-public-ids")
	require.NoError(t, err)

	_, err = codec.Decode("not base32 !!!")
	assert.Error(t, err)
}

func TestNew_EmptyKey(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
