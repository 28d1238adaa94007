package store

import (
	"bytes"
	"gatebot/internal/structures"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZstdCompression_Roundtrip(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	original := []byte(`{"users":{},"bot_stats":{"total_users":0}}`)
	compressed, err := c.Compress(original)
	require.NoError(t, err)
	assert.True(t, isZstd(compressed))

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestZstdCompression_LargeDataShrinks(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	original := bytes.Repeat([]byte(`{"url":"https://youtu.be/abc","type":"YouTube"},`), 2000)
	compressed, err := c.Compress(original)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(original)/4)
}

func TestZstdCompression_InvalidInput(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Decompress([]byte("definitely not zstd"))
	assert.Error(t, err)
}

func TestNewCompressor_FollowsConfig(t *testing.T) {
	plain, err := NewCompressor(&structures.Config{})
	require.NoError(t, err)
	assert.IsType(t, plainCodec{}, plain)

	conf := &structures.Config{Persistence: structures.Persistence{Compress: true}}
	z, err := NewCompressor(conf)
	require.NoError(t, err)
	defer z.Close()
	assert.IsType(t, &ZstdCompression{}, z)
}
