package store

import (
	"bytes"
	"fmt"
	"gatebot/internal/structures"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}

type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCompression) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/2)), nil
}

func (z *ZstdCompression) Decompress(val []byte) ([]byte, error) {
	return z.decoder.DecodeAll(val, nil)
}

func (z *ZstdCompression) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}

func NewZstdCompressor() (*ZstdCompression, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}

// plainCodec stores the document as readable JSON.
type plainCodec struct{}

func (plainCodec) Compress(val []byte) ([]byte, error)   { return val, nil }
func (plainCodec) Decompress(val []byte) ([]byte, error) { return val, nil }
func (plainCodec) Close()                                {}

// NewCompressor picks the on-disk encoding from persistence.compress.
func NewCompressor(conf *structures.Config) (CompressorInterface, error) {
	if !conf.Persistence.Compress {
		return plainCodec{}, nil
	}
	return NewZstdCompressor()
}

func isZstd(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}
