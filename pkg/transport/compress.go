package transport

import (
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Compressor is the collaborator-supplied compression capability.
type Compressor interface {
	Compress([]byte) ([]byte, error)
	Decompress([]byte) ([]byte, error)
}

var (
	_ Compressor = (*ZstdCompressor)(nil)
	_ Compressor = (*NoopCompressor)(nil)
)

type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewZstdCompressor() (*ZstdCompressor, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd encoder")
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd decoder")
	}

	return &ZstdCompressor{enc: enc, dec: dec}, nil
}

func (z *ZstdCompressor) Compress(d []byte) ([]byte, error) {
	return z.enc.EncodeAll(d, nil), nil
}

func (z *ZstdCompressor) Decompress(d []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(d, nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd decode")
	}

	return out, nil
}

// NoopCompressor passes payloads through untouched. Useful in tests
// and for already-compressed content.
type NoopCompressor struct{}

func (NoopCompressor) Compress(d []byte) ([]byte, error) {
	return d, nil
}

func (NoopCompressor) Decompress(d []byte) ([]byte, error) {
	return d, nil
}
