// Package transport splits arbitrary payloads into bounded, text-safe
// frames for visual-media transfer (QR-style display/rescan) and
// reassembles them on the far side. Rendering and scanning are out of
// scope; this is purely the framing codec.
package transport

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"
)

const (
	// FramePrefix is a wire-format constant; both devices must agree
	// on it.
	FramePrefix = "SGL"

	frameDelim = ":"
	seqDelim   = "/"
)

// Frame is one bounded chunk of an encoded message. Seq is 1-based; a
// message is the ordered concatenation of chunks for seq 1..Total.
type Frame struct {
	Seq   int
	Total int
	Chunk string
}

// String renders the wire form PREFIX:seq/total:chunk.
func (f Frame) String() string {
	return FramePrefix + frameDelim +
		strconv.Itoa(f.Seq) + seqDelim + strconv.Itoa(f.Total) +
		frameDelim + f.Chunk
}

func ParseFrame(s string) (Frame, error) {
	parts := strings.SplitN(s, frameDelim, 3)
	if len(parts) != 3 || parts[0] != FramePrefix {
		return Frame{}, errors.New("malformed frame")
	}

	seqParts := strings.SplitN(parts[1], seqDelim, 2)
	if len(seqParts) != 2 {
		return Frame{}, errors.New("malformed frame sequence")
	}

	seq, err := strconv.Atoi(seqParts[0])
	if err != nil {
		return Frame{}, errors.Wrap(err, "parsing frame seq")
	}

	total, err := strconv.Atoi(seqParts[1])
	if err != nil {
		return Frame{}, errors.Wrap(err, "parsing frame total")
	}

	if seq < 1 || total < 1 || seq > total {
		return Frame{}, errors.New("frame sequence out of range")
	}

	return Frame{Seq: seq, Total: total, Chunk: parts[2]}, nil
}

// IncompleteMessageError names exactly the sequence numbers still
// missing so a caller can re-request only those frames.
type IncompleteMessageError struct {
	Missing []int
}

func (e *IncompleteMessageError) Error() string {
	return fmt.Sprintf("incomplete message: missing frames %v", e.Missing)
}

// Codec compresses payloads and encodes them with an alphabet safe for
// print/display/rescan. Base32 upper stays inside the QR alphanumeric
// character set.
type Codec struct {
	comp Compressor
	enc  multibase.Encoding
}

type Option func(*Codec) error

func WithCompressor(c Compressor) Option {
	return func(cd *Codec) error {
		cd.comp = c
		return nil
	}
}

func WithEncoding(e multibase.Encoding) Option {
	return func(cd *Codec) error {
		cd.enc = e
		return nil
	}
}

func NewCodec(opts ...Option) (*Codec, error) {
	c := &Codec{
		enc: multibase.Base32Upper,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.comp == nil {
		z, err := NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		c.comp = z
	}

	return c, nil
}

// Encode compresses and text-encodes the payload, then splits it into
// chunks of at most maxChunkBytes. Total is fixed for the message.
func (c *Codec) Encode(payload []byte, maxChunkBytes int) ([]Frame, error) {
	if maxChunkBytes <= 0 {
		return nil, errors.New("max chunk bytes must be positive")
	}

	compressed, err := c.comp.Compress(payload)
	if err != nil {
		return nil, errors.Wrap(err, "compressing payload")
	}

	encoded, err := multibase.Encode(c.enc, compressed)
	if err != nil {
		return nil, errors.Wrap(err, "encoding payload")
	}

	total := (len(encoded) + maxChunkBytes - 1) / maxChunkBytes
	if total == 0 {
		total = 1
	}

	frames := make([]Frame, 0, total)
	for i := 0; i < total; i++ {
		start := i * maxChunkBytes
		end := start + maxChunkBytes
		if end > len(encoded) {
			end = len(encoded)
		}

		frames = append(frames, Frame{
			Seq:   i + 1,
			Total: total,
			Chunk: encoded[start:end],
		})
	}

	return frames, nil
}

// Decode reassembles a message from frames in any arrival order,
// de-duplicating by sequence number. Once all of 1..expectedTotal are
// present the chunks are concatenated in sequence order, decoded and
// decompressed; otherwise an *IncompleteMessageError names the missing
// sequence numbers.
func (c *Codec) Decode(frames []Frame, expectedTotal int) ([]byte, error) {
	if expectedTotal < 1 {
		return nil, errors.New("expected total must be positive")
	}

	chunks := make(map[int]string, expectedTotal)

	for _, f := range frames {
		if f.Total != expectedTotal {
			return nil, errors.Errorf("frame total %d does not match expected %d", f.Total, expectedTotal)
		}
		if f.Seq < 1 || f.Seq > expectedTotal {
			return nil, errors.Errorf("frame seq %d out of range", f.Seq)
		}

		if prev, ok := chunks[f.Seq]; ok {
			if prev != f.Chunk {
				return nil, errors.Errorf("conflicting duplicate for frame %d", f.Seq)
			}
			continue
		}

		chunks[f.Seq] = f.Chunk
	}

	var missing []int
	for i := 1; i <= expectedTotal; i++ {
		if _, ok := chunks[i]; !ok {
			missing = append(missing, i)
		}
	}

	if len(missing) != 0 {
		sort.Ints(missing)
		return nil, &IncompleteMessageError{Missing: missing}
	}

	var sb strings.Builder
	for i := 1; i <= expectedTotal; i++ {
		sb.WriteString(chunks[i])
	}

	_, compressed, err := multibase.Decode(sb.String())
	if err != nil {
		return nil, errors.Wrap(err, "decoding payload")
	}

	payload, err := c.comp.Decompress(compressed)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing payload")
	}

	return payload, nil
}
