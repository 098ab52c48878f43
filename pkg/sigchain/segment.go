package sigchain

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// MarshalSegment serializes an ordered link sequence for transfer or
// audit export. Field order inside each link is fixed by the link wire
// format, keeping hashes reproducible across implementations.
func MarshalSegment(links []*Link) ([]byte, error) {
	raw := make([][]byte, 0, len(links))

	for _, l := range links {
		d, err := l.Marshal()
		if err != nil {
			return nil, err
		}
		raw = append(raw, d)
	}

	d, err := msgpack.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling segment")
	}

	return d, nil
}

func UnmarshalSegment(d []byte) ([]*Link, error) {
	var raw [][]byte
	if err := msgpack.Unmarshal(d, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshaling segment")
	}

	links := make([]*Link, 0, len(raw))
	for _, ld := range raw {
		l := &Link{}
		if err := l.Unmarshal(ld); err != nil {
			return nil, err
		}
		links = append(links, l)
	}

	return links, nil
}
