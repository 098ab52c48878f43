// Package keys loads device signing keys from a YAML key file. Key
// material is owned here, outside the chain core, and handed to it as
// a cryptography.Signer capability.
package keys

import (
	"io/ioutil"
	"os"
	"sync"

	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tcfw/sigil/pkg/cryptography"
)

type keyFile struct {
	Keys []keyFileEntry `yaml:"keys"`
}

type keyFileEntry struct {
	Device string `yaml:"device"`
	Type   string `yaml:"type"`
	Data   string `yaml:"data"`
}

type FileStore struct {
	path string
	keys keyFile
	idx  map[string]cryptography.Signer

	mu sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	f := &FileStore{path: path}
	if err := f.read(); err != nil {
		return nil, err
	}

	return f, nil
}

func (fs *FileStore) read() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.OpenFile(fs.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return errors.Wrap(err, "opening key file for read")
	}
	defer f.Close()

	d, err := ioutil.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "reading key file")
	}

	if err := yaml.Unmarshal(d, &fs.keys); err != nil {
		return errors.Wrap(err, "unmarshalling key data")
	}

	return fs.buildIdx()
}

func (fs *FileStore) buildIdx() error {
	//assumes locked fs.mu

	fs.idx = make(map[string]cryptography.Signer, len(fs.keys.Keys))

	for _, e := range fs.keys.Keys {
		_, raw, err := multibase.Decode(e.Data)
		if err != nil {
			return errors.Wrap(err, "decoding key data")
		}

		s, err := cryptography.NewSignerFromBytes(e.Type, raw)
		if err != nil {
			return errors.Wrap(err, "decoding key")
		}

		fs.idx[e.Device] = s
	}

	return nil
}

// Signer returns the signing key for a device, or nil when the device
// has no key configured.
func (fs *FileStore) Signer(device string) cryptography.Signer {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.idx[device]
}

// Add stores a new device key and writes the key file back out.
func (fs *FileStore) Add(device, keyType string, s cryptography.Signer) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	raw, err := s.Bytes()
	if err != nil {
		return errors.Wrap(err, "encoding key")
	}

	data, err := multibase.Encode(multibase.Base58BTC, raw)
	if err != nil {
		return errors.Wrap(err, "encoding key data")
	}

	fs.keys.Keys = append(fs.keys.Keys, keyFileEntry{
		Device: device,
		Type:   keyType,
		Data:   data,
	})
	fs.idx[device] = s

	return fs.write()
}

func (fs *FileStore) write() error {
	//assumes locked fs.mu

	d, err := yaml.Marshal(&fs.keys)
	if err != nil {
		return errors.Wrap(err, "marshalling key data")
	}

	if err := ioutil.WriteFile(fs.path, d, 0600); err != nil {
		return errors.Wrap(err, "writing key file")
	}

	return nil
}
