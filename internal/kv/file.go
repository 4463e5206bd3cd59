package kv

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// File persists all namespaces in a single YAML document. The document is
// rewritten through a temporary file and rename on every namespace close
// that carries writes, so a power loss leaves either the old or the new file.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]map[string]string
}

func NewFile(path string) (*File, error) {
	f := &File{path: path, data: map[string]map[string]string{}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logrus.Infof("kv: %s does not exist yet, starting empty", path)
		return f, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "kv: read %s", path)
	}

	if err := yaml.Unmarshal(raw, &f.data); err != nil {
		return nil, errors.Wrapf(err, "kv: decode %s", path)
	}
	if f.data == nil {
		f.data = map[string]map[string]string{}
	}

	return f, nil
}

func (f *File) Open(namespace string, readOnly bool) (Namespace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &fileNamespace{entries: newEntries(namespace, readOnly, f.data[namespace]), store: f}, nil
}

func (f *File) flush(data map[string]map[string]string) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "kv: encode document")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return errors.Wrapf(err, "kv: create temporary file for %s", f.path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "kv: write %s", tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "kv: sync %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "kv: close %s", tmp.Name())
	}

	return errors.Wrapf(os.Rename(tmp.Name(), f.path), "kv: replace %s", f.path)
}

type fileNamespace struct {
	*entries
	store *File
}

func (n *fileNamespace) Close() error {
	dirty, err := n.finish()
	if err != nil || !dirty {
		return err
	}

	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	// the document only changes in memory once it is on disk
	data := make(map[string]map[string]string, len(n.store.data)+1)
	for name, values := range n.store.data {
		data[name] = values
	}
	merged := make(map[string]string, len(n.values))
	for k, v := range n.store.data[n.name] {
		merged[k] = v
	}
	for k, v := range n.values {
		merged[k] = v
	}
	data[n.name] = merged

	if err := n.store.flush(data); err != nil {
		return err
	}
	n.store.data = data

	return nil
}
