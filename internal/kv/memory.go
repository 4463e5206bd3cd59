package kv

import "sync"

// Memory keeps namespaces in process memory. Used for tests and for running
// without any durable storage.
type Memory struct {
	mu         sync.Mutex
	namespaces map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{namespaces: map[string]map[string]string{}}
}

func (m *Memory) Open(namespace string, readOnly bool) (Namespace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return &memoryNamespace{entries: newEntries(namespace, readOnly, m.namespaces[namespace]), store: m}, nil
}

type memoryNamespace struct {
	*entries
	store *Memory
}

func (n *memoryNamespace) Close() error {
	dirty, err := n.finish()
	if err != nil || !dirty {
		return err
	}

	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	ns := n.store.namespaces[n.name]
	if ns == nil {
		ns = map[string]string{}
		n.store.namespaces[n.name] = ns
	}
	for k, v := range n.values {
		ns[k] = v
	}
	return nil
}
