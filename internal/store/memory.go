package store

import (
	"context"
	"sync"
)

// Memory keeps the last saved snapshot in process. Default when neither a
// database URL nor a state file is configured.
type Memory struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewMemory() *Memory {
	return &Memory{snap: NewSnapshot()}
}

func (m *Memory) Load(context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *Memory) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}
