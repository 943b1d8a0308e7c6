package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/jbweber/splice/internal/concat"
	"github.com/jbweber/splice/internal/storage"
)

// mockVolumeLister is a mock implementation of the VolumeLister interface for testing.
type mockVolumeLister struct {
	pools map[string][]storage.VolumeInfo

	refreshErr error

	refreshCalls []string
}

func newMockVolumeLister() *mockVolumeLister {
	return &mockVolumeLister{pools: make(map[string][]storage.VolumeInfo)}
}

func (m *mockVolumeLister) RefreshPool(ctx context.Context, name string) error {
	m.refreshCalls = append(m.refreshCalls, name)
	if m.refreshErr != nil {
		return m.refreshErr
	}
	if _, ok := m.pools[name]; !ok {
		return fmt.Errorf("pool not found: %s", name)
	}
	return nil
}

func (m *mockVolumeLister) ListVolumes(ctx context.Context, poolName string) ([]storage.VolumeInfo, error) {
	vols, ok := m.pools[poolName]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", poolName)
	}
	return vols, nil
}

// mockRegistrar records registrations and answers with a fixed action.
type mockRegistrar struct {
	mu sync.Mutex

	registerFunc func(id string) (concat.Action, error)

	calls []string
}

func newMockRegistrar() *mockRegistrar {
	return &mockRegistrar{
		registerFunc: func(id string) (concat.Action, error) {
			return concat.ActionPending, nil
		},
	}
}

func (m *mockRegistrar) OnDeviceRegistered(ctx context.Context, id string, dev concat.Device) (concat.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	return m.registerFunc(id)
}
