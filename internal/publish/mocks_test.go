package publish

import (
	"context"
	"fmt"
	"sync"

	"github.com/jbweber/splice/internal/storage"
)

// mockVolumeStore is a mock implementation of the VolumeStore interface for testing.
type mockVolumeStore struct {
	mu sync.Mutex

	// volumes maps pool/volume to uploaded data
	volumes map[string][]byte

	// Configurable behavior
	volumeExistsFunc    func(pool, name string) (bool, error)
	createVolumeFunc    func(pool string, spec storage.VolumeSpec) error
	writeVolumeDataFunc func(pool, name string, data []byte) error
	deleteVolumeFunc    func(pool, name string) error

	// Call tracking
	createVolumeCalls    []storage.VolumeSpec
	writeVolumeDataCalls []string
	deleteVolumeCalls    []string
}

// newMockVolumeStore creates a store backed by an in-memory map.
func newMockVolumeStore() *mockVolumeStore {
	m := &mockVolumeStore{volumes: make(map[string][]byte)}

	m.volumeExistsFunc = func(pool, name string) (bool, error) {
		_, ok := m.volumes[pool+"/"+name]
		return ok, nil
	}

	m.createVolumeFunc = func(pool string, spec storage.VolumeSpec) error {
		key := pool + "/" + spec.Name
		if _, ok := m.volumes[key]; ok {
			return fmt.Errorf("storage volume already exists: %s", spec.Name)
		}
		m.volumes[key] = nil
		return nil
	}

	m.writeVolumeDataFunc = func(pool, name string, data []byte) error {
		key := pool + "/" + name
		if _, ok := m.volumes[key]; !ok {
			return fmt.Errorf("storage volume not found: %s", name)
		}
		m.volumes[key] = data
		return nil
	}

	m.deleteVolumeFunc = func(pool, name string) error {
		key := pool + "/" + name
		if _, ok := m.volumes[key]; !ok {
			return fmt.Errorf("storage volume not found: %s", name)
		}
		delete(m.volumes, key)
		return nil
	}

	return m
}

func (m *mockVolumeStore) VolumeExists(ctx context.Context, poolName, volumeName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volumeExistsFunc(poolName, volumeName)
}

func (m *mockVolumeStore) CreateVolume(ctx context.Context, poolName string, spec storage.VolumeSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createVolumeCalls = append(m.createVolumeCalls, spec)
	return m.createVolumeFunc(poolName, spec)
}

func (m *mockVolumeStore) WriteVolumeData(ctx context.Context, poolName, volumeName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeVolumeDataCalls = append(m.writeVolumeDataCalls, volumeName)
	return m.writeVolumeDataFunc(poolName, volumeName, data)
}

func (m *mockVolumeStore) DeleteVolume(ctx context.Context, poolName, volumeName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteVolumeCalls = append(m.deleteVolumeCalls, volumeName)
	return m.deleteVolumeFunc(poolName, volumeName)
}

// testVolume is a minimal composite volume.
type testVolume struct{ name string }

func (v *testVolume) Name() string     { return v.name }
func (v *testVolume) SetParent(string) {}
