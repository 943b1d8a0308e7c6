package concat

import (
	"context"
	"fmt"
	"sync"
)

// mockDevice is a device that counts how often it is released.
type mockDevice struct {
	mu sync.Mutex

	name   string
	parent string

	releaseErr   error
	releaseCalls int
}

func newMockDevice(name, parent string) *mockDevice {
	return &mockDevice{name: name, parent: parent}
}

func (d *mockDevice) Name() string   { return d.name }
func (d *mockDevice) Parent() string { return d.parent }

func (d *mockDevice) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releaseCalls++
	return d.releaseErr
}

func (d *mockDevice) released() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releaseCalls
}

// mockVolume records the parent it was attached to.
type mockVolume struct {
	name    string
	parent  string
	members []Device
}

func (v *mockVolume) Name() string            { return v.name }
func (v *mockVolume) SetParent(parent string) { v.parent = parent }

// mockBuilder is a mock implementation of the Builder interface for testing.
type mockBuilder struct {
	mu sync.Mutex

	// Configurable behavior
	createFunc  func(members []Device, count int, name string) (Volume, error)
	destroyFunc func(vol Volume) error

	// Call tracking
	createCalls  []string
	destroyCalls []string
}

func newMockBuilder() *mockBuilder {
	m := &mockBuilder{}

	// Default: create succeeds
	m.createFunc = func(members []Device, count int, name string) (Volume, error) {
		if count != len(members) {
			return nil, fmt.Errorf("count %d does not match %d members", count, len(members))
		}
		return &mockVolume{name: name, members: members}, nil
	}

	// Default: destroy succeeds
	m.destroyFunc = func(vol Volume) error {
		return nil
	}

	return m
}

func (m *mockBuilder) Create(ctx context.Context, members []Device, count int, name string) (Volume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls = append(m.createCalls, name)
	return m.createFunc(members, count, name)
}

func (m *mockBuilder) Destroy(ctx context.Context, vol Volume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyCalls = append(m.destroyCalls, vol.Name())
	return m.destroyFunc(vol)
}

// mockPublisher is a mock implementation of the Publisher interface for testing.
type mockPublisher struct {
	mu sync.Mutex

	// Configurable behavior
	publishFunc   func(vol Volume) error
	unpublishFunc func(vol Volume) error

	// Call tracking
	publishCalls   []string
	unpublishCalls []string

	// calls records publish and unpublish in order, prefixed with "+" or "-"
	calls []string
}

func newMockPublisher() *mockPublisher {
	m := &mockPublisher{}

	// Default: publish succeeds
	m.publishFunc = func(vol Volume) error {
		return nil
	}

	// Default: unpublish succeeds
	m.unpublishFunc = func(vol Volume) error {
		return nil
	}

	return m
}

func (m *mockPublisher) Publish(ctx context.Context, vol Volume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishCalls = append(m.publishCalls, vol.Name())
	m.calls = append(m.calls, "+"+vol.Name())
	return m.publishFunc(vol)
}

func (m *mockPublisher) Unpublish(ctx context.Context, vol Volume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unpublishCalls = append(m.unpublishCalls, vol.Name())
	m.calls = append(m.calls, "-"+vol.Name())
	return m.unpublishFunc(vol)
}
