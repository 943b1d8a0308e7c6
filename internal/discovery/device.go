package discovery

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jbweber/splice/internal/naming"
	"github.com/jbweber/splice/internal/storage"
)

// ErrAlreadyReleased is returned by Release on a device that was already released.
var ErrAlreadyReleased = errors.New("device already released")

// PoolDevice is a volume in a storage pool offered as a member device.
type PoolDevice struct {
	pool string
	name string
	path string
	size uint64

	mu       sync.Mutex
	released bool
}

// NewPoolDevice creates a device for a volume in pool.
func NewPoolDevice(pool string, info storage.VolumeInfo) *PoolDevice {
	return &PoolDevice{
		pool: pool,
		name: info.Name,
		path: info.Path,
		size: info.Capacity,
	}
}

// ID returns the device identifier, "<pool>/<volume>".
func (d *PoolDevice) ID() string { return naming.DeviceID(d.pool, d.name) }

// Name returns the volume name.
func (d *PoolDevice) Name() string { return d.name }

// Parent returns the pool name.
func (d *PoolDevice) Parent() string { return d.pool }

// Path returns the volume path on the host.
func (d *PoolDevice) Path() string { return d.path }

// Size returns the volume capacity in bytes.
func (d *PoolDevice) Size() uint64 { return d.size }

// EraseSize returns 0; pool volumes have no erase blocks.
func (d *PoolDevice) EraseSize() uint32 { return 0 }

// Release returns the device to its pool. A device can be released once.
func (d *PoolDevice) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return fmt.Errorf("%w: %s", ErrAlreadyReleased, d.ID())
	}
	d.released = true
	return nil
}

// Released reports whether Release was called.
func (d *PoolDevice) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}
