package discovery

import (
	"context"

	"github.com/jbweber/splice/internal/concat"
	"github.com/jbweber/splice/internal/storage"
)

// VolumeLister enumerates the volumes of storage pools.
//
// In production, this is satisfied by *storage.Manager.
// In tests, this is satisfied by mock implementations.
type VolumeLister interface {
	// RefreshPool rescans a pool for volumes added outside libvirt
	RefreshPool(ctx context.Context, name string) error

	// ListVolumes lists all volumes in a pool
	ListVolumes(ctx context.Context, poolName string) ([]storage.VolumeInfo, error)
}

// Registrar receives device registrations.
//
// In production, this is satisfied by *concat.Coordinator.
type Registrar interface {
	// OnDeviceRegistered offers a device under its identifier
	OnDeviceRegistered(ctx context.Context, id string, dev concat.Device) (concat.Action, error)
}
