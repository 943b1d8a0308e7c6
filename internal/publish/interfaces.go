package publish

import (
	"context"

	"github.com/jbweber/splice/internal/storage"
)

// VolumeStore is the subset of storage operations PoolPublisher needs.
//
// In production, this is satisfied by *storage.Manager.
// In tests, this is satisfied by mock implementations.
type VolumeStore interface {
	// VolumeExists checks if a volume exists in a pool
	VolumeExists(ctx context.Context, poolName, volumeName string) (bool, error)

	// CreateVolume creates a new volume in a pool
	CreateVolume(ctx context.Context, poolName string, spec storage.VolumeSpec) error

	// WriteVolumeData uploads data to a volume
	WriteVolumeData(ctx context.Context, poolName, volumeName string, data []byte) error

	// DeleteVolume deletes a volume from a pool
	DeleteVolume(ctx context.Context, poolName, volumeName string) error
}
