package storage

import "fmt"

// PoolType represents the type of storage pool backend.
type PoolType string

const (
	PoolTypeDir     PoolType = "dir"     // Directory-based storage
	PoolTypeLVM     PoolType = "lvm"     // LVM volume group
	PoolTypeZFS     PoolType = "zfs"     // ZFS pool
	PoolTypeNFS     PoolType = "netfs"   // NFS mount
	PoolTypeCeph    PoolType = "rbd"     // Ceph RBD
	PoolTypeISCSI   PoolType = "iscsi"   // iSCSI target
	PoolTypeGluster PoolType = "gluster" // GlusterFS
)

// VolumeType represents the purpose of a storage volume.
type VolumeType string

const (
	VolumeTypeMember     VolumeType = "member"     // Member device of a composite
	VolumeTypeDescriptor VolumeType = "descriptor" // Descriptor ISO of a published composite
)

// VolumeFormat represents the on-disk format.
type VolumeFormat string

const (
	VolumeFormatRaw VolumeFormat = "raw" // Raw format
	VolumeFormatISO VolumeFormat = "iso" // ISO9660 image
)

// VolumeSpec specifies how to create a storage volume.
type VolumeSpec struct {
	Name     string       // Volume name (e.g., "nand0-nand1-concat.iso")
	Type     VolumeType   // Volume type
	Format   VolumeFormat // On-disk format (raw, iso)
	Capacity uint64       // Capacity in bytes
}

// Validate checks if the volume spec is valid.
func (v *VolumeSpec) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("volume name is required")
	}
	if v.Type == "" {
		return fmt.Errorf("volume type is required")
	}
	if v.Format == "" {
		return fmt.Errorf("volume format is required")
	}
	if v.Format != VolumeFormatRaw && v.Format != VolumeFormatISO {
		return fmt.Errorf("invalid volume format: %s (must be raw or iso)", v.Format)
	}
	if v.Capacity == 0 {
		return fmt.Errorf("volume capacity must be greater than 0")
	}
	return nil
}

// PoolInfo contains information about a storage pool.
type PoolInfo struct {
	Name       string   // Pool name
	Type       PoolType // Pool type
	Path       string   // Pool path (for dir-based pools)
	UUID       string   // Pool UUID
	State      string   // Pool state (running, stopped, etc.)
	Capacity   uint64   // Total capacity in bytes
	Allocation uint64   // Allocated space in bytes
	Available  uint64   // Available space in bytes
}

// CapacityGB returns the pool capacity in GB.
func (p *PoolInfo) CapacityGB() float64 {
	return float64(p.Capacity) / (1024 * 1024 * 1024)
}

// AvailableGB returns the pool available space in GB.
func (p *PoolInfo) AvailableGB() float64 {
	return float64(p.Available) / (1024 * 1024 * 1024)
}

// VolumeInfo contains information about a storage volume.
type VolumeInfo struct {
	Name       string `json:"name" yaml:"name"`             // Volume name
	Path       string `json:"path" yaml:"path"`             // Full path to volume
	Pool       string `json:"pool" yaml:"pool"`             // Pool name
	Capacity   uint64 `json:"capacity" yaml:"capacity"`     // Capacity in bytes
	Allocation uint64 `json:"allocation" yaml:"allocation"` // Allocated space in bytes
}

// Default pool configuration.
const (
	// DefaultPublishPool is the pool name for descriptor volumes.
	DefaultPublishPool = "splice-volumes"
	// DefaultPublishPath is the default path for descriptor volumes.
	DefaultPublishPath = "/var/lib/libvirt/images/splice"
)
