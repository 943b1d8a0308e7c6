// Package storage provides libvirt storage pool and volume management.
//
// This package handles the storage operations splice needs:
//   - Pool lifecycle (ensure, create, refresh, inspect)
//   - Volume operations (create, delete, list, upload)
//   - Format detection for descriptor images (ISO9660 vs raw)
//
// Storage Architecture:
//
// Member devices are volumes in one or more source pools chosen by the
// operator. Published composite volumes are represented by descriptor
// volumes in a single publication pool:
//   - splice-volumes: descriptor ISOs of published composites
//
// Volume Naming Convention:
//
// Volumes follow a predictable naming pattern (see internal/naming package):
//   - Member device: {pool}/{volume} identifier, volume name unchanged
//   - Descriptor: {composite-name}.iso
//
// Consumer-Side Interface:
//
// The LibvirtClient interface lists only the libvirt operations this package
// uses; *libvirt.Libvirt satisfies it. Consumers (internal/publish,
// internal/discovery) in turn define the subset of Manager methods they need.
//
// Example usage:
//
//	client, err := libvirt.Connect()
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	mgr := storage.NewManager(client.Libvirt())
//
//	if err := mgr.EnsurePool(ctx, storage.DefaultPublishPool, storage.PoolTypeDir, storage.DefaultPublishPath); err != nil {
//	    return err
//	}
//
//	spec := storage.VolumeSpec{
//	    Name:     "nand0-nand1-concat.iso",
//	    Type:     storage.VolumeTypeDescriptor,
//	    Format:   storage.VolumeFormatRaw,
//	    Capacity: uint64(len(iso)),
//	}
//	if err := mgr.CreateVolume(ctx, storage.DefaultPublishPool, spec); err != nil {
//	    return err
//	}
package storage
