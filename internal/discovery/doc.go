// Package discovery finds the storage devices offered to the assembly
// coordinator.
//
// Devices are volumes in libvirt storage pools. Each volume becomes a
// PoolDevice identified as "<pool>/<volume>" and parented to its pool.
// Descriptor volumes written by the pool publisher are never offered as
// devices.
//
// Static builds the same registrations from a fixed list of identifiers,
// for offline runs and tests. Shuffle reorders registrations so callers can
// exercise arbitrary arrival order.
package discovery
