package concat

import (
	"context"

	"github.com/jbweber/splice/internal/registry"
)

// Device is a registered storage device offered to the coordinator.
//
// The coordinator never releases a device while its group is pending. Once a
// group is assembled the composite volume owns its member devices and the
// coordinator releases each of them exactly once when the volume goes away.
//
// In production, this is satisfied by *discovery.PoolDevice.
// In tests, this is satisfied by mock implementations.
type Device interface {
	// Name returns the device's name; composite names are built from it
	Name() string

	// Parent returns the name of the device's parent, or "" if it has none
	Parent() string

	// Release returns the device to its owner
	Release() error
}

// Volume is a composite volume built from the members of a complete group.
//
// In production, this is satisfied by *composite.Volume.
type Volume interface {
	// Name returns the composite volume name
	Name() string

	// SetParent records the parent the volume is attached under
	SetParent(parent string)
}

// Builder creates and destroys composite volumes.
//
// In production, this is satisfied by *composite.Builder.
type Builder interface {
	// Create concatenates members, in order, into a composite volume
	Create(ctx context.Context, members []Device, count int, name string) (Volume, error)

	// Destroy tears down a composite volume built by Create
	Destroy(ctx context.Context, vol Volume) error
}

// Publisher makes composite volumes visible to consumers.
//
// In production, this is satisfied by *publish.Table or *publish.PoolPublisher.
type Publisher interface {
	// Publish exposes a volume; it fails if the volume name is taken
	Publish(ctx context.Context, vol Volume) error

	// Unpublish withdraws a volume published by Publish
	Unpublish(ctx context.Context, vol Volume) error
}

// DeclarationSource enumerates group declarations.
//
// In production, this is satisfied by *loader.Source.
type DeclarationSource interface {
	// Declarations returns every group declaration, in declaration order
	Declarations(ctx context.Context) ([]registry.Declaration, error)
}

// DeclarationFunc adapts a function to a DeclarationSource.
type DeclarationFunc func(ctx context.Context) ([]registry.Declaration, error)

// Declarations calls f.
func (f DeclarationFunc) Declarations(ctx context.Context) ([]registry.Declaration, error) {
	return f(ctx)
}

// Declarations wraps a fixed list as a DeclarationSource.
func Declarations(decls ...registry.Declaration) DeclarationSource {
	return DeclarationFunc(func(context.Context) ([]registry.Declaration, error) {
		return decls, nil
	})
}
