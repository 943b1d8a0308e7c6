package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jbweber/splice/internal/concat"
	"github.com/jbweber/splice/internal/descriptor"
	"github.com/jbweber/splice/internal/naming"
	"github.com/jbweber/splice/internal/storage"
)

// PoolPublisher publishes composite volumes as descriptor images in a
// libvirt storage pool.
type PoolPublisher struct {
	store  VolumeStore
	pool   string
	logger *slog.Logger
}

// PoolOption configures a PoolPublisher.
type PoolOption func(*PoolPublisher)

// WithPoolLogger sets the logger used for cleanup warnings.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *PoolPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPoolPublisher creates a publisher writing descriptors into pool.
func NewPoolPublisher(store VolumeStore, pool string, opts ...PoolOption) *PoolPublisher {
	p := &PoolPublisher{
		store:  store,
		pool:   pool,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pool returns the name of the pool descriptors are written to.
func (p *PoolPublisher) Pool() string { return p.pool }

// Publish writes the descriptor of vol to the pool.
//
// Steps:
//  1. Check the descriptor name is free
//  2. Generate the descriptor image
//  3. Create the descriptor volume sized to the image
//  4. Upload the image, deleting the volume again if the upload fails
func (p *PoolPublisher) Publish(ctx context.Context, vol concat.Volume) error {
	name := naming.DescriptorVolumeName(vol.Name())

	exists, err := p.store.VolumeExists(ctx, p.pool, name)
	if err != nil {
		return fmt.Errorf("failed to check descriptor volume: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %q in pool %q", ErrNameCollision, name, p.pool)
	}

	image, err := descriptor.GenerateISO(descriptor.FromVolume(vol))
	if err != nil {
		return fmt.Errorf("failed to generate descriptor: %w", err)
	}

	spec := storage.VolumeSpec{
		Name:     name,
		Type:     storage.VolumeTypeDescriptor,
		Format:   storage.VolumeFormatISO,
		Capacity: uint64(len(image)),
	}
	if err := p.store.CreateVolume(ctx, p.pool, spec); err != nil {
		return fmt.Errorf("failed to create descriptor volume: %w", err)
	}

	if err := p.store.WriteVolumeData(ctx, p.pool, name, image); err != nil {
		if delErr := p.store.DeleteVolume(ctx, p.pool, name); delErr != nil {
			p.logger.Warn("failed to delete descriptor volume after upload error",
				"volume", name, "pool", p.pool, "error", delErr)
		}
		return fmt.Errorf("failed to upload descriptor: %w", err)
	}

	p.logger.Info("descriptor published", "volume", name, "pool", p.pool, "bytes", len(image))
	return nil
}

// Unpublish deletes the descriptor of vol from the pool.
func (p *PoolPublisher) Unpublish(ctx context.Context, vol concat.Volume) error {
	return p.Remove(ctx, vol.Name())
}

// Remove deletes the descriptor of the composite named name.
func (p *PoolPublisher) Remove(ctx context.Context, name string) error {
	volName := naming.DescriptorVolumeName(name)

	exists, err := p.store.VolumeExists(ctx, p.pool, volName)
	if err != nil {
		return fmt.Errorf("failed to check descriptor volume: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %q in pool %q", ErrNotPublished, volName, p.pool)
	}

	if err := p.store.DeleteVolume(ctx, p.pool, volName); err != nil {
		return fmt.Errorf("failed to delete descriptor volume: %w", err)
	}

	p.logger.Info("descriptor removed", "volume", volName, "pool", p.pool)
	return nil
}
