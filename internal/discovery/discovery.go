package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/jbweber/splice/internal/concat"
	"github.com/jbweber/splice/internal/naming"
	"github.com/jbweber/splice/internal/storage"
)

// Registration is a device together with the identifier it registers under.
type Registration struct {
	ID     string
	Device concat.Device
}

// Discover lists the volumes of each pool, in pool order, as registrations.
// Pools are refreshed first so volumes copied in by hand are picked up.
// Descriptor volumes are skipped.
func Discover(ctx context.Context, lister VolumeLister, pools []string) ([]Registration, error) {
	var regs []Registration
	for _, pool := range pools {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := lister.RefreshPool(ctx, pool); err != nil {
			return nil, fmt.Errorf("failed to refresh pool %q: %w", pool, err)
		}

		vols, err := lister.ListVolumes(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("failed to list volumes in pool %q: %w", pool, err)
		}

		for _, v := range vols {
			if naming.IsDescriptorVolume(v.Name) {
				continue
			}
			dev := NewPoolDevice(pool, v)
			regs = append(regs, Registration{ID: dev.ID(), Device: dev})
		}
	}
	return regs, nil
}

// Static builds registrations from "<pool>/<volume>" identifiers. Every
// device has the given size.
func Static(size uint64, ids ...string) ([]Registration, error) {
	regs := make([]Registration, 0, len(ids))
	for _, id := range ids {
		pool, vol, err := naming.ParseDeviceID(id)
		if err != nil {
			return nil, err
		}
		dev := NewPoolDevice(pool, storage.VolumeInfo{Name: vol, Pool: pool, Capacity: size})
		regs = append(regs, Registration{ID: dev.ID(), Device: dev})
	}
	return regs, nil
}

// Shuffle reorders regs in place.
func Shuffle(regs []Registration, r *rand.Rand) {
	r.Shuffle(len(regs), func(i, j int) {
		regs[i], regs[j] = regs[j], regs[i]
	})
}

// Register offers every registration to r, in order. A failure for one
// device does not stop the others; all errors are returned joined.
// The returned map counts the action taken for each device.
func Register(ctx context.Context, r Registrar, regs []Registration, logger *slog.Logger) (map[concat.Action]int, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	counts := make(map[concat.Action]int)
	var errs []error
	for _, reg := range regs {
		action, err := r.OnDeviceRegistered(ctx, reg.ID, reg.Device)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reg.ID, err))
			if errors.Is(err, concat.ErrClosed) {
				break
			}
		}
		counts[action]++
		logger.Debug("device registered", "device", reg.ID, "action", action)
	}
	return counts, errors.Join(errs...)
}
