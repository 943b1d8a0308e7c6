// Package composite builds composite volumes: an ordered concatenation of
// member devices addressed as one linear volume.
//
// Member i is mapped directly after member i-1, so the span table of a
// volume is the running sum of its members' sizes. Address translation for
// reads and writes is left to the consumer of the span table.
package composite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jbweber/splice/internal/concat"
	"github.com/jbweber/splice/internal/registry"
)

var (
	// ErrMemberCount is returned when the member list does not match the
	// declared count or is shorter than a concatenation allows.
	ErrMemberCount = errors.New("invalid member count")

	// ErrIncompatible is returned when members cannot be concatenated.
	ErrIncompatible = errors.New("incompatible members")

	// ErrNotOwned is returned by Destroy for a volume this builder did not create
	// or has already destroyed.
	ErrNotOwned = errors.New("volume not owned by builder")
)

// Geometry is implemented by devices that know their size. Devices without
// geometry are concatenated with a size of zero.
type Geometry interface {
	// Size returns the device size in bytes
	Size() uint64

	// EraseSize returns the erase block size in bytes, or 0 if not applicable
	EraseSize() uint32
}

// Span maps one member into the composite's address space.
type Span struct {
	Member string `json:"member" yaml:"member"`
	Offset uint64 `json:"offset" yaml:"offset"`
	Size   uint64 `json:"size" yaml:"size"`
}

// Volume is a composite volume. It owns its members until it is destroyed.
type Volume struct {
	uid       string
	name      string
	parent    string
	members   []concat.Device
	spans     []Span
	size      uint64
	eraseSize uint32
	created   time.Time
	destroyed bool
}

// Name returns the volume name.
func (v *Volume) Name() string { return v.name }

// SetParent records the parent the volume is attached under.
func (v *Volume) SetParent(parent string) { v.parent = parent }

// Parent returns the parent the volume is attached under.
func (v *Volume) Parent() string { return v.parent }

// UID returns the unique identifier assigned at creation.
func (v *Volume) UID() string { return v.uid }

// Size returns the total size in bytes.
func (v *Volume) Size() uint64 { return v.size }

// EraseSize returns the common erase block size of the members, or 0.
func (v *Volume) EraseSize() uint32 { return v.eraseSize }

// Created returns the creation time.
func (v *Volume) Created() time.Time { return v.created }

// Destroyed reports whether the volume was destroyed.
func (v *Volume) Destroyed() bool { return v.destroyed }

// Spans returns a copy of the span table, in member order.
func (v *Volume) Spans() []Span {
	out := make([]Span, len(v.spans))
	copy(out, v.spans)
	return out
}

// MemberNames returns the member names, in concatenation order.
func (v *Volume) MemberNames() []string {
	out := make([]string, len(v.members))
	for i, m := range v.members {
		out[i] = m.Name()
	}
	return out
}

// Builder creates composite volumes and keeps track of the ones that are live.
type Builder struct {
	mu   sync.Mutex
	live map[string]*Volume
	now  func() time.Time
}

// NewBuilder creates a builder with no live volumes.
func NewBuilder() *Builder {
	return &Builder{
		live: make(map[string]*Volume),
		now:  time.Now,
	}
}

// Create concatenates members, in order, into a new volume.
//
// count must equal the number of members and be at least two. When members
// implement Geometry every member must have a non-zero size and all members
// with an erase size must share it.
func (b *Builder) Create(ctx context.Context, members []concat.Device, count int, name string) (concat.Volume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("composite name is required")
	}
	if count != len(members) {
		return nil, fmt.Errorf("%w: declared %d, got %d", ErrMemberCount, count, len(members))
	}
	if count < registry.MinMembers {
		return nil, fmt.Errorf("%w: need at least %d members, got %d", ErrMemberCount, registry.MinMembers, count)
	}

	v := &Volume{
		uid:     uuid.New().String(),
		name:    name,
		members: make([]concat.Device, len(members)),
		spans:   make([]Span, 0, len(members)),
		created: b.now(),
	}
	copy(v.members, members)

	for i, m := range members {
		if m == nil {
			return nil, fmt.Errorf("%w: member %d is nil", ErrIncompatible, i)
		}

		var size uint64
		if g, ok := m.(Geometry); ok {
			size = g.Size()
			if size == 0 {
				return nil, fmt.Errorf("%w: member %q has zero size", ErrIncompatible, m.Name())
			}
			if es := g.EraseSize(); es != 0 {
				if v.eraseSize != 0 && v.eraseSize != es {
					return nil, fmt.Errorf("%w: member %q erase size %d differs from %d",
						ErrIncompatible, m.Name(), es, v.eraseSize)
				}
				v.eraseSize = es
			}
		}

		v.spans = append(v.spans, Span{Member: m.Name(), Offset: v.size, Size: size})
		v.size += size
	}

	b.mu.Lock()
	b.live[v.uid] = v
	b.mu.Unlock()

	return v, nil
}

// Destroy tears down a volume created by this builder. The members are not
// released; that is left to the caller that owns them.
func (b *Builder) Destroy(ctx context.Context, vol concat.Volume) error {
	v, ok := vol.(*Volume)
	if !ok || v == nil {
		return fmt.Errorf("%w: %T", ErrNotOwned, vol)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.live[v.uid]; !ok {
		return fmt.Errorf("%w: %q", ErrNotOwned, v.name)
	}
	delete(b.live, v.uid)
	v.destroyed = true
	return nil
}

// Live returns the number of volumes created and not yet destroyed.
func (b *Builder) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}
