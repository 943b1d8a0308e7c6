// Package registry tracks concatenation groups that are still waiting for
// their member devices to register.
//
// The registry is pure bookkeeping: it never performs I/O and never takes
// ownership of device handles. Handles are borrowed while a group is pending
// and handed off, in one step, by Take once the group is complete.
//
// A Registry is not safe for concurrent use. Callers serialize access
// (internal/concat holds a single lock around every entry point).
package registry

import (
	"errors"
	"fmt"
)

// MinMembers is the smallest number of devices a declaration must list for a
// group to be created. Shorter declarations are skipped, not rejected.
const MinMembers = 2

var (
	// ErrAllocation is returned when the registry cannot hold another group.
	ErrAllocation = errors.New("group capacity exhausted")

	// ErrDuplicateDevice is returned when a device identifier is listed twice,
	// either within one declaration or across two declarations.
	ErrDuplicateDevice = errors.New("duplicate device identifier")

	// ErrAlreadyInitialized is returned by Initialize when groups already exist.
	ErrAlreadyInitialized = errors.New("registry already initialized")

	// ErrNotComplete is returned by Take for a group still missing members.
	ErrNotComplete = errors.New("group is not complete")

	// ErrUnknownGroup is returned for a group that is not held by the registry.
	ErrUnknownGroup = errors.New("group not found in registry")
)

// Declaration is a static, ordered list of device identifiers that must all
// be present before a group can be assembled.
type Declaration struct {
	// Name identifies the group. If empty, a name is derived from the
	// declaration's position.
	Name string

	// Devices are the opaque device identifiers, in concatenation order.
	Devices []string
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	maxGroups int
}

// WithMaxGroups caps the number of pending groups the registry will hold.
// Zero means no limit.
func WithMaxGroups(n int) Option {
	return func(o *options) {
		o.maxGroups = n
	}
}

// Registry holds pending groups in declaration order. H is the device handle
// type; the registry treats it as opaque.
type Registry[H any] struct {
	groups    []*Group[H]
	maxGroups int
}

// New creates an empty registry.
func New[H any](opts ...Option) *Registry[H] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[H]{maxGroups: o.maxGroups}
}

// Initialize creates one pending group per declaration with at least
// MinMembers devices and returns the number of groups created.
//
// Either every group is created or none is: on error, groups allocated during
// this call are released before returning and the registry is left empty.
func (r *Registry[H]) Initialize(decls []Declaration) (int, error) {
	if len(r.groups) > 0 {
		return 0, ErrAlreadyInitialized
	}

	created := make([]*Group[H], 0, len(decls))
	owners := make(map[string]string)
	names := make(map[string]bool)

	rollback := func() {
		for _, g := range created {
			g.release()
		}
	}

	for i, decl := range decls {
		if len(decl.Devices) < MinMembers {
			continue
		}

		name := decl.Name
		if name == "" {
			name = fmt.Sprintf("group-%d", i)
		}
		if names[name] {
			rollback()
			return 0, fmt.Errorf("declaration %d: group name %q is used twice", i, name)
		}

		seen := make(map[string]bool, len(decl.Devices))
		for _, id := range decl.Devices {
			if id == "" {
				rollback()
				return 0, fmt.Errorf("declaration %q: empty device identifier", name)
			}
			if seen[id] {
				rollback()
				return 0, fmt.Errorf("declaration %q: %w %q", name, ErrDuplicateDevice, id)
			}
			if owner, ok := owners[id]; ok {
				rollback()
				return 0, fmt.Errorf("declaration %q: %w %q (already in %q)", name, ErrDuplicateDevice, id, owner)
			}
			seen[id] = true
		}

		if r.maxGroups > 0 && len(created) >= r.maxGroups {
			rollback()
			return 0, fmt.Errorf("declaration %q: %w (limit %d)", name, ErrAllocation, r.maxGroups)
		}

		for _, id := range decl.Devices {
			owners[id] = name
		}
		names[name] = true
		created = append(created, newGroup[H](name, decl.Devices))
	}

	r.groups = created
	return len(created), nil
}

// TryMatch offers a registering device to the pending groups.
//
// Groups are scanned in declaration order. The first group that is not yet
// complete and holds id in an unfilled slot records h in that slot. Complete
// groups are skipped entirely.
//
// The returned group is nil only for NoMatch.
func (r *Registry[H]) TryMatch(id string, h H) (Outcome, *Group[H]) {
	var full, filled *Group[H]

	for _, g := range r.groups {
		slot := g.slotOf(id)
		if slot < 0 {
			continue
		}
		if g.Complete() {
			if full == nil {
				full = g
			}
			continue
		}
		if g.filled[slot] {
			if filled == nil {
				filled = g
			}
			continue
		}

		g.matched[slot] = h
		g.filled[slot] = true
		g.numMatched++
		if g.Complete() {
			return Completed, g
		}
		return Matched, g
	}

	switch {
	case full != nil:
		return GroupAlreadyFull, full
	case filled != nil:
		return AlreadyMatched, filled
	default:
		return NoMatch, nil
	}
}

// Take removes a complete group from the registry and hands its matched
// handles to the caller, in declaration order. The group keeps no reference
// to the handles afterwards.
func (r *Registry[H]) Take(g *Group[H]) ([]H, error) {
	if !g.Complete() {
		return nil, fmt.Errorf("group %q: %w (%d/%d)", g.name, ErrNotComplete, g.numMatched, len(g.expected))
	}
	if !r.remove(g) {
		return nil, fmt.Errorf("group %q: %w", g.name, ErrUnknownGroup)
	}

	members := g.matched
	g.matched = nil
	g.release()
	return members, nil
}

// Release removes a group from the registry and frees its bookkeeping.
// Matched handles are dropped, not released: the registry only borrows them.
func (r *Registry[H]) Release(g *Group[H]) error {
	if !r.remove(g) {
		return fmt.Errorf("group %q: %w", g.name, ErrUnknownGroup)
	}
	g.release()
	return nil
}

// ReleaseAll releases every remaining group and returns how many there were.
func (r *Registry[H]) ReleaseAll() int {
	n := len(r.groups)
	for _, g := range r.groups {
		g.release()
	}
	r.groups = nil
	return n
}

// Groups returns the pending groups in declaration order.
func (r *Registry[H]) Groups() []*Group[H] {
	out := make([]*Group[H], len(r.groups))
	copy(out, r.groups)
	return out
}

// Lookup returns the pending group with the given name, or nil.
func (r *Registry[H]) Lookup(name string) *Group[H] {
	for _, g := range r.groups {
		if g.name == name {
			return g
		}
	}
	return nil
}

// Len returns the number of pending groups.
func (r *Registry[H]) Len() int {
	return len(r.groups)
}

func (r *Registry[H]) remove(g *Group[H]) bool {
	for i, cur := range r.groups {
		if cur == g {
			r.groups = append(r.groups[:i], r.groups[i+1:]...)
			return true
		}
	}
	return false
}
