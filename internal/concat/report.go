package concat

import (
	"github.com/jbweber/splice/api/v1alpha1"
)

// Report returns a snapshot of every declared group, in declaration order.
// The returned objects are copies and may be modified by the caller.
func (c *Coordinator) Report() []*v1alpha1.ConcatGroup {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*v1alpha1.ConcatGroup, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, g.DeepCopy())
	}
	return out
}

// Published returns the currently published assemblies, oldest first.
func (c *Coordinator) Published() []Assembly {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Assembly, 0, len(c.published))
	for _, a := range c.published {
		members := make([]Device, len(a.Members))
		copy(members, a.Members)
		out = append(out, Assembly{Group: a.Group, Volume: a.Volume, Members: members})
	}
	return out
}

// Pending returns the names of the groups still waiting for devices.
func (c *Coordinator) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	groups := c.pending.Groups()
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name())
	}
	return names
}
