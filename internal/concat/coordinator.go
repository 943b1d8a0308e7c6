package concat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jbweber/splice/api/v1alpha1"
	"github.com/jbweber/splice/internal/naming"
	"github.com/jbweber/splice/internal/registry"
	"github.com/jbweber/splice/internal/status"
)

var (
	// ErrAllocation is returned when group bookkeeping cannot be allocated.
	// Initialization is rolled back and no group survives.
	ErrAllocation = errors.New("allocation failed")

	// ErrAssembly is returned when a complete group's composite volume could
	// not be built. The group is abandoned.
	ErrAssembly = errors.New("assembly failed")

	// ErrPublish is returned when a built composite volume could not be
	// published. The volume is destroyed and the group is abandoned.
	ErrPublish = errors.New("publish failed")

	// ErrInvalidDeclaration is returned when group declarations are rejected.
	ErrInvalidDeclaration = errors.New("invalid group declaration")

	// ErrClosed is returned by entry points called after Teardown.
	ErrClosed = errors.New("coordinator is torn down")
)

// Action reports what the coordinator did with a registered device.
type Action int

const (
	// ActionIgnored means the device is not part of any pending group.
	ActionIgnored Action = iota
	// ActionPending means the device was matched and its group still waits
	// for other members.
	ActionPending
	// ActionPublished means the device completed its group and the composite
	// volume was published.
	ActionPublished
	// ActionAbandoned means the device completed its group but assembly or
	// publication failed.
	ActionAbandoned
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionIgnored:
		return "Ignored"
	case ActionPending:
		return "Pending"
	case ActionPublished:
		return "Published"
	case ActionAbandoned:
		return "Abandoned"
	default:
		return "Unknown"
	}
}

// Assembly is a published composite volume and the devices it owns.
type Assembly struct {
	Group   string
	Volume  Volume
	Members []Device
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithMaxGroups caps the number of groups Init will allocate. Zero means
// no limit.
func WithMaxGroups(n int) Option {
	return func(c *Coordinator) {
		c.maxGroups = n
	}
}

// Coordinator turns device registrations into published composite volumes.
type Coordinator struct {
	mu sync.Mutex

	builder   Builder
	publisher Publisher
	log       *slog.Logger
	maxGroups int

	pending   *registry.Registry[Device]
	published []*Assembly

	// groups holds the status of every declared group, in declaration order.
	groups      []*v1alpha1.ConcatGroup
	initialized bool
	closed      bool
}

// New creates a coordinator with no groups. Call Init before registering
// devices.
func New(builder Builder, publisher Publisher, opts ...Option) *Coordinator {
	c := &Coordinator{
		builder:   builder,
		publisher: publisher,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pending = registry.New[Device](registry.WithMaxGroups(c.maxGroups))
	return c
}

// Init reads the group declarations from src and creates one pending group
// per declaration listing at least two devices. It returns the number of
// groups created.
//
// Init runs once. Later calls return 0 and leave the existing groups alone.
func (c *Coordinator) Init(ctx context.Context, src DeclarationSource) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}
	if c.initialized {
		c.log.Info("groups already initialized, ignoring declarations")
		return 0, nil
	}

	decls, err := src.Declarations(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidDeclaration, err)
	}

	n, err := c.pending.Initialize(decls)
	switch {
	case errors.Is(err, registry.ErrAlreadyInitialized):
		c.initialized = true
		return 0, nil
	case errors.Is(err, registry.ErrAllocation):
		return 0, fmt.Errorf("%w: %w", ErrAllocation, err)
	case err != nil:
		return 0, fmt.Errorf("%w: %w", ErrInvalidDeclaration, err)
	}

	for _, g := range c.pending.Groups() {
		c.groups = append(c.groups, v1alpha1.NewConcatGroup(g.Name(), g.Expected()...))
		c.log.Debug("group pending", "group", g.Name(), "count", g.Count())
	}
	if skipped := len(decls) - n; skipped > 0 {
		c.log.Info("skipped declarations with too few devices", "skipped", skipped, "min", registry.MinMembers)
	}
	c.initialized = true

	c.log.Info("groups initialized", "groups", n)
	return n, nil
}

// OnDeviceRegistered offers a newly registered device to the pending groups.
//
// A device that belongs to no pending group is not an error; the result is
// ActionIgnored. When the device completes its group the composite volume is
// assembled and published before OnDeviceRegistered returns.
func (c *Coordinator) OnDeviceRegistered(ctx context.Context, id string, dev Device) (Action, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ActionIgnored, ErrClosed
	}

	outcome, g := c.pending.TryMatch(id, dev)
	switch outcome {
	case registry.Matched:
		c.log.Debug("device matched", "device", id, "group", g.Name(), "matched", g.NumMatched(), "count", g.Count())
		if st := c.statusOf(g.Name()); st != nil {
			status.RecordProgress(st, g.NumMatched(), g.Missing())
		}
		return ActionPending, nil

	case registry.Completed:
		c.log.Info("group complete", "device", id, "group", g.Name(), "count", g.Count())
		return c.assemble(ctx, g)

	case registry.GroupAlreadyFull:
		c.log.Info("group already full, device not concatenated", "device", id, "group", g.Name())
		return ActionIgnored, nil

	case registry.AlreadyMatched:
		c.log.Warn("device identifier already matched, device not concatenated", "device", id, "group", g.Name())
		return ActionIgnored, nil

	default:
		c.log.Debug("device not part of any group", "device", id)
		return ActionIgnored, nil
	}
}

// assemble builds and publishes the composite volume of a complete group.
// The group leaves the registry first, so it is assembled at most once.
func (c *Coordinator) assemble(ctx context.Context, g *registry.Group[Device]) (Action, error) {
	name := g.Name()
	st := c.statusOf(name)
	c.transition(st, status.TransitionToCompleted)

	members, err := c.pending.Take(g)
	if err != nil {
		return c.abandon(st, fmt.Errorf("%w: group %q: %w", ErrAssembly, name, err))
	}
	c.transition(st, status.TransitionToAssembling)

	memberNames := make([]string, len(members))
	for i, m := range members {
		memberNames[i] = m.Name()
	}

	volName, err := naming.CompositeName(memberNames)
	if err != nil {
		return c.abandon(st, fmt.Errorf("%w: group %q: %w", ErrAssembly, name, err))
	}

	vol, err := c.builder.Create(ctx, members, len(members), volName)
	if err != nil {
		return c.abandon(st, fmt.Errorf("%w: group %q volume %q: %w", ErrAssembly, name, volName, err))
	}
	if vol == nil {
		return c.abandon(st, fmt.Errorf("%w: group %q volume %q: builder returned no volume", ErrAssembly, name, volName))
	}

	parent := members[0].Parent()
	vol.SetParent(parent)
	if st != nil {
		status.MarkAssembled(st, vol.Name())
	}
	c.log.Info("composite created", "group", name, "volume", vol.Name(), "members", len(members), "parent", parent)

	if err := c.publisher.Publish(ctx, vol); err != nil {
		// The composite owns the members now; undo it and hand them back.
		c.log.Warn("publish failed, destroying composite", "group", name, "volume", vol.Name(), "error", err)
		if derr := c.builder.Destroy(ctx, vol); derr != nil {
			c.log.Warn("failed to destroy composite", "group", name, "volume", vol.Name(), "error", derr)
		}
		c.releaseMembers(name, members)
		return c.abandon(st, fmt.Errorf("%w: group %q volume %q: %w", ErrPublish, name, vol.Name(), err))
	}

	c.published = append(c.published, &Assembly{Group: name, Volume: vol, Members: members})
	if st != nil {
		if err := status.TransitionToPublished(st, vol.Name()); err != nil {
			c.log.Warn("unexpected phase", "group", name, "error", err)
		}
	}

	c.log.Info("composite published", "group", name, "volume", vol.Name())
	return ActionPublished, nil
}

func (c *Coordinator) abandon(st *v1alpha1.ConcatGroup, err error) (Action, error) {
	if st != nil {
		if errors.Is(err, ErrAssembly) {
			status.MarkAssemblyFailed(st, err)
		}
		reason := "AssemblyFailed"
		if errors.Is(err, ErrPublish) {
			reason = "PublishFailed"
			status.MarkPublishFailed(st, err)
		}
		if terr := status.TransitionToAbandoned(st, reason, err.Error()); terr != nil {
			c.log.Warn("unexpected phase", "group", st.Name, "error", terr)
		}
		c.log.Error("group abandoned", "group", st.Name, "error", err)
	}
	return ActionAbandoned, err
}

func (c *Coordinator) transition(st *v1alpha1.ConcatGroup, fn func(*v1alpha1.ConcatGroup) error) {
	if st == nil {
		return
	}
	if err := fn(st); err != nil {
		c.log.Warn("unexpected phase", "group", st.Name, "error", err)
	}
}

// releaseMembers releases every member once, logging failures.
func (c *Coordinator) releaseMembers(group string, members []Device) {
	for _, m := range members {
		if err := m.Release(); err != nil {
			c.log.Warn("failed to release device", "group", group, "device", m.Name(), "error", err)
		}
	}
}

// Teardown withdraws and destroys every published composite volume,
// releasing its members, and then releases every pending group.
//
// Teardown never fails. After Teardown every entry point returns ErrClosed;
// calling Teardown again does nothing.
func (c *Coordinator) Teardown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	for _, a := range c.published {
		log := c.log.With("group", a.Group, "volume", a.Volume.Name())

		if err := c.publisher.Unpublish(ctx, a.Volume); err != nil {
			log.Warn("failed to unpublish composite", "error", err)
		}
		if err := c.builder.Destroy(ctx, a.Volume); err != nil {
			log.Warn("failed to destroy composite", "error", err)
		}
		c.releaseMembers(a.Group, a.Members)

		if st := c.statusOf(a.Group); st != nil {
			status.SetCondition(st, v1alpha1.ConditionPublished, v1alpha1.ConditionFalse, "TornDown", "Composite volume withdrawn")
		}
		log.Info("composite withdrawn")
	}
	c.published = nil

	n := c.pending.ReleaseAll()
	c.log.Info("teardown complete", "pending_released", n)
}

// statusOf returns the status record of the named group, or nil.
func (c *Coordinator) statusOf(name string) *v1alpha1.ConcatGroup {
	for _, g := range c.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}
