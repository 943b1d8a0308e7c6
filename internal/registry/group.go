package registry

// Outcome is the result of offering a device to the registry.
type Outcome int

const (
	// NoMatch means no group lists the device identifier.
	NoMatch Outcome = iota
	// Matched means the device filled a slot and the group is still pending.
	Matched
	// Completed means the device filled the last slot of its group.
	Completed
	// GroupAlreadyFull means the only group listing the identifier is complete.
	GroupAlreadyFull
	// AlreadyMatched means the identifier's slot was filled by an earlier device.
	AlreadyMatched
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "NoMatch"
	case Matched:
		return "Matched"
	case Completed:
		return "Completed"
	case GroupAlreadyFull:
		return "GroupAlreadyFull"
	case AlreadyMatched:
		return "AlreadyMatched"
	default:
		return "Unknown"
	}
}

// Group is a pending group: the expected identifiers of one declaration and
// the device handles matched against them so far.
//
// Slot i of the matched handles always corresponds to expected identifier i,
// regardless of the order in which devices registered.
type Group[H any] struct {
	name       string
	expected   []string
	matched    []H
	filled     []bool
	numMatched int
	released   bool
}

// newGroup builds a fully sized group. The expected list is copied so later
// changes to the declaration cannot resize it.
func newGroup[H any](name string, devices []string) *Group[H] {
	expected := make([]string, len(devices))
	copy(expected, devices)
	return &Group[H]{
		name:     name,
		expected: expected,
		matched:  make([]H, len(devices)),
		filled:   make([]bool, len(devices)),
	}
}

// Name returns the group name.
func (g *Group[H]) Name() string {
	return g.name
}

// Count returns the number of declared members.
func (g *Group[H]) Count() int {
	return len(g.expected)
}

// NumMatched returns the number of filled slots.
func (g *Group[H]) NumMatched() int {
	return g.numMatched
}

// Complete reports whether every slot is filled.
func (g *Group[H]) Complete() bool {
	return len(g.expected) > 0 && g.numMatched == len(g.expected)
}

// Released reports whether the group's bookkeeping has been freed.
func (g *Group[H]) Released() bool {
	return g.released
}

// Expected returns a copy of the declared identifiers.
func (g *Group[H]) Expected() []string {
	out := make([]string, len(g.expected))
	copy(out, g.expected)
	return out
}

// Missing returns the identifiers whose slots are still empty.
func (g *Group[H]) Missing() []string {
	var out []string
	for i, id := range g.expected {
		if !g.filled[i] {
			out = append(out, id)
		}
	}
	return out
}

// Matched returns the handles of the filled slots, in declaration order.
func (g *Group[H]) Matched() []H {
	out := make([]H, 0, g.numMatched)
	for i, ok := range g.filled {
		if ok {
			out = append(out, g.matched[i])
		}
	}
	return out
}

func (g *Group[H]) slotOf(id string) int {
	for i, want := range g.expected {
		if want == id {
			return i
		}
	}
	return -1
}

func (g *Group[H]) release() {
	g.matched = nil
	g.filled = nil
	g.expected = nil
	g.released = true
}
