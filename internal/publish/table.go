package publish

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jbweber/splice/internal/concat"
)

var (
	// ErrNameCollision is returned when a volume with the same name is already published.
	ErrNameCollision = errors.New("volume name already published")

	// ErrNotPublished is returned when unpublishing a name that is not published.
	ErrNotPublished = errors.New("volume not published")
)

// Table is an in-memory publication table. It is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries map[string]concat.Volume
}

// NewTable creates an empty publication table.
func NewTable() *Table {
	return &Table{entries: make(map[string]concat.Volume)}
}

// Publish adds vol under its name.
func (t *Table) Publish(ctx context.Context, vol concat.Volume) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := vol.Name()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrNameCollision, name)
	}
	t.entries[name] = vol
	return nil
}

// Unpublish removes vol. The entry is only removed if it is the same volume
// that was published under the name.
func (t *Table) Unpublish(ctx context.Context, vol concat.Volume) error {
	name := vol.Name()

	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.entries[name]
	if !ok || cur != vol {
		return fmt.Errorf("%w: %q", ErrNotPublished, name)
	}
	delete(t.entries, name)
	return nil
}

// Lookup returns the volume published under name.
func (t *Table) Lookup(name string) (concat.Volume, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[name]
	return v, ok
}

// Names returns the published names, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of published volumes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
