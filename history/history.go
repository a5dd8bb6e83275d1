// Package history persists resume positions per stream reference.
package history

import (
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/streamctl/streamctl/filesystem"
	"github.com/streamctl/streamctl/where"
)

// Positions this close to the end count as finished and resume from the start.
const (
	finishedFraction = 0.95
	finishedMargin   = 10.0
)

var (
	cacher     *gache.Cache[map[string]*Entry]
	cacherOnce sync.Once

	// serializes read-modify-write cycles
	mu sync.Mutex
)

func store() *gache.Cache[map[string]*Entry] {
	cacherOnce.Do(func() {
		cacher = gache.New[map[string]*Entry](
			&gache.Options{
				Path:       where.History(),
				FileSystem: &filesystem.GacheFs{},
			},
		)
	})
	return cacher
}

// Get returns every saved entry keyed by reference.
func Get() (map[string]*Entry, error) {
	cached, expired, err := store().Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Lookup returns the entry for ref, if any.
func Lookup(ref string) (mo.Option[*Entry], error) {
	saved, err := Get()
	if err != nil {
		return mo.None[*Entry](), err
	}
	if entry, ok := saved[ref]; ok {
		return mo.Some(entry), nil
	}
	return mo.None[*Entry](), nil
}

// Last returns the most recently updated entry, if any.
func Last() (mo.Option[*Entry], error) {
	saved, err := Get()
	if err != nil {
		return mo.None[*Entry](), err
	}
	if len(saved) == 0 {
		return mo.None[*Entry](), nil
	}

	last := lo.MaxBy(lo.Values(saved), func(a, b *Entry) bool {
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	return mo.Some(last), nil
}

// Save records position for ref. A stream watched to the end is saved at position zero.
func Save(ref string, position, duration float64) error {
	if ref == "" {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	saved, err := Get()
	if err != nil {
		return err
	}

	if duration > 0 && (position >= duration*finishedFraction || duration-position <= finishedMargin) {
		position = 0
	}

	saved[ref] = &Entry{
		Ref:       ref,
		Position:  position,
		Duration:  duration,
		UpdatedAt: time.Now(),
	}
	return store().Set(saved)
}

// Remove deletes the entry for ref.
func Remove(ref string) error {
	mu.Lock()
	defer mu.Unlock()

	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, ref)
	return store().Set(saved)
}

// Clear forgets every entry.
func Clear() error {
	mu.Lock()
	defer mu.Unlock()

	return store().Set(make(map[string]*Entry))
}
