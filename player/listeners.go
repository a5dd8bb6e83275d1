package player

import "sync"

// Listeners is a registry of event callbacks for Surface, Decoder and FullscreenHost
// implementations. The zero value is ready to use and safe for concurrent use.
type Listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Event)
}

// Subscribe registers fn and returns a function that removes it. Removing twice is harmless.
func (l *Listeners) Subscribe(fn func(Event)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(Event))
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

// Emit calls every registered listener with ev, outside the registry lock.
func (l *Listeners) Emit(ev Event) {
	l.mu.Lock()
	fns := make([]func(Event), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
